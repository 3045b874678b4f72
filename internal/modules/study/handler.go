package study

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studymatehq/studymate-be/internal/modules/credits"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GenerateNotes godoc
// @Summary Generate study notes
// @Description Generates AI revision notes from pasted material (costs 1 credit)
// @Tags Study
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GenerateNotesRequest true "Subject and material"
// @Success 201 {object} StudyNote
// @Failure 402 {object} map[string]interface{}
// @Router /study/notes [post]
func (h *Handler) GenerateNotes(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req GenerateNotesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	note, charge, err := h.service.GenerateNotes(c.Context(), userID, &req)
	if err != nil {
		return renderServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"note":             note,
		"credits_deducted": charge.Cost,
	})
}

// ListNotes godoc
// @Summary List study notes
// @Tags Study
// @Produce json
// @Security BearerAuth
// @Success 200 {array} StudyNote
// @Router /study/notes [get]
func (h *Handler) ListNotes(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	notes, err := h.service.ListNotes(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list notes",
		})
	}
	return c.JSON(fiber.Map{"notes": notes})
}

// GetNote godoc
// @Summary Get a study note
// @Tags Study
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} StudyNote
// @Router /study/notes/{id} [get]
func (h *Handler) GetNote(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	noteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid note id",
		})
	}

	note, err := h.service.GetNote(userID, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "note not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load note",
		})
	}
	return c.JSON(note)
}

// GenerateQuiz godoc
// @Summary Generate a quiz
// @Description Generates a multiple-choice quiz from pasted material (costs 2 credits)
// @Tags Study
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GenerateQuizRequest true "Subject, material and question count"
// @Success 201 {object} Quiz
// @Failure 402 {object} map[string]interface{}
// @Router /study/quizzes [post]
func (h *Handler) GenerateQuiz(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	quiz, charge, err := h.service.GenerateQuiz(c.Context(), userID, &req)
	if err != nil {
		return renderServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"quiz":             quiz,
		"credits_deducted": charge.Cost,
	})
}

// ListQuizzes godoc
// @Summary List quizzes
// @Tags Study
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Quiz
// @Router /study/quizzes [get]
func (h *Handler) ListQuizzes(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	quizzes, err := h.service.ListQuizzes(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list quizzes",
		})
	}
	return c.JSON(fiber.Map{"quizzes": quizzes})
}

// GetQuiz godoc
// @Summary Get a quiz
// @Tags Study
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 200 {object} Quiz
// @Router /study/quizzes/{id} [get]
func (h *Handler) GetQuiz(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	quizID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid quiz id",
		})
	}

	quiz, err := h.service.GetQuiz(userID, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load quiz",
		})
	}
	return c.JSON(quiz)
}

// LogSession godoc
// @Summary Log a study session
// @Description Records a study session; logging is free
// @Tags Study
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LogSessionRequest true "Session details"
// @Success 201 {object} FocusSession
// @Router /study/sessions [post]
func (h *Handler) LogSession(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req LogSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	session, err := h.service.LogSession(c.Context(), userID, &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// PredictFocus godoc
// @Summary Predict focus patterns
// @Description Analyzes recent sessions with AI (costs 1 credit)
// @Tags Study
// @Produce json
// @Security BearerAuth
// @Success 200 {object} FocusPrediction
// @Failure 402 {object} map[string]interface{}
// @Router /study/focus/predict [post]
func (h *Handler) PredictFocus(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	prediction, err := h.service.PredictFocus(c.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoSessions) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "log some study sessions first",
			})
		}
		return renderServiceError(c, err)
	}
	return c.JSON(prediction)
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals("userID").(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}
	return userID, nil
}

// renderServiceError maps service errors to HTTP responses. Insufficient
// credits is a 402 with the balance details so the UI can prompt an upgrade.
func renderServiceError(c *fiber.Ctx, err error) error {
	if ice, ok := credits.AsInsufficient(err); ok {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":     "insufficient credits",
			"available": ice.Available,
			"required":  ice.Required,
		})
	}
	if errors.Is(err, ErrEmptyMaterial) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "material is required",
		})
	}
	if errors.Is(err, ErrBadQuizJSON) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "quiz generation returned a malformed response, credits were refunded",
		})
	}
	if errors.Is(err, credits.ErrAccountNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "account not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "something went wrong",
	})
}
