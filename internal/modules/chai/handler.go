package chai

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/studymatehq/studymate-be/internal/modules/billing"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// BuyChai godoc
// @Summary Buy the team a chai
// @Description Starts a tip checkout and returns a scannable UPI QR
// @Tags Chai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BuyChaiRequest true "Cups, display name and message"
// @Success 201 {object} BuyChaiResponse
// @Router /chai [post]
func (h *Handler) BuyChai(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req BuyChaiRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	resp, err := h.service.BuyChai(c.Context(), userID, &req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to start checkout",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Confirm godoc
// @Summary Confirm a chai payment
// @Tags Chai
// @Produce json
// @Security BearerAuth
// @Param reference path string true "Purchase reference"
// @Success 200 {object} Supporter
// @Router /chai/{reference}/confirm [post]
func (h *Handler) Confirm(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	supporter, err := h.service.Confirm(c.Context(), userID, c.Params("reference"))
	if err != nil {
		if errors.Is(err, billing.ErrPurchaseNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "purchase not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to confirm payment",
		})
	}
	return c.JSON(supporter)
}

// Feed godoc
// @Summary Supporter feed
// @Description Lists settled supporters, newest first (public)
// @Tags Chai
// @Produce json
// @Success 200 {array} Supporter
// @Router /chai/feed [get]
func (h *Handler) Feed(c *fiber.Ctx) error {
	supporters, err := h.service.Feed()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load feed",
		})
	}
	return c.JSON(fiber.Map{"supporters": supporters})
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals("userID").(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}
	return userID, nil
}
