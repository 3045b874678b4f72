package groups

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/studymatehq/studymate-be/internal/modules/credits"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateGroup godoc
// @Summary Create a study group
// @Description Creates a group with the caller as owner (free)
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGroupRequest true "Group details"
// @Success 201 {object} StudyGroup
// @Router /groups [post]
func (h *Handler) CreateGroup(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	group, err := h.service.CreateGroup(c.Context(), userID, &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// ListGroups godoc
// @Summary Browse study groups
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Success 200 {array} StudyGroup
// @Router /groups [get]
func (h *Handler) ListGroups(c *fiber.Ctx) error {
	groups, err := h.service.ListGroups()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list groups",
		})
	}
	return c.JSON(fiber.Map{"groups": groups})
}

// ListMyGroups godoc
// @Summary List groups I belong to
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Success 200 {array} StudyGroup
// @Router /groups/mine [get]
func (h *Handler) ListMyGroups(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	groups, err := h.service.ListMyGroups(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list groups",
		})
	}
	return c.JSON(fiber.Map{"groups": groups})
}

// GetGroup godoc
// @Summary Get a study group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} StudyGroup
// @Router /groups/{id} [get]
func (h *Handler) GetGroup(c *fiber.Ctx) error {
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid group id",
		})
	}

	group, err := h.service.GetGroup(groupID)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "group not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load group",
		})
	}
	return c.JSON(group)
}

// JoinGroup godoc
// @Summary Join a study group
// @Description Joins a group (costs 1 credit)
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Failure 402 {object} map[string]interface{}
// @Router /groups/{id}/join [post]
func (h *Handler) JoinGroup(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid group id",
		})
	}

	charge, err := h.service.JoinGroup(c.Context(), userID, groupID)
	if err != nil {
		return renderServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"joined":           true,
		"credits_deducted": charge.Cost,
	})
}

// LeaveGroup godoc
// @Summary Leave a study group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Router /groups/{id}/leave [post]
func (h *Handler) LeaveGroup(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid group id",
		})
	}

	if err := h.service.LeaveGroup(c.Context(), userID, groupID); err != nil {
		return renderServiceError(c, err)
	}
	return c.JSON(fiber.Map{"left": true})
}

// PostMessage godoc
// @Summary Post a group message
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param request body PostMessageRequest true "Message body"
// @Success 201 {object} GroupMessage
// @Router /groups/{id}/messages [post]
func (h *Handler) PostMessage(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid group id",
		})
	}

	var req PostMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	message, err := h.service.PostMessage(c.Context(), userID, groupID, req.Body)
	if err != nil {
		return renderServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// ListMessages godoc
// @Summary List group messages
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {array} GroupMessage
// @Router /groups/{id}/messages [get]
func (h *Handler) ListMessages(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid group id",
		})
	}

	messages, err := h.service.ListMessages(userID, groupID)
	if err != nil {
		return renderServiceError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals("userID").(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}
	return userID, nil
}

func renderServiceError(c *fiber.Ctx, err error) error {
	if ice, ok := credits.AsInsufficient(err); ok {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":     "insufficient credits",
			"available": ice.Available,
			"required":  ice.Required,
		})
	}

	switch {
	case errors.Is(err, ErrGroupNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	case errors.Is(err, ErrAlreadyMember):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already a member"})
	case errors.Is(err, ErrNotMember):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not a member of this group"})
	case errors.Is(err, ErrGroupFull):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "group is full"})
	case errors.Is(err, ErrOwnerCantLeave):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "owners cannot leave their own group"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "something went wrong",
	})
}
