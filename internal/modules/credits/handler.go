package credits

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	ledger *Ledger
}

func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// GetBalance godoc
// @Summary Get credit balance
// @Description Returns the authenticated user's credit balance for the current monthly cycle
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /credits/balance [get]
func (h *Handler) GetBalance(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid user id",
		})
	}

	bal, err := h.ledger.GetAvailable(c.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "account not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read balance",
		})
	}

	// Unlimited plans report a display sentinel instead of a number.
	var available interface{} = bal.Available
	if bal.Unlimited {
		available = "unlimited"
	}

	return c.JSON(fiber.Map{
		"available":    available,
		"total":        bal.Total,
		"used":         bal.Used,
		"plan":         bal.Plan,
		"is_unlimited": bal.Unlimited,
	})
}
