package billing

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetCatalog godoc
// @Summary Get plans and credit packs
// @Tags Billing
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /billing/catalog [get]
func (h *Handler) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"plans":        h.service.Plans(),
		"credit_packs": h.service.CreditPacks(),
	})
}

// Subscribe godoc
// @Summary Subscribe to a paid plan
// @Description Starts a checkout; the plan activates after payment is verified
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubscribeRequest true "Plan name"
// @Success 201 {object} CheckoutResponse
// @Router /billing/subscribe [post]
func (h *Handler) Subscribe(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	checkout, err := h.service.Subscribe(c.Context(), userID, req.Plan)
	if err != nil {
		if errors.Is(err, ErrUnknownPlan) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown plan",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to start checkout",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(checkout)
}

// BuyCredits godoc
// @Summary Buy a credit pack
// @Description Starts a checkout; credits land after payment is verified
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BuyCreditsRequest true "Pack name"
// @Success 201 {object} CheckoutResponse
// @Router /billing/credits [post]
func (h *Handler) BuyCredits(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req BuyCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	checkout, err := h.service.BuyCredits(c.Context(), userID, req.Pack)
	if err != nil {
		if errors.Is(err, ErrUnknownPack) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown credit pack",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to start checkout",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(checkout)
}

// ListPurchases godoc
// @Summary List my purchases
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Purchase
// @Router /billing/purchases [get]
func (h *Handler) ListPurchases(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	purchases, err := h.service.ListPurchases(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list purchases",
		})
	}
	return c.JSON(fiber.Map{"purchases": purchases})
}

// ConfirmPurchase godoc
// @Summary Check and settle a purchase
// @Description Polls the gateway for payment status and fulfills if paid
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param reference path string true "Purchase reference"
// @Success 200 {object} Purchase
// @Router /billing/purchases/{reference}/confirm [post]
func (h *Handler) ConfirmPurchase(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	purchase, err := h.service.ConfirmPurchase(c.Context(), userID, c.Params("reference"))
	if err != nil {
		if errors.Is(err, ErrPurchaseNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "purchase not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to confirm purchase",
		})
	}
	return c.JSON(purchase)
}

// HandleWebhook godoc
// @Summary Razorpay webhook
// @Description Verifies the signature and settles the referenced purchase
// @Tags Billing
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /webhooks/razorpay [post]
func (h *Handler) HandleWebhook(c *fiber.Ctx) error {
	signature := c.Get("X-Razorpay-Signature")

	if err := h.service.HandleWebhook(c.Context(), c.Body(), signature); err != nil {
		if errors.Is(err, ErrBadSignature) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid signature",
			})
		}
		// Non-signature failures return 500 so the gateway retries.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "webhook processing failed",
		})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals("userID").(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}
	return userID, nil
}
