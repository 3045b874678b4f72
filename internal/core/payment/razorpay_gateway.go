package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// RazorpayGateway handles automated payment through Razorpay payment links.
// Supports UPI, cards, netbanking and wallets.
type RazorpayGateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

// NewRazorpayGateway creates a new Razorpay payment gateway
func NewRazorpayGateway(keyID, keySecret, webhookSecret string) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		baseURL:       "https://api.razorpay.com/v1",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type razorpayLinkResponse struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
	Status   string `json:"status"`
	ExpireBy int64  `json:"expire_by"`
}

// Process creates a Razorpay payment link for the purchase
func (g *RazorpayGateway) Process(p *Purchase) (*ProcessResult, error) {
	expireBy := time.Now().Add(60 * time.Minute)

	payload := map[string]interface{}{
		"amount":      int64(p.AmountINR * 100), // paise
		"currency":    "INR",
		"description": p.Description,
		"reference_id": p.Reference,
		"customer": map[string]interface{}{
			"name":  p.CustomerName,
			"email": p.CustomerEmail,
		},
		"notify": map[string]interface{}{
			"email": p.CustomerEmail != "",
		},
		"notes": map[string]interface{}{
			"purchase_id": p.ID.String(),
			"kind":        p.Kind,
		},
		"expire_by": expireBy.Unix(),
	}

	resp, err := g.createPaymentLink(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create Razorpay payment link: %w", err)
	}

	log.Printf("✅ Razorpay payment link created for %s: %s", p.Reference, resp.ShortURL)

	return &ProcessResult{
		Success:        true,
		PaymentLink:    resp.ShortURL,
		GatewayOrderID: resp.ID,
		Message:        "Complete the payment using the link provided.",
		ExpiresAt:      &expireBy,
	}, nil
}

// GetStatus retrieves the payment-link status by our reference id
func (g *RazorpayGateway) GetStatus(reference string) (*PaymentStatus, error) {
	req, err := http.NewRequest("GET", g.baseURL+"/payment_links?reference_id="+reference, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("razorpay API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		PaymentLinks []struct {
			ID        string `json:"id"`
			Status    string `json:"status"` // created, paid, cancelled, expired
			UpdatedAt int64  `json:"updated_at"`
		} `json:"payment_links"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode razorpay response: %w", err)
	}
	if len(result.PaymentLinks) == 0 {
		return &PaymentStatus{Reference: reference, Status: StatusPending}, nil
	}

	link := result.PaymentLinks[0]
	status := &PaymentStatus{
		Reference:        reference,
		GatewayPaymentID: link.ID,
	}
	switch link.Status {
	case "paid":
		status.Status = StatusPaid
		paidAt := time.Unix(link.UpdatedAt, 0)
		status.PaidAt = &paidAt
	case "cancelled":
		status.Status = StatusCancelled
	case "expired":
		status.Status = StatusExpired
	default:
		status.Status = StatusPending
	}

	return status, nil
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header value:
// hex-encoded HMAC-SHA256 of the raw body with the webhook secret.
func (g *RazorpayGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if g.webhookSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// Name returns the gateway provider name
func (g *RazorpayGateway) Name() string {
	return "razorpay"
}

func (g *RazorpayGateway) createPaymentLink(payload map[string]interface{}) (*razorpayLinkResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", g.baseURL+"/payment_links", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("razorpay API error (status %d): %s", resp.StatusCode, string(body))
	}

	var link razorpayLinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return nil, fmt.Errorf("failed to decode razorpay response: %w", err)
	}

	return &link, nil
}
