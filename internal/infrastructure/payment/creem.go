package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type CancelMode string

const (
	// CancelImmediate ends entitlement at the provider right away; used for
	// refund-path cancellations.
	CancelImmediate CancelMode = "immediate"
	// CancelScheduled lets the current period run out; used on plan change.
	CancelScheduled CancelMode = "scheduled"
)

// Client talks to the Creem billing API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether an API key is present. Endpoints that need the
// provider must refuse with an explicit error when it is not, rather than
// silently skipping the upstream call.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type CheckoutSession struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

func (c *Client) CreateCheckout(ctx context.Context, productID, userID, email, successURL string) (*CheckoutSession, error) {
	body := map[string]interface{}{
		"product_id":  productID,
		"request_id":  userID,
		"success_url": successURL,
		"customer": map[string]string{
			"email": email,
		},
		"metadata": map[string]string{
			"user_id": userID,
		},
	}

	var sess CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/checkouts", body, &sess); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &sess, nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string, mode CancelMode) error {
	body := map[string]interface{}{
		"mode": string(mode),
	}

	path := fmt.Sprintf("/subscriptions/%s/cancel", subscriptionID)
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("failed to cancel subscription %s: %w", subscriptionID, err)
	}

	return nil
}

func (c *Client) CustomerPortalLink(ctx context.Context, customerID string) (string, error) {
	body := map[string]interface{}{
		"customer_id": customerID,
	}

	var resp struct {
		CustomerPortalLink string `json:"customer_portal_link"`
	}
	if err := c.do(ctx, http.MethodPost, "/customers/billing", body, &resp); err != nil {
		return "", fmt.Errorf("failed to create portal link: %w", err)
	}

	return resp.CustomerPortalLink, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("creem API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("creem API error (%d)", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode creem response: %w", err)
		}
	}

	return nil
}
