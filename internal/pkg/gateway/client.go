package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fundfox/fundfox/internal/pkg/env"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// ErrNotConfigured is returned when gateway credentials are missing.
var ErrNotConfigured = errors.New("payment gateway credentials are not configured")

// Client talks to the payment gateway's REST API with HTTP basic auth.
type Client struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string

	HTTPClient *http.Client
}

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// SubscriptionRequest describes a recurring contribution to set up.
type SubscriptionRequest struct {
	Amount     int64
	Currency   string
	Interval   string // monthly or yearly
	TotalCount int
	Name       string
	Notes      map[string]string
}

type Subscription struct {
	ID       string `json:"id"`
	PlanID   string `json:"plan_id"`
	Status   string `json:"status"`
	ShortURL string `json:"short_url"`
}

// APIError is a non-2xx response from the gateway.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway request failed: status=%d code=%s %s", e.StatusCode, e.Code, e.Description)
}

func NewClientFromEnv() *Client {
	return &Client{
		KeyID:         strings.TrimSpace(env.GetEnv("GATEWAY_KEY_ID", "")),
		KeySecret:     strings.TrimSpace(env.GetEnv("GATEWAY_KEY_SECRET", "")),
		WebhookSecret: strings.TrimSpace(env.GetEnv("GATEWAY_WEBHOOK_SECRET", "")),
		BaseURL:       strings.TrimSpace(env.GetEnv("GATEWAY_BASE_URL", defaultBaseURL)),
		HTTPClient: &http.Client{
			Timeout: env.GetEnvDuration("GATEWAY_TIMEOUT", 15*time.Second),
		},
	}
}

func (c *Client) Configured() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

// CreateOrder registers a one-off payment with the gateway. The returned
// order id is the idempotency key for the local payment row.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Order, error) {
	if amount <= 0 {
		return nil, errors.New("order amount must be positive")
	}
	body := map[string]interface{}{
		"amount":   amount,
		"currency": strings.ToUpper(currency),
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		body["notes"] = notes
	}
	var out Order
	if err := c.do(ctx, http.MethodPost, "/orders", body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("gateway order response missing id")
	}
	return &out, nil
}

// CreateSubscription creates a plan for the amount and interval, then a
// subscription on it.
func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	period := "monthly"
	if req.Interval == "yearly" {
		period = "yearly"
	}
	total := req.TotalCount
	if total <= 0 {
		total = 12
	}

	var plan struct {
		ID string `json:"id"`
	}
	planBody := map[string]interface{}{
		"period":   period,
		"interval": 1,
		"item": map[string]interface{}{
			"name":     req.Name,
			"amount":   req.Amount,
			"currency": strings.ToUpper(req.Currency),
		},
	}
	if err := c.do(ctx, http.MethodPost, "/plans", planBody, &plan); err != nil {
		return nil, err
	}
	if plan.ID == "" {
		return nil, errors.New("gateway plan response missing id")
	}

	subBody := map[string]interface{}{
		"plan_id":     plan.ID,
		"total_count": total,
	}
	if len(req.Notes) > 0 {
		subBody["notes"] = req.Notes
	}
	var out Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions", subBody, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("gateway subscription response missing id")
	}
	if out.PlanID == "" {
		out.PlanID = plan.ID
	}
	return &out, nil
}

func (c *Client) PauseSubscription(ctx context.Context, id string) error {
	return c.subscriptionAction(ctx, id, "pause", map[string]interface{}{"pause_at": "now"})
}

func (c *Client) ResumeSubscription(ctx context.Context, id string) error {
	return c.subscriptionAction(ctx, id, "resume", map[string]interface{}{"resume_at": "now"})
}

func (c *Client) CancelSubscription(ctx context.Context, id string) error {
	return c.subscriptionAction(ctx, id, "cancel", map[string]interface{}{"cancel_at_cycle_end": 0})
}

func (c *Client) subscriptionAction(ctx context.Context, id, action string, body map[string]interface{}) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("subscription id is required")
	}
	return c.do(ctx, http.MethodPost, "/subscriptions/"+url.PathEscape(id)+"/"+action, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &payload) == nil {
			apiErr.Code = payload.Error.Code
			apiErr.Description = payload.Error.Description
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
