package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ajserban/raymed/internal/reliability"
)

// DefaultAPIBaseURL is the telephony provider's REST API root.
const DefaultAPIBaseURL = "https://api.twilio.com/2010-04-01"

// ClientConfig holds provider credentials for the control API.
type ClientConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
	HTTPClient *http.Client
}

// Client drives the provider's REST control API: placing outbound calls
// and sending SMS. It is independent of the media-stream relay.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" || strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, fmt.Errorf("telephony account SID and auth token are required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultAPIBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

// CallResult identifies a created outbound call.
type CallResult struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// MessageResult identifies a sent SMS.
type MessageResult struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// CreateCall starts an outbound call; the provider fetches call
// instructions from twimlURL once the callee answers.
func (c *Client) CreateCall(ctx context.Context, to, twimlURL string) (CallResult, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.cfg.FromNumber)
	form.Set("Url", twimlURL)

	var out CallResult
	if err := c.postForm(ctx, "Calls.json", form, &out); err != nil {
		return CallResult{}, fmt.Errorf("create call: %w", err)
	}
	return out, nil
}

// SendSMS sends a text message from the configured number.
func (c *Client) SendSMS(ctx context.Context, to, body string) (MessageResult, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.cfg.FromNumber)
	form.Set("Body", body)

	var out MessageResult
	if err := c.postForm(ctx, "Messages.json", form, &out); err != nil {
		return MessageResult{}, fmt.Errorf("send sms: %w", err)
	}
	return out, nil
}

const postFormAttempts = 2

func (c *Client) postForm(ctx context.Context, resource string, form url.Values, out any) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/Accounts/" + url.PathEscape(c.cfg.AccountSID) + "/" + resource

	var lastErr error
	for attempt := 0; attempt < postFormAttempts; attempt++ {
		if attempt > 0 {
			backoff := reliability.ExponentialBackoff(attempt, 200*time.Millisecond, time.Second)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

		res, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if res.StatusCode >= 200 && res.StatusCode < 300 {
			err := json.NewDecoder(res.Body).Decode(out)
			res.Body.Close()
			if err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}

		res.Body.Close()
		lastErr = fmt.Errorf("provider returned status %d", res.StatusCode)
		if !reliability.IsRetryableHTTPStatus(res.StatusCode) {
			return lastErr
		}
	}
	return lastErr
}
