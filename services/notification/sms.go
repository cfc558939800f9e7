package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioSMS posts messages to Twilio's REST API.
type TwilioSMS struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTwilioSMS builds a sender with a 10s HTTP timeout.
func NewTwilioSMS(accountSID, authToken, from string, logger *zap.Logger) *TwilioSMS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TwilioSMS{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL points the sender at another endpoint, e.g. a test server.
func (s *TwilioSMS) WithBaseURL(u string) *TwilioSMS {
	s.baseURL = strings.TrimRight(u, "/")
	return s
}

type twilioAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SendSMS sends one message, retrying 429 and 5xx responses up to three times.
func (s *TwilioSMS) SendSMS(ctx context.Context, to, body string) error {
	if s.accountSID == "" || s.authToken == "" || s.from == "" {
		return errors.New("twilio: credentials or sender number missing")
	}
	if to == "" {
		return errors.New("twilio: recipient required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("twilio: body required")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("twilio: build request: %w", err)
		}
		req.SetBasicAuth(s.accountSID, s.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("twilio: send: %w", err)
		} else {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				s.logger.Debug("SMS sent", zap.String("to", to))
				return nil
			}
			lastErr = fmt.Errorf("twilio: send failed: %s", formatTwilioError(resp.StatusCode, raw))
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return lastErr
			}
		}

		if attempt < 3 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt*250) * time.Millisecond):
			}
		}
	}
	return lastErr
}

func formatTwilioError(status int, body []byte) string {
	var apiErr twilioAPIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Sprintf("status %d code %d: %s", status, apiErr.Code, apiErr.Message)
	}
	return fmt.Sprintf("status %d", status)
}
