package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quickcart/quickcart-backend/pkg/config"
	"github.com/quickcart/quickcart-backend/pkg/logger"
)

const fast2smsEndpoint = "https://www.fast2sms.com/dev/bulkV2"

// Fast2SMS sends transactional SMS through the Fast2SMS bulk API.
type Fast2SMS struct {
	apiKey   string
	senderID string
	endpoint string
	client   *http.Client
	logg     *logger.Logger
}

// NewFast2SMS builds a Fast2SMS provider from configuration.
func NewFast2SMS(cfg config.SMSConfig, logg *logger.Logger) *Fast2SMS {
	return &Fast2SMS{
		apiKey:   cfg.APIKey,
		senderID: cfg.SenderID,
		endpoint: fast2smsEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logg:     logg,
	}
}

type fast2smsResponse struct {
	Return  bool   `json:"return"`
	Message any    `json:"message"`
	Request string `json:"request_id"`
}

// Send posts the message to the Fast2SMS API.
func (p *Fast2SMS) Send(ctx context.Context, phone, message string) error {
	form := url.Values{}
	form.Set("route", "q")
	form.Set("numbers", phone)
	form.Set("message", message)
	if p.senderID != "" {
		form.Set("sender_id", p.senderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending sms: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("reading sms response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}

	var parsed fast2smsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("decoding sms response: %w", err)
	}
	if !parsed.Return {
		return fmt.Errorf("sms provider rejected message: %v", parsed.Message)
	}

	if p.logg != nil {
		p.logg.Info(p.logg.WithField(ctx, "sms_request_id", parsed.Request), "sms dispatched")
	}
	return nil
}
