package sms

import (
	"context"
	"fmt"

	"github.com/quickcart/quickcart-backend/pkg/config"
	"github.com/quickcart/quickcart-backend/pkg/logger"
)

// Provider dispatches a text message to a phone number.
type Provider interface {
	Send(ctx context.Context, phone, message string) error
}

// NewProvider picks a provider implementation from configuration. The
// console provider is the dev default and simply logs the message.
func NewProvider(cfg config.SMSConfig, logg *logger.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", "console":
		return &ConsoleProvider{logg: logg}, nil
	case "fast2sms":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("fast2sms api key is required")
		}
		return NewFast2SMS(cfg, logg), nil
	default:
		return nil, fmt.Errorf("unknown sms provider %q", cfg.Provider)
	}
}

// ConsoleProvider logs outbound messages instead of sending them.
type ConsoleProvider struct {
	logg *logger.Logger
}

// Send logs the message payload.
func (p *ConsoleProvider) Send(ctx context.Context, phone, message string) error {
	if p.logg != nil {
		ctx = p.logg.WithFields(ctx, map[string]any{"phone": phone, "sms": message})
		p.logg.Info(ctx, "sms dispatched to console")
	}
	return nil
}
