package service

import (
	"context"
	"time"

	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/metrics"
	"github.com/Behyna/wa-inbox/pkg/whatsapp"
	"go.uber.org/zap"
)

const (
	defaultProviderTimeout  = 10 * time.Second
	defaultProviderMaxRetry = 3
)

type ProviderService interface {
	SendWithRetry(ctx context.Context, businessNumber string, request whatsapp.SendRequest) (whatsapp.Response, error)
}

type Provider struct {
	provider whatsapp.Provider
	config   whatsapp.Config
	metrics  *metrics.Metrics
	logger   *zap.Logger
	backoff  time.Duration
}

func NewProviderService(provider whatsapp.Provider, cfg *config.Config, m *metrics.Metrics,
	logger *zap.Logger) ProviderService {
	providerCfg := cfg.WhatsApp
	if providerCfg.Timeout <= 0 {
		providerCfg.Timeout = defaultProviderTimeout
	}
	if providerCfg.MaxRetry <= 0 {
		providerCfg.MaxRetry = defaultProviderMaxRetry
	}

	return &Provider{provider: provider, config: providerCfg, metrics: m, logger: logger, backoff: 100 * time.Millisecond}
}

func (p *Provider) SendWithRetry(ctx context.Context, businessNumber string, request whatsapp.SendRequest) (
	whatsapp.Response, error) {
	creds, ok := p.config.CredentialsFor(businessNumber)
	if !ok {
		p.logger.Warn("No provider credentials configured", zap.String("businessNumber", businessNumber))
		return whatsapp.Response{}, ErrNoCredentials
	}

	var lastErr error

	for attempt := 1; attempt <= p.config.MaxRetry; attempt++ {
		p.logger.Debug("Attempting to send WhatsApp message",
			zap.Int("attempt", attempt),
			zap.String("to", request.To),
			zap.String("from", businessNumber))

		providerCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)

		response, err := p.provider.Send(providerCtx, creds, request)
		cancel()

		if err == nil {
			p.metrics.RecordProviderSend("success")
			p.logger.Info("WhatsApp message sent",
				zap.String("providerMessageID", response.MessageID),
				zap.Int("attempt", attempt))
			return response, nil
		}

		lastErr = err
		p.logger.Warn("WhatsApp send attempt failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.String("to", request.To))

		if !whatsapp.IsRetryable(err) {
			p.metrics.RecordProviderSend("rejected")
			p.logger.Error("Non-retryable provider error", zap.Error(err), zap.String("to", request.To))
			return whatsapp.Response{}, err
		}

		if attempt < p.config.MaxRetry {
			delay := time.Duration(attempt) * p.backoff
			p.logger.Debug("Waiting before retry", zap.Duration("delay", delay))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				p.metrics.RecordProviderSend("cancelled")
				return whatsapp.Response{}, ctx.Err()
			}
		}
	}

	p.metrics.RecordProviderSend("exhausted")
	p.logger.Error("All retry attempts exhausted",
		zap.Error(lastErr),
		zap.Int("maxRetries", p.config.MaxRetry),
		zap.String("to", request.To))

	return whatsapp.Response{}, lastErr
}
