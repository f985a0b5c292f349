package service

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/project-planner/internal/config"
	"github.com/spec-kit/project-planner/internal/events"
)

// AuditService records domain events and forwards them to the configured webhook.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AuditConfig
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every published event type.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	a.logger.Info("audit",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject", event.Subject),
		zap.String("actor", event.Actor),
		zap.Any("payload", event.Payload))
	a.deliverWebhook(event)
	return nil
}

// deliverWebhook POSTs the event as JSON. Failures are logged; the write that
// produced the event has already happened.
func (a *AuditService) deliverWebhook(event events.Event) {
	if a.cfg.WebhookURL == "" {
		return
	}

	status, _, errs := fiber.Post(a.cfg.WebhookURL).
		Timeout(a.cfg.WebhookTimeout()).
		JSON(event).
		Bytes()
	if len(errs) > 0 {
		a.logger.Warn("audit webhook failed",
			zap.String("event_id", event.ID),
			zap.String("url", a.cfg.WebhookURL),
			zap.Error(errors.Join(errs...)))
		return
	}
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		a.logger.Warn("audit webhook rejected event",
			zap.String("event_id", event.ID),
			zap.String("url", a.cfg.WebhookURL),
			zap.Int("status", status))
		return
	}
	a.logger.Debug("audit webhook delivered", zap.String("event_id", event.ID), zap.Int("status", status))
}
