package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/meli/auth-server/internal/events"
	"github.com/meli/auth-server/internal/observability"
)

// AuditService turns auth events into log lines and outcome metrics.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleSuccess("login"))
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleFailure("login"))
	a.dispatcher.Subscribe(events.EventTokenValidated, a.handleSuccess("validate"))
	a.dispatcher.Subscribe(events.EventTokenRejected, a.handleFailure("validate"))
	a.dispatcher.Subscribe(events.EventTokenRefreshed, a.handleSuccess("refresh"))
	a.dispatcher.Subscribe(events.EventRefreshRejected, a.handleFailure("refresh"))
}

func (a *AuditService) handleSuccess(operation string) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		a.metrics.RecordOutcome(operation, "success")
		a.logger.Info(string(event.Type),
			zap.String("event_id", event.ID),
			zap.String("subject", event.Subject))
		return nil
	}
}

func (a *AuditService) handleFailure(operation string) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		a.metrics.RecordOutcome(operation, event.Code)
		a.logger.Warn(string(event.Type),
			zap.String("event_id", event.ID),
			zap.String("subject", event.Subject),
			zap.String("code", event.Code))
		return nil
	}
}
