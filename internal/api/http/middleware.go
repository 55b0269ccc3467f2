package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/meli/auth-server/internal/observability"
	apperrors "github.com/meli/auth-server/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares. Order matters: the trace
// id is assigned first and the request logger wraps the error handler so it
// sees the final status.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.TraceMiddleware())
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics, time.Now))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)

				fields := []zap.Field{
					zap.String("code", domainErr.Code),
					zap.String("kind", string(domainErr.Kind)),
					zap.String("path", c.Path()),
					zap.String("trace_id", observability.TraceID(c)),
				}
				if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
					logger.Error("request failed", append(fields, zap.Error(domainErr))...)
				} else {
					logger.Info("request rejected", append(fields, zap.String("message", domainErr.Message))...)
				}

				envelope := apperrors.NewEnvelope(domainErr, c.Path(), observability.TraceID(c), now())
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(envelope)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also folds fiber's own errors (unknown route, bad method) into the taxonomy.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		kind := apperrors.KindValidationFailed
		if fiberErr.Code >= fiber.StatusInternalServerError {
			kind = apperrors.KindInternalFailure
		}
		return &apperrors.DomainError{
			Kind:       kind,
			Code:       "HTTP_" + strconv.Itoa(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
			Err:        err,
		}
	}
	return apperrors.ToDomainError(err)
}
