package middleware

import (
	"strconv"

	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// NewRateLimiter создаёт лимитер по строке формата ulule ("300-M", "10-S").
func NewRateLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit ограничивает частоту запросов по IP клиента.
func RateLimit(l *limiter.Limiter, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			lctx, err := l.Get(c.Request().Context(), key)
			if err != nil {
				// ошибка хранилища пропускает запрос
				logger.Error("RateLimit: ошибка хранилища лимитов", zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				logger.Warn("RateLimit: превышен лимит запросов", zap.String("ip", key))
				return utils.ErrorResponse(c, apperrors.ErrTooManyRequests, logger)
			}
			return next(c)
		}
	}
}
