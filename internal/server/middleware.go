package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"llama-arcade/internal/auth"
	"llama-arcade/internal/config"
	"llama-arcade/internal/handler"
	"llama-arcade/internal/model"
	"llama-arcade/internal/service"
)

// HeaderReferralCode carries the inviter's code on a user's first request.
const HeaderReferralCode = "X-Referral-Code"

// UserEnsurer creates or refreshes the caller's account.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, p model.Profile, referralCode string) (*model.User, bool, error)
}

// AuthMiddleware verifies the bearer token and makes sure the caller has an
// account. A referral code is honoured only when the account is created.
func AuthMiddleware(verifier auth.Verifier, users UserEnsurer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			ctx := c.Request().Context()
			profile, err := verifier.Verify(ctx, token)
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("Rejected token")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			ref := c.Request().Header.Get(HeaderReferralCode)
			if ref == "" {
				ref = c.QueryParam("ref")
			}

			user, _, err := users.EnsureUser(ctx, *profile, ref)
			if err != nil {
				return err
			}

			handler.SetUserID(c, user.ID)
			return next(c)
		}
	}
}

// AdminMiddleware rejects callers that are not configured admins.
func AdminMiddleware(cfg *config.AdminConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := handler.UserID(c)
			if !cfg.IsAdmin(userID) {
				log.Warn().
					Str("user_id", userID).
					Str("path", c.Path()).
					Msg("Non-admin attempted admin operation")
				return service.ErrForbidden
			}
			return next(c)
		}
	}
}

// LoggingMiddleware logs every request once the response is written.
func LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			logEvent := log.Info()
			if res.Status >= http.StatusInternalServerError {
				logEvent = log.Error()
			}
			if userID := handler.UserID(c); userID != "" {
				logEvent = logEvent.Str("user_id", userID)
			}
			logEvent.
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int64("bytes", res.Size).
				Dur("latency", time.Since(start)).
				Msg("Handled request")

			return nil
		}
	}
}

// RecoveryMiddleware turns a panic into a 500 response.
func RecoveryMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("path", c.Path()).
						Msg("Recovered from panic in handler")
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(c)
		}
	}
}
