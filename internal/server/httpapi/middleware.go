package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/logging"
	"github.com/dmitrijs2005/branchkeeper/internal/server/auth"
	"github.com/labstack/echo/v4"
)

const accountIDKey = "account_id"

// bearerAuth validates "Authorization: Bearer <jwt>" and stores the account
// id in the echo context.
func bearerAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return writeError(c, common.ErrorUnauthorized, nil)
			}
			raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

			accountID, err := auth.GetAccountIDFromToken(raw, secret)
			if err != nil {
				return writeError(c, err, nil)
			}

			c.Set(accountIDKey, accountID)
			return next(c)
		}
	}
}

func caller(c echo.Context) string {
	if v, ok := c.Get(accountIDKey).(string); ok {
		return v
	}
	return ""
}

func requestLogger(l logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			args := []any{
				"method", req.Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"duration", time.Since(start),
			}
			if id := caller(c); id != "" {
				args = append(args, "account", id)
			}
			if c.Response().Status >= http.StatusInternalServerError {
				l.Warn(req.Context(), "request failed", args...)
			} else {
				l.Debug(req.Context(), "request", args...)
			}
			return nil
		}
	}
}

// httpErrorHandler renders errors that escaped the handlers, such as
// routing misses, in the same {"err": ...} shape.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		_ = c.JSON(he.Code, errorBody{Err: msg})
		return
	}
	_ = writeError(c, err, nil)
}
