package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"nananom-farms/site/internal/auth"
	"nananom-farms/site/internal/logger"
	"nananom-farms/site/internal/model"
)

const (
	sessionCookie  = "session_id"
	rememberCookie = "remember_token"
	sessionCtxKey  = "session"
)

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		req := c.Request()
		logger.WithFields(map[string]any{
			"method":   req.Method,
			"uri":      req.RequestURI,
			"status":   c.Response().Status,
			"duration": time.Since(start).String(),
		}).Info("request")
		return err
	}
}

// sessionMiddleware resolves the session cookie, falling back to the
// remember-me token when the session has expired or the process restarted.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cookie, err := c.Cookie(sessionCookie); err == nil {
			if sess, ok := s.auth.CurrentUser(cookie.Value); ok {
				c.Set(sessionCtxKey, sess)
				return next(c)
			}
		}

		if cookie, err := c.Cookie(rememberCookie); err == nil && cookie.Value != "" {
			sess, err := s.auth.RedeemRememberToken(c.Request().Context(), cookie.Value)
			if err == nil {
				s.setSessionCookie(c, sess)
				c.Set(sessionCtxKey, sess)
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Authentication required",
		})
	}
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := currentSession(c)
		if sess == nil || sess.Role != model.RoleAdmin {
			return c.JSON(http.StatusForbidden, map[string]any{
				"success": false,
				"message": "Access denied",
			})
		}
		return next(c)
	}
}

func currentSession(c echo.Context) *auth.Session {
	sess, _ := c.Get(sessionCtxKey).(*auth.Session)
	return sess
}

func (s *Server) setSessionCookie(c echo.Context, sess *auth.Session) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   s.cfg.Security.SessionTimeout,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
