package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"nananom-farms/site/internal/auth"
	"nananom-farms/site/internal/logger"
)

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}
	if req.Username == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Username and password are required")
	}

	sess, err := s.auth.Login(c.Request().Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrAccountLocked):
		// Do not disclose the lock duration.
		return fail(c, http.StatusForbidden, "Account temporarily locked due to too many failed attempts")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	case err != nil:
		logger.Errorf("login: %v", err)
		return fail(c, http.StatusInternalServerError, "Login error occurred")
	}

	s.setSessionCookie(c, sess)

	if req.RememberMe {
		token, err := s.auth.IssueRememberToken(sess.UserID)
		if err != nil {
			logger.Warnf("issuing remember token: %v", err)
		} else {
			c.SetCookie(&http.Cookie{
				Name:     rememberCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   s.cfg.Security.RememberMeDuration,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"user":    sess,
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		s.auth.Logout(cookie.Value)
	}
	s.clearCookie(c, sessionCookie)
	s.clearCookie(c, rememberCookie)
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"user":    currentSession(c),
	})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{
		"success": false,
		"message": message,
	})
}
