package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"nananom-farms/site/internal/model"
	"nananom-farms/site/internal/store"
)

// Remember-me tokens are signed HS256 tokens carrying the user id. The
// original site set an opaque cookie but never finished validating it;
// here redemption re-checks the account before minting a fresh session.

func (s *Service) IssueRememberToken(userID int64) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": fmt.Sprint(userID),
		"exp": now.Add(s.security.RememberMeDurationDuration()).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.tokenKey)
}

// RedeemRememberToken validates the token and, if the account is still
// active, starts a new session for it.
func (s *Service) RedeemRememberToken(ctx context.Context, tokenStr string) (*Session, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.tokenKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidCredentials
	}

	rec, err := s.store.SelectOne(ctx, usersCollection, store.Conditions{
		"id":     sub,
		"status": model.UserStatusActive,
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	user := model.UserFromRecord(rec)
	if s.isLocked(user) {
		return nil, ErrAccountLocked
	}
	return s.sessions.create(user, s.now()), nil
}
