package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"nananom-farms/site/internal/config"
	"nananom-farms/site/internal/logger"
	"nananom-farms/site/internal/model"
	"nananom-farms/site/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountLocked      = errors.New("account_locked")
	ErrDuplicateUsername  = errors.New("duplicate_username")
	ErrDuplicateEmail     = errors.New("duplicate_email")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrProtectedAccount   = errors.New("protected_account")
)

const usersCollection = "users"

// Service layers credential verification, session lifecycle and the
// lockout policy on top of the record store's users collection.
type Service struct {
	store    store.Store
	admin    config.AdminDefaults
	password config.PasswordRequirements
	security config.Security

	sessions *sessionTable
	tokenKey []byte
	now      func() time.Time
}

func New(ctx context.Context, cfg config.Config, st store.Store) (*Service, error) {
	key := []byte(cfg.Security.TokenSecret)
	if len(key) == 0 {
		// No configured secret: remember-me tokens stay valid only for the
		// lifetime of this process.
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate token key: %w", err)
		}
	}

	s := &Service{
		store:    st,
		admin:    cfg.Admin,
		password: cfg.Password,
		security: cfg.Security,
		sessions: newSessionTable(),
		tokenKey: key,
		now:      time.Now,
	}

	if err := s.bootstrap(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// bootstrap creates the default administrator the first time the service
// sees an empty users collection. The default credentials are expected to
// be rotated right after installation.
func (s *Service) bootstrap(ctx context.Context) error {
	users, err := s.store.Query(ctx, usersCollection)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if len(users) > 0 {
		return nil
	}

	hash, err := hashPassword(s.admin.Password)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	_, err = s.store.Insert(ctx, usersCollection, map[string]any{
		"username":       s.admin.Username,
		"password_hash":  hash,
		"email":          s.admin.Email,
		"first_name":     s.admin.FirstName,
		"last_name":      s.admin.LastName,
		"role":           model.RoleAdmin,
		"status":         model.UserStatusActive,
		"login_attempts": 0,
	})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	logger.Infof("created default admin account %q", s.admin.Username)
	return nil
}

// Login verifies credentials against the active user with that username.
// Failures deliberately do not reveal whether the username existed.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	rec, err := s.store.SelectOne(ctx, usersCollection, store.Conditions{
		"username": username,
		"status":   model.UserStatusActive,
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

	if !checkPassword(user.PasswordHash, password) {
		if err := s.recordFailedAttempt(ctx, user); err != nil {
			logger.Warnf("recording failed login for %q: %v", username, err)
		}
		return nil, ErrInvalidCredentials
	}

	if _, err := s.store.Update(ctx, usersCollection, store.Conditions{"id": user.ID}, map[string]any{
		"login_attempts": 0,
		"locked_until":   nil,
		"last_login":     store.Timestamp(s.now()),
	}); err != nil {
		return nil, err
	}

	return s.sessions.create(user, s.now()), nil
}

// isLocked holds while the attempts counter has reached the threshold and
// the unlock timer has not elapsed. Evaluated lazily at login time.
func (s *Service) isLocked(user model.User) bool {
	if int(user.LoginAttempts) < s.security.MaxLoginAttempts {
		return false
	}
	if user.LockedUntil == "" {
		return false
	}
	until, err := time.ParseInLocation(store.TimeLayout, user.LockedUntil, time.Local)
	if err != nil {
		return false
	}
	return s.now().Before(until)
}

func (s *Service) recordFailedAttempt(ctx context.Context, user model.User) error {
	attempts := user.LoginAttempts + 1
	fields := map[string]any{
		"login_attempts": attempts,
		"locked_until":   nil,
	}
	if int(attempts) >= s.security.MaxLoginAttempts {
		fields["locked_until"] = store.Timestamp(s.now().Add(s.security.LockDurationDuration()))
	}
	_, err := s.store.Update(ctx, usersCollection, store.Conditions{"id": user.ID}, fields)
	return err
}

// Logout destroys the session. Unknown ids are a no-op.
func (s *Service) Logout(sessionID string) {
	s.sessions.delete(sessionID)
}

// IsLoggedIn reports whether the session exists and has not outlived the
// configured timeout since login. Expired sessions are destroyed here, not
// by a background sweep.
func (s *Service) IsLoggedIn(sessionID string) bool {
	sess, ok := s.sessions.get(sessionID)
	if !ok {
		return false
	}
	if s.now().Sub(sess.LoginTime) > s.security.SessionTimeoutDuration() {
		s.sessions.delete(sessionID)
		return false
	}
	return true
}

func (s *Service) CurrentUser(sessionID string) (*Session, bool) {
	if !s.IsLoggedIn(sessionID) {
		return nil, false
	}
	return s.sessions.get(sessionID)
}

func (s *Service) HasRole(sessionID, role string) bool {
	sess, ok := s.CurrentUser(sessionID)
	return ok && sess.Role == role
}

type CreateUserParams struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// CreateUser inserts a new active account. Username and email must be
// unique (exact, case-sensitive comparison); deduplication lives here
// because the store never raises duplicate-key errors.
func (s *Service) CreateUser(ctx context.Context, p CreateUserParams) (model.User, error) {
	if _, err := s.store.SelectOne(ctx, usersCollection, store.Conditions{"username": p.Username}); err == nil {
		return model.User{}, ErrDuplicateUsername
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.User{}, err
	}
	if _, err := s.store.SelectOne(ctx, usersCollection, store.Conditions{"email": p.Email}); err == nil {
		return model.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.User{}, err
	}

	if err := validatePassword(p.Password, s.password); err != nil {
		return model.User{}, err
	}
	hash, err := hashPassword(p.Password)
	if err != nil {
		return model.User{}, err
	}

	role := p.Role
	if role == "" {
		role = model.RoleSupport
	}

	rec, err := s.store.Insert(ctx, usersCollection, map[string]any{
		"username":       p.Username,
		"password_hash":  hash,
		"email":          p.Email,
		"first_name":     p.FirstName,
		"last_name":      p.LastName,
		"role":           role,
		"status":         model.UserStatusActive,
		"login_attempts": 0,
	})
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromRecord(rec), nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, newPassword string) error {
	if err := validatePassword(newPassword, s.password); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	count, err := s.store.Update(ctx, usersCollection, store.Conditions{"id": userID}, map[string]any{
		"password_hash":  hash,
		"login_attempts": 0,
		"locked_until":   nil,
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Service) UpdateUserStatus(ctx context.Context, userID int64, status string) error {
	if status != model.UserStatusActive && status != model.UserStatusInactive {
		return ErrInvalidStatus
	}
	count, err := s.store.Update(ctx, usersCollection, store.Conditions{"id": userID}, map[string]any{
		"status": status,
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteUser refuses to remove the reserved default admin account.
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Username == s.admin.Username {
		return ErrProtectedAccount
	}
	_, err = s.store.Delete(ctx, usersCollection, store.Conditions{"id": userID})
	return err
}

// ResetLoginAttempts is the explicit administrative unlock.
func (s *Service) ResetLoginAttempts(ctx context.Context, userID int64) error {
	count, err := s.store.Update(ctx, usersCollection, store.Conditions{"id": userID}, map[string]any{
		"login_attempts": 0,
		"locked_until":   nil,
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Service) GetAllUsers(ctx context.Context) ([]model.User, error) {
	records, err := s.store.Select(ctx, usersCollection, nil, store.SelectOptions{
		OrderBy: &store.OrderBy{Field: "username"},
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(records))
	for _, rec := range records {
		out = append(out, model.UserFromRecord(rec))
	}
	return out, nil
}

func (s *Service) GetUserByID(ctx context.Context, userID int64) (model.User, error) {
	rec, err := s.store.SelectOne(ctx, usersCollection, store.Conditions{"id": userID})
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromRecord(rec), nil
}
