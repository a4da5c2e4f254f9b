package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"happy-hearts-pos/pos-svc/internal/domain"

	"github.com/google/uuid"
)

const (
	AdminCredentialsKey = "adminCredentials"
	StaffAccountsKey    = "staffAccounts"
	AdminSessionKey     = "adminSession"
	StaffSessionKey     = "staffSession"

	minUsernameLen = 3
	minPasswordLen = 4
)

// Identity holds the admin credential, staff accounts and the current
// session per role. Passwords are stored and compared in plaintext and
// sessions never expire; this is not a security boundary.
type Identity struct {
	origin Origin
	log    *slog.Logger
	Now    func() time.Time
}

func NewIdentity(origin Origin, log *slog.Logger) *Identity {
	if log == nil {
		log = slog.Default()
	}
	return &Identity{origin: origin, log: log, Now: systemNow}
}

// EnsureAdmin provisions the default admin credential on first run.
func (s *Identity) EnsureAdmin(ctx context.Context) (domain.AdminCredential, error) {
	var cred domain.AdminCredential
	ok, err := loadDocument(ctx, s.origin, AdminCredentialsKey, &cred)
	if err != nil {
		return domain.AdminCredential{}, err
	}
	if ok && cred.Username != "" {
		return cred, nil
	}
	cred = domain.AdminCredential{Username: domain.DefaultAdminUsername, Password: domain.DefaultAdminPassword}
	if err := saveDocument(ctx, s.origin, s.log, AdminCredentialsKey, cred); err != nil {
		return domain.AdminCredential{}, err
	}
	s.log.Info("provisioned default admin credential")
	return cred, nil
}

func (s *Identity) AdminLogin(ctx context.Context, username, password string) (*domain.Session, error) {
	cred, err := s.EnsureAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if username != cred.Username || password != cred.Password {
		if err := removeDocument(ctx, s.origin, s.log, AdminSessionKey); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, AdminSessionKey, domain.RoleAdmin, username)
}

func (s *Identity) AdminLogout(ctx context.Context) error {
	return removeDocument(ctx, s.origin, s.log, AdminSessionKey)
}

func (s *Identity) IsAdminAuthenticated(ctx context.Context) (bool, error) {
	session, err := s.session(ctx, AdminSessionKey)
	if err != nil {
		return false, err
	}
	return session != nil && session.Role == domain.RoleAdmin, nil
}

func (s *Identity) AdminSession(ctx context.Context) (*domain.Session, error) {
	return s.session(ctx, AdminSessionKey)
}

func (s *Identity) ChangeAdminPassword(ctx context.Context, current, next, confirm string) error {
	cred, err := s.EnsureAdmin(ctx)
	if err != nil {
		return err
	}
	if current != cred.Password {
		return ErrPasswordMismatch
	}
	if len(next) < minPasswordLen {
		return ErrPasswordTooShort
	}
	if next != confirm {
		return ErrPasswordConfirmation
	}
	cred.Password = next
	if err := saveDocument(ctx, s.origin, s.log, AdminCredentialsKey, cred); err != nil {
		return err
	}
	s.log.Info("admin password changed")
	return nil
}

// Signup creates a staff account and logs it in. Lengths are checked on the
// trimmed input but the credentials are stored as typed, so StaffLogin
// matches them exactly.
func (s *Identity) Signup(ctx context.Context, username, password string) (*domain.Session, error) {
	if len(strings.TrimSpace(username)) < minUsernameLen || len(strings.TrimSpace(password)) < minPasswordLen {
		return nil, ErrCredentialsTooShort
	}

	accounts, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, acc := range accounts {
		if acc.Username == username {
			return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
		}
	}
	accounts = append(accounts, domain.StaffAccount{Username: username, Password: password})
	if err := saveDocument(ctx, s.origin, s.log, StaffAccountsKey, accounts); err != nil {
		return nil, err
	}
	s.log.Info("staff account created", "username", username)
	return s.issue(ctx, StaffSessionKey, domain.RoleStaff, username)
}

func (s *Identity) StaffLogin(ctx context.Context, username, password string) (*domain.Session, error) {
	accounts, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, acc := range accounts {
		if acc.Username == username && acc.Password == password {
			return s.issue(ctx, StaffSessionKey, domain.RoleStaff, username)
		}
	}
	return nil, ErrInvalidCredentials
}

func (s *Identity) StaffLogout(ctx context.Context) error {
	return removeDocument(ctx, s.origin, s.log, StaffSessionKey)
}

// CurrentStaff returns the logged-in staff username, if any.
func (s *Identity) CurrentStaff(ctx context.Context) (string, bool, error) {
	session, err := s.session(ctx, StaffSessionKey)
	if err != nil || session == nil {
		return "", false, err
	}
	return session.Username, true, nil
}

// ListStaff returns the accounts with passwords blanked.
func (s *Identity) ListStaff(ctx context.Context) ([]domain.StaffAccount, error) {
	accounts, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.StaffAccount, len(accounts))
	for i, acc := range accounts {
		out[i] = domain.StaffAccount{Username: acc.Username}
	}
	return out, nil
}

// DeleteStaff removes a staff account. It needs an admin session.
func (s *Identity) DeleteStaff(ctx context.Context, username string) error {
	ok, err := s.IsAdminAuthenticated(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}

	accounts, err := s.accounts(ctx)
	if err != nil {
		return err
	}
	kept := accounts[:0]
	found := false
	for _, acc := range accounts {
		if acc.Username == username {
			found = true
			continue
		}
		kept = append(kept, acc)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrStaffNotFound, username)
	}
	if err := saveDocument(ctx, s.origin, s.log, StaffAccountsKey, kept); err != nil {
		return err
	}
	s.log.Info("staff account deleted", "username", username)
	return nil
}

func (s *Identity) accounts(ctx context.Context) ([]domain.StaffAccount, error) {
	accounts := []domain.StaffAccount{}
	if _, err := loadDocument(ctx, s.origin, StaffAccountsKey, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Identity) issue(ctx context.Context, key string, role domain.Role, username string) (*domain.Session, error) {
	session := &domain.Session{
		Token:    uuid.NewString(),
		Role:     role,
		Username: username,
		IssuedAt: s.Now(),
	}
	if err := saveDocument(ctx, s.origin, s.log, key, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Identity) session(ctx context.Context, key string) (*domain.Session, error) {
	var session domain.Session
	ok, err := loadDocument(ctx, s.origin, key, &session)
	if err != nil || !ok {
		return nil, err
	}
	return &session, nil
}
