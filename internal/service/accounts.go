package service

import (
	"context"
	"errors"
	"fmt"
	"marketplace/internal/domain"
	"marketplace/internal/store"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past 72 bytes, longer passwords are rejected
const maxPasswordBytes = 72

// Accounts registers and authenticates admins and users. Both roles share
// a single username key space.
type Accounts struct {
	store store.Store
	cost  int
}

type credentials struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required"`
}

// NewAccounts returns an account manager hashing with the given bcrypt cost
func NewAccounts(s store.Store, bcryptCost int) *Accounts {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Accounts{store: s, cost: bcryptCost}
}

// RegisterUser creates a buyer account
func (a *Accounts) RegisterUser(ctx context.Context, username, password string) (*domain.User, error) {
	return a.register(ctx, username, password, domain.RoleUser)
}

// RegisterAdmin creates a seller account
func (a *Accounts) RegisterAdmin(ctx context.Context, username, password string) (*domain.User, error) {
	return a.register(ctx, username, password, domain.RoleAdmin)
}

func (a *Accounts) register(ctx context.Context, username, password, role string) (*domain.User, error) {
	if err := checkStruct(credentials{Username: username, Password: password}); err != nil {
		return nil, err
	}
	if len(password) > maxPasswordBytes {
		return nil, invalid("Password must be at most %d bytes", maxPasswordBytes)
	}

	if _, err := a.store.FindUserByName(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateUsername, username)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{Username: username, PasswordHash: string(hash), Role: role}
	if err := a.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost a race with a concurrent registration
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateUsername, username)
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"username": username,
		"role":     role,
	}).Info("Account registered")
	return user, nil
}

// Authenticate checks a login attempt for the given role. An unknown
// username, or one registered under the other role, yields domain.ErrNotFound;
// a wrong password yields domain.ErrInvalidCredentials.
func (a *Accounts) Authenticate(ctx context.Context, role, username, password string) (*domain.User, error) {
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return nil, invalid("unknown role %q", role)
	}
	user, err := a.store.FindUserByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Role != role {
		return nil, fmt.Errorf("%w: no %s account named %s", domain.ErrNotFound, role, username)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logrus.WithField("username", username).Warn("Failed login")
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// FindUser returns the stored account
func (a *Accounts) FindUser(ctx context.Context, username string) (*domain.User, error) {
	return a.store.FindUserByName(ctx, username)
}

// BootstrapAdmin seeds the configured admin at start-up. An empty username
// skips seeding with a warning, since admin routes need an admin token.
func (a *Accounts) BootstrapAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		logrus.Warn("ADMIN_USERNAME is not set; admin routes are only reachable with an admin account created earlier")
		return nil
	}
	return a.EnsureAdmin(ctx, username, password)
}

// EnsureAdmin creates the bootstrap admin unless it already exists
func (a *Accounts) EnsureAdmin(ctx context.Context, username, password string) error {
	existing, err := a.store.FindUserByName(ctx, username)
	switch {
	case err == nil && existing.IsAdmin():
		return nil
	case err == nil:
		return fmt.Errorf("%w: %s is registered as a %s", domain.ErrDuplicateUsername, username, existing.Role)
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}
	_, err = a.RegisterAdmin(ctx, username, password)
	return err
}
