package auth

import (
	"context"
	"errors"

	"curator/internal/core"
	"curator/internal/models"
	"curator/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = store.ErrDuplicateEmail
)

// Demo account seeded on first start
const (
	DemoName     = "Demo User"
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo123"
)

// AccountStore is the slice of the profile store the service needs
type AccountStore interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	FindAccount(ctx context.Context, email string) (models.Account, bool, error)
	AddAccount(ctx context.Context, account models.Account) error
}

// SignInInput is the sign-in form
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput is the sign-up form
type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Service provides account registration and credential checks
type Service struct {
	accounts AccountStore
	logger   *core.Logger
	cost     int
}

// NewService creates a new authentication service
func NewService(accounts AccountStore, logger *core.Logger, config *core.Config) *Service {
	return &Service{
		accounts: accounts,
		logger:   logger.ForFeature("auth"),
		cost:     config.Auth.BcryptCost,
	}
}

// Register validates the form and creates an account
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.UserProfile, error) {
	in.Email = NormalizeEmail(in.Email)

	v := NewValidator()
	if ValidateRegistration(v, in); !v.Valid() {
		return models.UserProfile{}, core.NewValidationError("Please correct the highlighted fields", v.Errors)
	}

	var password Password
	if err := password.Set(in.Password, s.cost); err != nil {
		return models.UserProfile{}, core.NewInternalError("failed to hash password", err)
	}

	account := models.Account{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: password.Hash(),
	}
	if err := s.accounts.AddAccount(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return models.UserProfile{}, core.NewAuthError("email", "An account with this email already exists", err)
		}
		return models.UserProfile{}, err
	}

	s.logger.Info("Registered account", "email", account.Email)
	return profileOf(account), nil
}

// Authenticate checks email and password against the stored accounts
func (s *Service) Authenticate(ctx context.Context, in SignInInput) (models.UserProfile, error) {
	in.Email = NormalizeEmail(in.Email)

	v := NewValidator()
	if ValidateSignIn(v, in); !v.Valid() {
		return models.UserProfile{}, core.NewValidationError("Please correct the highlighted fields", v.Errors)
	}

	account, ok, err := s.accounts.FindAccount(ctx, in.Email)
	if err != nil {
		return models.UserProfile{}, err
	}
	if !ok {
		return models.UserProfile{}, invalidCredentials()
	}

	password := PasswordFromHash(account.PasswordHash)
	match, err := password.Matches(in.Password)
	if err != nil {
		return models.UserProfile{}, core.NewInternalError("failed to verify password", err)
	}
	if !match {
		return models.UserProfile{}, invalidCredentials()
	}

	return profileOf(account), nil
}

// SeedDemoAccount creates the demo account when it is missing
func (s *Service) SeedDemoAccount(ctx context.Context) error {
	_, ok, err := s.accounts.FindAccount(ctx, DemoEmail)
	if err != nil || ok {
		return err
	}

	_, err = s.Register(ctx, RegisterInput{
		Name:            DemoName,
		Email:           DemoEmail,
		Password:        DemoPassword,
		ConfirmPassword: DemoPassword,
	})
	return err
}

// Accounts lists registered accounts without their hashes
func (s *Service) Accounts(ctx context.Context) ([]models.UserProfile, error) {
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.UserProfile, 0, len(accounts))
	for _, account := range accounts {
		profiles = append(profiles, profileOf(account))
	}
	return profiles, nil
}

func invalidCredentials() error {
	return core.NewAuthError("password", "Invalid email or password", ErrInvalidCredentials)
}

func profileOf(account models.Account) models.UserProfile {
	return models.UserProfile{
		Name:  account.Name,
		Email: account.Email,
	}
}
