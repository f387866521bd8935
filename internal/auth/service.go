package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"donationhub/internal/domain"
)

// Service authenticates donors and NGOs against the shared account store.
type Service struct {
	accounts domain.AccountRepository
	tokens   *Tokens
	logger   zerolog.Logger

	checkPassword func(hash, pw string) bool
}

func NewService(accounts domain.AccountRepository, tokens *Tokens, logger zerolog.Logger) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		logger:   logger.With().Str("component", "auth").Logger(),

		checkPassword: CheckPassword,
	}
}

// Session is the result of a successful login or signup.
type Session struct {
	Account domain.Account
	Token   string
}

// Login verifies the email and password. Unknown emails and wrong passwords
// both yield domain.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.checkPassword(dummyHash(), password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.checkPassword(account.PasswordHash, password) {
		s.logger.Info().Str("account_id", account.ID).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}
	return s.session(*account)
}

// DonorSignup is the registration form of an individual donor.
type DonorSignup struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Mobile    string
}

// NGOSignup is the registration form of an organization.
type NGOSignup struct {
	Name               string
	RegistrationNumber string
	Email              string
	Password           string
	Mobile             string
	Address            string
	ItemsAccepted      []string
}

func (s *Service) SignupDonor(ctx context.Context, in DonorSignup) (*Session, error) {
	var missing []string
	if strings.TrimSpace(in.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(in.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if err := validateCredentials(in.Email, in.Password, missing); err != nil {
		return nil, err
	}
	return s.register(ctx, domain.Account{
		Kind:      domain.AccountKindDonor,
		Email:     in.Email,
		Mobile:    strings.TrimSpace(in.Mobile),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}, in.Password)
}

func (s *Service) SignupNGO(ctx context.Context, in NGOSignup) (*Session, error) {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.RegistrationNumber) == "" {
		missing = append(missing, "registrationNumber")
	}
	if strings.TrimSpace(in.Address) == "" {
		missing = append(missing, "address")
	}
	if err := validateCredentials(in.Email, in.Password, missing); err != nil {
		return nil, err
	}
	var items []string
	for _, it := range in.ItemsAccepted {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	return s.register(ctx, domain.Account{
		Kind:               domain.AccountKindNGO,
		Email:              in.Email,
		Mobile:             strings.TrimSpace(in.Mobile),
		Name:               strings.TrimSpace(in.Name),
		RegistrationNumber: strings.TrimSpace(in.RegistrationNumber),
		Address:            strings.TrimSpace(in.Address),
		ItemsAccepted:      items,
	}, in.Password)
}

// ParseToken resolves a session token into its claims.
func (s *Service) ParseToken(raw string) (*Claims, error) {
	c, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return c, nil
}

// SetPassword replaces an account's password, used by the admin CLI.
func (s *Service) SetPassword(ctx context.Context, accountID, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.accounts.UpdatePasswordHash(ctx, accountID, hash)
}

func (s *Service) register(ctx context.Context, account domain.Account, password string) (*Session, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = hash
	if err := s.accounts.Create(ctx, &account); err != nil {
		return nil, err
	}
	s.logger.Info().Str("account_id", account.ID).Str("kind", string(account.Kind)).Msg("account registered")
	return s.session(account)
}

func (s *Service) session(account domain.Account) (*Session, error) {
	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	account.PasswordHash = ""
	return &Session{Account: account, Token: token}, nil
}

func validateCredentials(email, password string, missing []string) error {
	if strings.TrimSpace(email) == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	return validatePassword(password)
}
