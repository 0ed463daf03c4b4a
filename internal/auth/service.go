// Package auth manages principal credentials and request authentication.
// Credentials live in their own table keyed by email; the domain User and
// Librarian rows carry no authentication material.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrvaldes/biblioteca/internal/config"
	"github.com/mrvaldes/biblioteca/internal/entities"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrEmailRequired      = errors.New("email is required")
	ErrEmailInvalid       = errors.New("email must contain '@' symbol")
)

// Service handles credential management and authentication.
type Service struct {
	db     *gorm.DB
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{db: db, config: cfg}
}

// Provision creates or replaces the credential for an email. Called when a
// user or librarian is created with a password.
func (s *Service) Provision(email, password string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !strings.Contains(email, "@") {
		return ErrEmailInvalid
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return err
	}

	var credential entities.Credential
	err = s.db.Where("email = ?", email).First(&credential).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		credential = entities.Credential{Email: email, PasswordHash: passwordHash}
		if err := s.db.Create(&credential).Error; err != nil {
			return fmt.Errorf("failed to create credential: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check existing credential: %w", err)
	}

	credential.PasswordHash = passwordHash
	return s.db.Save(&credential).Error
}

// Login verifies the password and issues a fresh API token for the email.
// The previous token, if any, is invalidated.
func (s *Service) Login(email, password string) (string, error) {
	var credential entities.Credential
	err := s.db.Where("email = ?", email).First(&credential).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Burn a hash comparison so missing and wrong-password logins
		// take comparable time.
		_ = CheckPassword(password, "$2a$12$................................................")
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}

	if err := CheckPassword(password, credential.PasswordHash); err != nil {
		return "", ErrInvalidCredentials
	}

	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	credential.TokenHash = &hash
	if err := s.db.Save(&credential).Error; err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return plaintext, nil
}

// ValidateToken resolves an API token to the principal's email.
func (s *Service) ValidateToken(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	var credential entities.Credential
	err := s.db.Where("token_hash = ?", HashToken(token)).First(&credential).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up token: %w", err)
	}
	return credential.Email, nil
}

// RevokeToken invalidates the API token for an email. The stored hash goes
// back to NULL, the no-token state.
func (s *Service) RevokeToken(email string) error {
	return s.db.Model(&entities.Credential{}).
		Where("email = ?", email).
		Update("token_hash", nil).Error
}

// DeleteCredential removes the credential for an email, if any.
func (s *Service) DeleteCredential(email string) error {
	return s.db.Where("email = ?", email).Delete(&entities.Credential{}).Error
}

// HasCredentials reports whether any credential exists. Used at startup to
// hint that the first librarian still needs to be provisioned.
func (s *Service) HasCredentials() (bool, error) {
	var count int64
	if err := s.db.Model(&entities.Credential{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
