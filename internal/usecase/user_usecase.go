package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var _ domain.UserUseCase = (*UserUseCase)(nil)

const invalidCredentials = "Invalid email or password"

type UserUseCase struct {
	userRepo domain.UserRepository
	log      *logrus.Logger
}

func NewUserUseCase(repo domain.UserRepository, logger *logrus.Logger) *UserUseCase {
	return &UserUseCase{
		userRepo: repo,
		log:      logger,
	}
}

// RegisterUser validates input, hashes the password and stores the user.
// Duplicate emails are rejected by the repository's unique constraint.
func (uc *UserUseCase) RegisterUser(ctx context.Context, name, email, phone, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	uc.log.Infof("Use Case: Attempting registration for email: %s", email)

	if name == "" {
		uc.log.Warn("Use Case: Registration failed - empty name")
		return nil, domain.Validation("user name cannot be empty")
	}
	if !isValidEmail(email) {
		uc.log.Warnf("Use Case: Registration failed - invalid email format: %s", email)
		return nil, domain.Validation("invalid email format")
	}
	if phone != "" && !isValidPhone(phone) {
		uc.log.Warnf("Use Case: Registration failed - invalid phone for %s", email)
		return nil, domain.Validation("phone must be in international format, e.g. +2348012345678")
	}
	if err := validatePassword(password); err != nil {
		uc.log.Warnf("Use Case: Registration failed - password validation error: %v", err)
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to hash password for %s: %v", email, err)
		return nil, domain.Internal(err, "could not process password")
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hashedPassword),
	}
	if err := uc.userRepo.CreateUser(ctx, user); err != nil {
		uc.log.Errorf("Use Case: Repository failed to create user %s: %v", email, err)
		return nil, err
	}

	uc.log.Infof("Use Case: User registered successfully. ID: %d, Email: %s", user.ID, user.Email)
	return user, nil
}

// AuthenticateUser reports a failed login as an unauthenticated result, not
// an error. Errors are reserved for store failures.
func (uc *UserUseCase) AuthenticateUser(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	uc.log.Infof("Use Case: Attempting authentication for email: %s", email)

	if !isValidEmail(email) || password == "" {
		return &domain.AuthResult{ErrorMessage: invalidCredentials}, nil
	}

	user, err := uc.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			uc.log.Warnf("Use Case: Auth failed - user not found: %s", email)
			return &domain.AuthResult{ErrorMessage: invalidCredentials}, nil
		}
		uc.log.Errorf("Use Case: Error retrieving user %s during auth: %v", email, err)
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			uc.log.Warnf("Use Case: Auth failed - incorrect password for user ID %d", user.ID)
			return &domain.AuthResult{ErrorMessage: invalidCredentials}, nil
		}
		uc.log.Errorf("Use Case: Error comparing password hash for user ID %d: %v", user.ID, err)
		return nil, domain.Internal(err, "authentication failed")
	}

	uc.log.Infof("Use Case: Authentication successful for user ID %d", user.ID)
	return &domain.AuthResult{
		Authenticated: true,
		UserID:        user.ID,
		Token:         uuid.NewString(),
	}, nil
}

func (uc *UserUseCase) GetUserProfile(ctx context.Context, id int64) (*domain.User, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Get profile failed - invalid user ID: %d", id)
		return nil, domain.Validation("invalid user ID")
	}

	user, err := uc.userRepo.GetUserByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get user profile for ID %d: %v", id, err)
		return nil, err
	}
	return user, nil
}

func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	domainParts := strings.Split(parts[1], ".")
	return len(domainParts) >= 2 && domainParts[0] != "" && domainParts[len(domainParts)-1] != ""
}

func isValidPhone(phone string) bool {
	if !strings.HasPrefix(phone, "+") {
		return false
	}
	digits := phone[1:]
	if len(digits) < 8 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return domain.Validation("password must be at least 8 characters long")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if !hasUpper {
		return domain.Validation("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return domain.Validation("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return domain.Validation("password must contain at least one digit")
	}
	return nil
}
