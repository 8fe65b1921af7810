/**
 * @description
 * This file contains the user service. Its scope is deliberately small: it
 * creates users with PII encrypted through the injected codec and reads them
 * back with the email decrypted. Everything else treats users as existence
 * targets only.
 */
package app

import (
	"context"
	"log"
	"strings"

	"github.com/promopulse/promotion-service/internal/domain"
)

// UserRepository defines the persistence operations the service needs.
type UserRepository interface {
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// PIICodec encrypts and decrypts PII fields. The concrete codec fails fast at
// process startup when its key is absent or invalid.
type PIICodec interface {
	Encode(plaintext string) (string, error)
	Decode(ciphertext string) (string, error)
}

// UserService provides the business logic for user management.
type UserService struct {
	repo  UserRepository
	codec PIICodec
}

// NewUserService creates a new user service.
func NewUserService(repo UserRepository, codec PIICodec) *UserService {
	return &UserService{repo: repo, codec: codec}
}

func composeFullName(firstName, lastName string) string {
	return strings.TrimSpace(firstName + " " + lastName)
}

// Create encrypts the user's PII and persists the record. The response carries
// the plaintext email the caller supplied, never the stored ciphertext.
func (s *UserService) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.UserOut, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, domain.NewValidationError("email must not be empty")
	}
	fullName := composeFullName(req.FirstName, req.LastName)
	if fullName == "" {
		return nil, domain.NewValidationError("first_name or last_name must be provided")
	}

	encryptedEmail, err := s.codec.Encode(req.Email)
	if err != nil {
		return nil, domain.NewStorageError("encrypt email", err)
	}
	var encryptedPhone string
	if req.Phone != "" {
		if encryptedPhone, err = s.codec.Encode(req.Phone); err != nil {
			return nil, domain.NewStorageError("encrypt phone", err)
		}
	}

	log.Printf("level=info component=users msg=\"creating user\" full_name=%q", fullName)

	user, err := s.repo.CreateUser(ctx, &domain.User{
		EncryptedEmail: encryptedEmail,
		EncryptedPhone: encryptedPhone,
		FullName:       fullName,
	})
	if err != nil {
		return nil, err
	}

	return &domain.UserOut{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     req.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// Get retrieves a user and decrypts the email for the response.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.UserOut, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	email, err := s.codec.Decode(user.EncryptedEmail)
	if err != nil {
		return nil, domain.NewStorageError("decrypt email", err)
	}

	return &domain.UserOut{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     email,
		CreatedAt: user.CreatedAt,
	}, nil
}
