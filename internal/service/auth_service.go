package service

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"examly-backend/internal/model"
	"examly-backend/internal/repository"
)

// AuthService interface
type AuthService interface {
	Register(user *model.User) error
	Login(email, authhash string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
}

// NewAuthService initializes authentication service
func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

// hash256encode hashes a password using SHA-256
func hash256encode(password string) string {
	hasher := sha256.New()
	hasher.Write([]byte(password))
	return hex.EncodeToString(hasher.Sum(nil))
}

func (s *authService) Register(user *model.User) error {
	existingUser, err := s.userRepo.GetUserByEmail(user.Email)
	if err == nil && existingUser != nil {
		return errors.New("email already in use")
	}

	if user.Password == "" {
		return errors.New("password cannot be empty")
	}

	// The database only ever sees the SHA-256 digest, never the raw password.
	user.Password = hash256encode(user.Password)

	if err := s.userRepo.CreateUser(user); err != nil {
		return errors.New("failed to store user in database")
	}
	return nil
}

// Login authenticates against a client-supplied authhash: a base64 bcrypt hash
// of "email::sha256(password)". The server never receives the raw password.
func (s *authService) Login(email, authhash string) (*model.User, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, errors.New("user not found")
	}

	concatenated := email + "::" + user.Password

	bcryptBytes, err := base64.StdEncoding.DecodeString(authhash)
	if err != nil {
		return nil, errors.New("invalid authhash format")
	}

	if err := bcrypt.CompareHashAndPassword(bcryptBytes, []byte(concatenated)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	user.Password = ""
	return user, nil
}
