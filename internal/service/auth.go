// internal/service/auth.go
package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"labeleven-back/internal/apperr"
	"labeleven-back/internal/auth"
	"labeleven-back/internal/models"
)

type AuthService struct {
	db     *gorm.DB
	tokens *auth.TokenProvider
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenProvider) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

type LoginResult struct {
	AccessToken string `json:"accessToken"`
	UserID      uint   `json:"userId"`
	Username    string `json:"username"`
}

type RegisterResult struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.InvalidCredential("invalid password")
	}

	token, err := s.tokens.CreateToken(user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken: token,
		UserID:      user.ID,
		Username:    user.Username,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.Conflict("email already registered")
	}
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.Conflict("username already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     "USER",
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &RegisterResult{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// UsernameAvailable reports whether no user holds the given username.
func (s *AuthService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// EmailAvailable reports whether no user holds the given email.
func (s *AuthService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// CurrentUser resolves the authenticated token subject to its user row.
func (s *AuthService) CurrentUser(ctx context.Context, email string) (*models.User, error) {
	return findUserByEmail(ctx, s.db, email)
}
