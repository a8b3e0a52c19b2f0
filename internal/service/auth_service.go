package service

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"gately-be/internal/jwt"
	"gately-be/internal/models"
	"gately-be/internal/repository"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(req *models.RegisterRequest) (*models.RegisterResponse, error)
	Login(req *models.LoginRequest) (*models.AuthResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *jwt.JWTService
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, jwtService *jwt.JWTService) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

const referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const referralCodeLength = 8

// generateReferralCode draws a short upper-case code for sharing
func generateReferralCode() (string, error) {
	bytes := make([]byte, referralCodeLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	code := make([]byte, referralCodeLength)
	for i, b := range bytes {
		code[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return string(code), nil
}

// Register creates a new user account, linking it to a referrer when a valid
// referral code is supplied. An unknown code is ignored, not an error.
func (s *authService) Register(req *models.RegisterRequest) (*models.RegisterResponse, error) {
	existingUser, err := s.userRepo.FindByEmail(req.Email)
	if err == nil && existingUser != nil {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var referredBy *string
	if req.ReferralCode != nil && *req.ReferralCode != "" {
		referrer, err := s.userRepo.FindByReferralCode(*req.ReferralCode)
		if err == nil {
			referredBy = &referrer.ID
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to resolve referral code: %w", err)
		}
	}

	referralCode, err := generateReferralCode()
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(repository.CreateUserParams{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		ReferralCode: referralCode,
		ReferredBy:   referredBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.RegisterResponse{
		Message: "User registered successfully",
		User: models.AuthResponse{
			UserID:       user.ID,
			Email:        user.Email,
			Name:         user.Name,
			ReferralCode: user.ReferralCode,
			CreatedAt:    user.CreatedAt,
			Token:        token,
		},
	}, nil
}

// Login authenticates a user and returns user info with JWT token
func (s *authService) Login(req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.AuthResponse{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		ReferralCode: user.ReferralCode,
		CreatedAt:    user.CreatedAt,
		Token:        token,
	}, nil
}
