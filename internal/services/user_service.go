package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"rental-backend/internal/auth"
	"rental-backend/internal/models"
	"rental-backend/internal/timeutil"
)

// UserStore is the slice of the user repository the auth flows need
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SubscriptionCreator opens the billing subscription for a new account
type SubscriptionCreator interface {
	Create(ctx context.Context, s *models.Subscription) error
}

// TokenIssuer mints the session token after signup or login
type TokenIssuer interface {
	GenerateToken(user *models.User) (string, error)
}

type UserService struct {
	userRepo   UserStore
	subRepo    SubscriptionCreator
	jwtManager TokenIssuer
}

func NewUserService(userRepo UserStore, subRepo SubscriptionCreator, jwtManager TokenIssuer) *UserService {
	return &UserService{userRepo: userRepo, subRepo: subRepo, jwtManager: jwtManager}
}

// Signup creates the account and opens its trialing subscription. The
// trial starts at signup; the first paid capture ends it.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: name and email required", models.ErrValidation)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", models.ErrValidation)
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", models.ErrValidation)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	trialEnd := timeutil.Now().Add(models.DefaultTrialDays * 24 * time.Hour)
	if err := s.subRepo.Create(ctx, &models.Subscription{
		OwnerUserID: user.ID,
		Status:      models.SubStatusTrialing,
		TrialEndsAt: &trialEnd,
	}); err != nil {
		// The account exists and must stay usable; the missing billing
		// row surfaces on the next subscription webhook as a logged gap
		log.Printf("[User] Trial subscription for account %d failed: %v", user.ID, err)
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
		}
		return nil, err
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account suspended", models.ErrForbidden)
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}
