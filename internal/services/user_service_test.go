package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental-backend/internal/models"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
	nextID  int
}

func (f *fakeUserStore) Create(ctx context.Context, u *models.User) error {
	if f.byEmail == nil {
		f.byEmail = map[string]*models.User{}
	}
	f.nextID++
	u.ID = f.nextID
	u.IsActive = true
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

type fakeSubCreator struct {
	created []*models.Subscription
	err     error
}

func (f *fakeSubCreator) Create(ctx context.Context, s *models.Subscription) error {
	if f.err != nil {
		return f.err
	}
	s.ID = len(f.created) + 1
	f.created = append(f.created, s)
	return nil
}

type staticTokens struct{}

func (staticTokens) GenerateToken(user *models.User) (string, error) { return "tok_test", nil }

func TestSignupOpensTrialSubscription(t *testing.T) {
	users := &fakeUserStore{}
	subs := &fakeSubCreator{}
	svc := NewUserService(users, subs, staticTokens{})

	resp, err := svc.Signup(context.Background(), &models.SignupRequest{
		Name: "Awa Ndiaye", Email: "Awa@Example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if resp.Token == "" || resp.User.Email != "awa@example.com" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if len(subs.created) != 1 {
		t.Fatalf("subscriptions created = %d, want 1", len(subs.created))
	}
	sub := subs.created[0]
	if sub.OwnerUserID != resp.User.ID {
		t.Errorf("subscription owner = %d, want %d", sub.OwnerUserID, resp.User.ID)
	}
	if sub.Status != models.SubStatusTrialing {
		t.Errorf("subscription status = %s, want trialing", sub.Status)
	}
	if sub.TrialEndsAt == nil {
		t.Fatal("trial end not set")
	}
	wantEnd := time.Now().Add(models.DefaultTrialDays * 24 * time.Hour)
	if diff := sub.TrialEndsAt.Sub(wantEnd); diff < -time.Minute || diff > time.Minute {
		t.Errorf("trial ends %v, want ~%d days out", sub.TrialEndsAt, models.DefaultTrialDays)
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	users := &fakeUserStore{}
	svc := NewUserService(users, &fakeSubCreator{}, staticTokens{})

	req := &models.SignupRequest{Name: "Awa", Email: "awa@example.com", Password: "correct-horse"}
	if _, err := svc.Signup(context.Background(), req); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := svc.Signup(context.Background(), req); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("duplicate signup: err = %v, want ErrValidation", err)
	}
}

func TestSignupSurvivesSubscriptionFailure(t *testing.T) {
	users := &fakeUserStore{}
	subs := &fakeSubCreator{err: errors.New("connection reset")}
	svc := NewUserService(users, subs, staticTokens{})

	resp, err := svc.Signup(context.Background(), &models.SignupRequest{
		Name: "Awa", Email: "awa@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Signup must not fail on the billing row: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("no token issued")
	}
}

func TestLoginRejectsBadCredentialsAndSuspension(t *testing.T) {
	users := &fakeUserStore{}
	svc := NewUserService(users, &fakeSubCreator{}, staticTokens{})

	if _, err := svc.Signup(context.Background(), &models.SignupRequest{
		Name: "Awa", Email: "awa@example.com", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if _, err := svc.Login(context.Background(), &models.LoginRequest{Email: "awa@example.com", Password: "wrong"}); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("wrong password: err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Login(context.Background(), &models.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"}); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("unknown email: err = %v, want ErrUnauthorized", err)
	}

	users.byEmail["awa@example.com"].IsActive = false
	if _, err := svc.Login(context.Background(), &models.LoginRequest{Email: "awa@example.com", Password: "correct-horse"}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("suspended account: err = %v, want ErrForbidden", err)
	}
}
