package service

import (
	"context"
	"testing"
	"time"

	"aduanas_portal_backend/internal/auth/password"
	"aduanas_portal_backend/internal/auth/repository"
	"aduanas_portal_backend/platform/apperr"
	"aduanas_portal_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type fakeCfg struct{}

func (fakeCfg) GetJWTAccessSecret() string        { return "test-secret" }
func (fakeCfg) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (fakeCfg) GetRefreshTokenTTL() time.Duration { return 720 * time.Hour }

type storedToken struct {
	userID    uuid.UUID
	expiresAt time.Time
	revoked   bool
}

type fakeRepo struct {
	users  map[string]repository.User
	tokens map[string]*storedToken
}

func newFakeRepo(users ...repository.User) *fakeRepo {
	f := &fakeRepo{
		users:  make(map[string]repository.User),
		tokens: make(map[string]*storedToken),
	}
	for _, u := range users {
		f.users[u.Email] = u
	}
	return f
}

func (f *fakeRepo) CreateUser(_ context.Context, email, displayName, passwordHash string, roles []string) (repository.User, error) {
	if _, exists := f.users[email]; exists {
		return repository.User{}, apperr.Conflict("a user with this email already exists")
	}
	u := repository.User{
		ID: uuid.New(), Email: email, DisplayName: displayName,
		PasswordHash: passwordHash, Roles: roles, IsActive: true,
	}
	f.users[email] = u
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	u, ok := f.users[email]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return repository.User{}, apperr.NotFound("user not found")
}

func (f *fakeRepo) ListUsers(_ context.Context) ([]repository.User, error) { return nil, nil }

func (f *fakeRepo) SetUserRoles(_ context.Context, userID uuid.UUID, roles []string) error {
	for email, u := range f.users {
		if u.ID == userID {
			u.Roles = roles
			f.users[email] = u
			return nil
		}
	}
	return apperr.NotFound("user not found")
}

func (f *fakeRepo) SetUserActive(_ context.Context, userID uuid.UUID, active bool) error {
	for email, u := range f.users {
		if u.ID == userID {
			u.IsActive = active
			f.users[email] = u
			return nil
		}
	}
	return apperr.NotFound("user not found")
}

func (f *fakeRepo) UpdatePassword(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (f *fakeRepo) CreateRefreshToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	f.tokens[tokenHash] = &storedToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeRepo) GetRefreshToken(_ context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	t, ok := f.tokens[tokenHash]
	if !ok || t.revoked {
		return uuid.Nil, time.Time{}, apperr.Unauthorized("refresh token not found")
	}
	return t.userID, t.expiresAt, nil
}

func (f *fakeRepo) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	if t, ok := f.tokens[tokenHash]; ok {
		t.revoked = true
	}
	return nil
}

func (f *fakeRepo) RevokeAllRefreshTokens(_ context.Context, userID uuid.UUID) error {
	for _, t := range f.tokens {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

func seedUser(t *testing.T, plain string) repository.User {
	t.Helper()
	hash, err := password.Hash(plain)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return repository.User{
		ID:           uuid.New(),
		Email:        "ana.lopez@example.hn",
		DisplayName:  "Ana Lopez",
		PasswordHash: hash,
		Roles:        []string{"revisor"},
		IsActive:     true,
	}
}

func TestSignInIssuesTokenWithIdentityClaims(t *testing.T) {
	user := seedUser(t, "correcthorse1")
	repo := newFakeRepo(user)
	svc := New(repo, fakeCfg{}, logger.New("development"))

	pair, err := svc.SignIn(context.Background(), user.Email, "correcthorse1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if pair.RefreshToken == "" {
		t.Fatal("missing refresh token")
	}

	parsed, err := jwt.Parse(pair.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("access token invalid: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["name"] != "Ana Lopez" {
		t.Errorf("name claim = %v, want Ana Lopez", claims["name"])
	}
	if claims["email"] != user.Email {
		t.Errorf("email claim = %v", claims["email"])
	}
	if claims["type"] != "access" {
		t.Errorf("type claim = %v", claims["type"])
	}
}

func TestSignInRejectsBadPassword(t *testing.T) {
	user := seedUser(t, "correcthorse1")
	svc := New(newFakeRepo(user), fakeCfg{}, logger.New("development"))

	_, err := svc.SignIn(context.Background(), user.Email, "wrong")
	if apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestSignInRejectsInactiveUser(t *testing.T) {
	user := seedUser(t, "correcthorse1")
	user.IsActive = false
	svc := New(newFakeRepo(user), fakeCfg{}, logger.New("development"))

	_, err := svc.SignIn(context.Background(), user.Email, "correcthorse1")
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestRefreshRotatesAndRevokesOldToken(t *testing.T) {
	user := seedUser(t, "correcthorse1")
	repo := newFakeRepo(user)
	svc := New(repo, fakeCfg{}, logger.New("development"))

	pair, err := svc.SignIn(context.Background(), user.Email, "correcthorse1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The spent token must be dead.
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Errorf("expected unauthorized on reused token, got %v", err)
	}
}
