package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"readsync/internal/apperr"
	"readsync/pkg/models"
)

// memUsers is a map-backed credential store for service tests.
type memUsers struct {
	mu    sync.Mutex
	byID  map[string]models.User
	seq   int
	calls int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]models.User)}
}

func (m *memUsers) Create(_ context.Context, name, email, hash string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	email = strings.ToLower(email)
	for _, u := range m.byID {
		if u.Email == email {
			return models.User{}, apperr.Conflict("A user with that email already exists.")
		}
	}
	m.seq++
	u := models.User{ID: fmt.Sprintf("u%d", m.seq), Name: name, Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	return u, ok, nil
}

func newTestService(t *testing.T) (*Service, *memUsers) {
	t.Helper()
	users := newMemUsers()
	return NewService(users, NewBcryptHasher(bcrypt.MinCost), newTestTokens(t, "s3cret")), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "Ada", "Ada@Example.com", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.Token == "" || reg.User.Email != "ada@example.com" || reg.User.Name != "Ada" {
		t.Fatalf("unexpected session: %+v", reg)
	}

	login, err := svc.Login(ctx, "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	u, err := svc.Authenticate(ctx, login.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.ID != reg.User.ID {
		t.Fatalf("expected %s, got %s", reg.User.ID, u.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	cases := []struct{ name, email, password string }{
		{"", "a@example.com", "pw"},
		{"Ada", "  ", "pw"},
		{"Ada", "a@example.com", ""},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.name, tc.email, tc.password); !apperr.IsKind(err, apperr.KindInvalidInput) {
			t.Fatalf("%+v: expected invalid input, got %v", tc, err)
		}
	}
	if users.calls != 0 {
		t.Fatalf("no user should be created, got %d create calls", users.calls)
	}
}

func TestRegisterDuplicateEmailIsConflict(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, "Imposter", "ADA@example.com", "pw2")
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(users.byID) != 1 {
		t.Fatalf("expected one stored user, got %d", len(users.byID))
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "right"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPw := svc.Login(ctx, "ada@example.com", "wrong")
	_, noUser := svc.Login(ctx, "nobody@example.com", "right")
	for _, err := range []error{wrongPw, noUser} {
		if !apperr.IsKind(err, apperr.KindUnauthenticated) {
			t.Fatalf("expected unauthenticated, got %v", err)
		}
	}
	_, msgA := apperr.Public(wrongPw)
	_, msgB := apperr.Public(noUser)
	if msgA != msgB {
		t.Fatalf("messages differ: %q vs %q", msgA, msgB)
	}
}

func TestAuthenticateDeletedUser(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, "Ada", "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	delete(users.byID, reg.User.ID)

	_, err = svc.Authenticate(ctx, reg.Token)
	if !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated for missing user, got %v", err)
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Compare(hash, "s3cret") {
		t.Fatalf("expected password check to pass")
	}
	if h.Compare(hash, "wrong") {
		t.Fatalf("expected password check to fail")
	}
	if NewBcryptHasher(0).Cost != bcrypt.DefaultCost {
		t.Fatalf("out of range cost should fall back to default")
	}
}
