package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/authsvc/auth-api/internal/core/domain"
	"github.com/authsvc/auth-api/internal/core/ports"
)

type stubUserRepo struct {
	users     map[string]*domain.User
	nextID    int
	findErr   error
	insertErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Insert(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrEmailTaken
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[copy.Email] = copy
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

type stubLock struct {
	held       map[string]string
	acquireErr error
	released   []string
	seq        int
}

func (l *stubLock) Acquire(_ context.Context, email string) (string, bool, error) {
	if l.acquireErr != nil {
		return "", false, l.acquireErr
	}
	if _, ok := l.held[email]; ok {
		return "", false, nil
	}
	l.seq++
	token := fmt.Sprintf("token-%d", l.seq)
	l.held[email] = token
	return token, true, nil
}

func (l *stubLock) Release(_ context.Context, email, token string) error {
	if l.held[email] == token {
		delete(l.held, email)
		l.released = append(l.released, email)
	}
	return nil
}

func newTestService(repo ports.UserRepository, opts ...Option) *AuthService {
	opts = append([]Option{withCost(bcrypt.MinCost)}, opts...)
	return NewAuthService(repo, NewTokenIssuer("secret"), zerolog.Nop(), opts...)
}

func validInput() ports.RegisterInput {
	return ports.RegisterInput{
		Username:        "ana",
		Email:           "ana@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo)

	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected store-assigned id")
	}

	stored, err := repo.FindByEmail(context.Background(), "ana@x.com")
	if err != nil {
		t.Fatalf("lookup after register: %v", err)
	}
	if stored.PasswordHash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if stored.Username != "ana" {
		t.Fatalf("unexpected username: %s", stored.Username)
	}
}

func TestAuthService_Register_DefaultCost(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, NewTokenIssuer("secret"), zerolog.Nop())

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(repo.users["ana@x.com"].PasswordHash))
	if err != nil {
		t.Fatalf("bcrypt.Cost: %v", err)
	}
	if cost != PasswordCost {
		t.Fatalf("expected cost %d, got %d", PasswordCost, cost)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	missing := []func(*ports.RegisterInput){
		func(in *ports.RegisterInput) { in.Username = "" },
		func(in *ports.RegisterInput) { in.Email = "" },
		func(in *ports.RegisterInput) { in.Password = "" },
		func(in *ports.RegisterInput) { in.ConfirmPassword = "" },
	}
	for i, mutate := range missing {
		in := validInput()
		mutate(&in)
		if _, err := svc.Register(context.Background(), in); err != domain.ErrFieldsRequired {
			t.Fatalf("case %d: expected ErrFieldsRequired, got %v", i, err)
		}
	}

	in := validInput()
	in.ConfirmPassword = "secret2"
	if _, err := svc.Register(context.Background(), in); err != domain.ErrPasswordMismatch {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestAuthService_Register_PasswordTooLong(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	in := validInput()
	in.Password = strings.Repeat("p", 73)
	in.ConfirmPassword = in.Password
	if _, err := svc.Register(context.Background(), in); err != domain.ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	in := validInput()
	in.Username = "ana2"
	if _, err := svc.Register(context.Background(), in); err != domain.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Register_StoreConstraint(t *testing.T) {
	repo := newStubUserRepo()
	repo.insertErr = domain.ErrEmailTaken
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), validInput()); err != domain.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken from store constraint, got %v", err)
	}
}

func TestAuthService_Register_StoreFailure(t *testing.T) {
	cause := errors.New("connection reset")
	repo := newStubUserRepo()
	repo.findErr = cause
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), validInput())
	var ie *domain.InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InternalError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped")
	}
	if strings.Contains(ie.Msg, cause.Error()) {
		t.Fatalf("client message leaks cause: %q", ie.Msg)
	}
}

func TestAuthService_Register_Lock(t *testing.T) {
	lock := &stubLock{held: map[string]string{}}
	svc := newTestService(newStubUserRepo(), WithRegistrationLock(lock))

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if len(lock.released) != 1 || lock.released[0] != "ana@x.com" {
		t.Fatalf("expected lock to be released, got %v", lock.released)
	}

	lock.held["bob@x.com"] = "other"
	in := validInput()
	in.Email = "bob@x.com"
	if _, err := svc.Register(context.Background(), in); err != domain.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken while lock is held, got %v", err)
	}
}

func TestAuthService_Register_LockUnavailable(t *testing.T) {
	lock := &stubLock{held: map[string]string{}, acquireErr: errors.New("redis down")}
	svc := newTestService(newStubUserRepo(), WithRegistrationLock(lock))

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("expected registration to proceed without lock, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	registered, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "ana@x.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}

	claims, err := NewTokenIssuer("secret").Parse(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Email != "ana@x.com" {
		t.Fatalf("expected email claim ana@x.com, got %s", claims.Email)
	}
	if claims.UserID != registered.ID {
		t.Fatalf("expected id claim %s, got %s", registered.ID, claims.UserID)
	}
}

func TestAuthService_Login_Validation(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	if _, err := svc.Login(context.Background(), "", "pass"); err != domain.ErrCredentialsRequired {
		t.Fatalf("expected ErrCredentialsRequired, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana@x.com", ""); err != domain.ErrCredentialsRequired {
		t.Fatalf("expected ErrCredentialsRequired, got %v", err)
	}
}

func TestAuthService_Login_IncorrectPassword(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	_, _ = svc.Register(context.Background(), validInput())
	if _, err := svc.Login(context.Background(), "ana@x.com", "wrong"); err != domain.ErrIncorrectPassword {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	if _, err := svc.Login(context.Background(), "ghost@x.com", "pass"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("timeout")
	svc := newTestService(repo)

	_, err := svc.Login(context.Background(), "ana@x.com", "pass")
	if domain.KindOf(err) != domain.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}
