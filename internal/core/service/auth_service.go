package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/authsvc/auth-api/internal/core/domain"
	"github.com/authsvc/auth-api/internal/core/ports"
	"github.com/authsvc/auth-api/internal/pkg/metrics"
)

// PasswordCost is the bcrypt work factor applied to every stored password.
const PasswordCost = 10

// AuthService implements registration and login.
type AuthService struct {
	repo   ports.UserRepository
	tokens *TokenIssuer
	lock   ports.RegistrationLock
	log    zerolog.Logger
	cost   int
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithRegistrationLock makes Register hold lock for the email while it checks
// and inserts.
func WithRegistrationLock(lock ports.RegistrationLock) Option {
	return func(s *AuthService) { s.lock = lock }
}

// withCost overrides the bcrypt cost. Tests only.
func withCost(cost int) Option {
	return func(s *AuthService) { s.cost = cost }
}

func NewAuthService(repo ports.UserRepository, tokens *TokenIssuer, log zerolog.Logger, opts ...Option) *AuthService {
	s := &AuthService{repo: repo, tokens: tokens, log: log, cost: PasswordCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (user *domain.User, err error) {
	defer func() { observe(metrics.OpRegister, err) }()

	if in.Username == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, domain.ErrFieldsRequired
	}
	if in.Password != in.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}

	if s.lock != nil {
		release, err := s.acquire(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, registerFailed(err)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, domain.ErrPasswordTooLong
		}
		return nil, registerFailed(err)
	}

	created, err := s.repo.Insert(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, registerFailed(err)
	}

	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (res *ports.LoginResult, err error) {
	defer func() { observe(metrics.OpLogin, err) }()

	if email == "" || password == "" {
		return nil, domain.ErrCredentialsRequired
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, loginFailed(err)
	}

	if err := s.compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.ErrIncorrectPassword
		}
		return nil, loginFailed(err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, loginFailed(err)
	}

	return &ports.LoginResult{Token: token, User: user}, nil
}

// acquire takes the registration lock for email. A lock held elsewhere means
// the same email is being registered concurrently. Lock store failures are
// logged and registration proceeds unguarded.
func (s *AuthService) acquire(ctx context.Context, email string) (func(), error) {
	token, ok, err := s.lock.Acquire(ctx, email)
	switch {
	case err != nil:
		metrics.RegistrationLockTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Msg("registration lock unavailable, proceeding without it")
		return func() {}, nil
	case !ok:
		metrics.RegistrationLockTotal.WithLabelValues("contended").Inc()
		return nil, domain.ErrEmailTaken
	}

	metrics.RegistrationLockTotal.WithLabelValues("acquired").Inc()
	return func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), email, token); err != nil {
			s.log.Warn().Err(err).Msg("failed to release registration lock")
		}
	}, nil
}

func (s *AuthService) hash(password string) (string, error) {
	defer timeHash("hash")()
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (s *AuthService) compare(hash, password string) error {
	defer timeHash("compare")()
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func timeHash(op string) func() {
	start := time.Now()
	return func() {
		metrics.PasswordHashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func observe(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = domain.KindOf(err).String()
	}
	metrics.AuthAttemptsTotal.WithLabelValues(op, outcome).Inc()
}

func registerFailed(err error) error {
	return &domain.InternalError{Op: "register", Msg: "failed to register user", Err: err}
}

func loginFailed(err error) error {
	return &domain.InternalError{Op: "login", Msg: "failed to log in", Err: err}
}
