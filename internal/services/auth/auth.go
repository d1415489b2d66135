// Package auth отвечает за вход по паролю и через OAuth, выдачу JWT
// и рассылку событий аутентификации.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markbates/goth"

	"github.com/magabrotheeeer/saas-starter/internal/lib/jwt"
	"github.com/magabrotheeeer/saas-starter/internal/lib/password"
	"github.com/magabrotheeeer/saas-starter/internal/models"
	"github.com/magabrotheeeer/saas-starter/internal/services/signup"
)

var (
	// ErrInvalidCredentials неверная почта или пароль.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrBanned пользователь заблокирован.
	ErrBanned = errors.New("user is banned")
	// ErrUnauthorized токен недействителен или пользователь не найден.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmailNotVerified провайдер не подтвердил почту, по которой нужно связать аккаунт.
	ErrEmailNotVerified = errors.New("provider email is not verified")
)

// verifiedByProvider провайдеры, которые отдают только подтверждённую почту,
// даже если в профиле нет явного признака.
var verifiedByProvider = map[string]bool{
	"github": true,
}

// UserRepository операции над пользователями и аккаунтами, нужные для входа.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetCredentialAccount(ctx context.Context, userID string) (*models.Account, error)
	GetAccount(ctx context.Context, providerID, accountID string) (*models.Account, error)
	InsertAccount(ctx context.Context, account models.Account) error
}

// PendingStager откладывает OAuth-регистрацию до оплаты.
type PendingStager interface {
	CreateOAuthPendingSignup(ctx context.Context, id signup.OAuthIdentity) (*signup.PendingResult, error)
}

// Session выданный токен и его владелец.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// OAuthResult итог OAuth-колбэка: либо сессия существующего пользователя,
// либо отложенная регистрация, ожидающая оплаты.
type OAuthResult struct {
	Session *Session
	Pending *signup.PendingResult
}

// Service сервис аутентификации.
type Service struct {
	users      UserRepository
	pending    PendingStager
	jwtMaker   jwt.Maker
	dispatcher *Dispatcher
	log        *slog.Logger
}

// NewService создаёт сервис аутентификации.
func NewService(users UserRepository, pending PendingStager, jwtMaker jwt.Maker, dispatcher *Dispatcher, log *slog.Logger) *Service {
	return &Service{
		users:      users,
		pending:    pending,
		jwtMaker:   jwtMaker,
		dispatcher: dispatcher,
		log:        log,
	}
}

// SignInEmail проверяет пароль по credential-аккаунту и выдаёт токен.
func (s *Service) SignInEmail(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "auth.SignInEmail"

	user, err := s.users.GetUserByEmail(ctx, signup.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	account, err := s.users.GetCredentialAccount(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if account == nil || account.Password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(account.Password, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if user.Banned {
		return nil, fmt.Errorf("%s: %w", op, ErrBanned)
	}
	return s.IssueToken(user)
}

// IssueToken выдаёт JWT для пользователя.
func (s *Service) IssueToken(user *models.User) (*Session, error) {
	const op = "auth.IssueToken"

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{Token: token, User: user}, nil
}

// Authenticate проверяет токен и возвращает актуального пользователя из хранилища.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnauthorized, err)
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	if user.Banned {
		return nil, fmt.Errorf("%s: %w", op, ErrBanned)
	}
	return user, nil
}

// CompleteOAuth завершает вход через провайдера.
//
// Пользователь ищется по аккаунту провайдера, затем по почте (аккаунт
// привязывается). Если пользователя нет, регистрация откладывается до оплаты.
func (s *Service) CompleteOAuth(ctx context.Context, gu goth.User) (*OAuthResult, error) {
	const op = "auth.CompleteOAuth"

	email := signup.NormalizeEmail(gu.Email)
	user, err := s.findOAuthUser(ctx, gu, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user == nil {
		if email == "" {
			return nil, fmt.Errorf("%s: provider %s returned no email", op, gu.Provider)
		}
		if !EmailVerified(gu) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailNotVerified)
		}
		pending, err := s.pending.CreateOAuthPendingSignup(ctx, signup.OAuthIdentity{
			Provider:     gu.Provider,
			AccountID:    gu.UserID,
			Name:         firstNonEmpty(gu.Name, gu.NickName, email),
			Email:        email,
			AccessToken:  gu.AccessToken,
			RefreshToken: gu.RefreshToken,
			IDToken:      gu.IDToken,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &OAuthResult{Pending: pending}, nil
	}

	if user.Banned {
		return nil, fmt.Errorf("%s: %w", op, ErrBanned)
	}
	s.dispatcher.Fire(ctx, Event{Path: CallbackPath(gu.Provider), UserID: user.ID, Email: user.Email})

	// роль могла поменяться в хуке
	if fresh, err := s.users.GetUserByID(ctx, user.ID); err == nil && fresh != nil {
		user = fresh
	}
	session, err := s.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &OAuthResult{Session: session}, nil
}

func (s *Service) findOAuthUser(ctx context.Context, gu goth.User, email string) (*models.User, error) {
	account, err := s.users.GetAccount(ctx, gu.Provider, gu.UserID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return s.users.GetUserByID(ctx, account.UserID)
	}
	if email == "" {
		return nil, nil
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, err
	}
	if !EmailVerified(gu) {
		s.log.Warn("refusing to link oauth account by unverified email",
			slog.String("provider", gu.Provider), slog.String("user_id", user.ID))
		return nil, ErrEmailNotVerified
	}

	now := time.Now().UTC()
	err = s.users.InsertAccount(ctx, models.Account{
		ID:           uuid.NewString(),
		AccountID:    gu.UserID,
		ProviderID:   gu.Provider,
		UserID:       user.ID,
		AccessToken:  gu.AccessToken,
		RefreshToken: gu.RefreshToken,
		IDToken:      gu.IDToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("linked oauth account", slog.String("provider", gu.Provider), slog.String("user_id", user.ID))
	return user, nil
}

// FireSignUp сообщает хукам о пользователе, созданном после оплаты.
func (s *Service) FireSignUp(ctx context.Context, res signup.CompletionResult) {
	path := PathSignUpEmail
	if res.Provider != "" && res.Provider != models.ProviderCredential {
		path = CallbackPath(res.Provider)
	}
	s.log.Debug("firing sign-up event", slog.String("path", path), slog.String("user_id", res.UserID))
	s.dispatcher.Fire(ctx, Event{Path: path, UserID: res.UserID, Email: res.Email})
}

// EmailVerified сообщает, подтвердил ли провайдер почту пользователя.
// Явный признак из профиля (email_verified или verified_email) важнее
// списка доверенных провайдеров.
func EmailVerified(gu goth.User) bool {
	for _, key := range []string{"email_verified", "verified_email"} {
		v, ok := gu.RawData[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case bool:
			return t
		case string:
			return strings.EqualFold(t, "true")
		default:
			return false
		}
	}
	return verifiedByProvider[gu.Provider]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
