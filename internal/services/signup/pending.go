package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/saas-starter/internal/lib/password"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/lib/token"
	"github.com/magabrotheeeer/saas-starter/internal/metrics"
	"github.com/magabrotheeeer/saas-starter/internal/models"
	"github.com/magabrotheeeer/saas-starter/internal/storage"
)

// OAuthIdentity учётные данные, полученные от внешнего провайдера.
type OAuthIdentity struct {
	Provider     string
	AccountID    string
	Name         string
	Email        string
	AccessToken  string
	RefreshToken string
	IDToken      string
	Scope        string
}

// PendingResult идентификатор созданной незавершённой регистрации.
type PendingResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CreatePendingSignup сохраняет регистрацию по паролю до оплаты.
// Предыдущая незавершённая регистрация на ту же почту удаляется.
func (s *Service) CreatePendingSignup(ctx context.Context, name, email, pass string) (*PendingResult, error) {
	const op = "signup.CreatePendingSignup"

	hash, err := password.GetHash(pass)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.stagePending(ctx, models.PendingSignup{
		Name:         name,
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.PendingSignupsCreated.WithLabelValues(models.ProviderCredential).Inc()
	return res, nil
}

// CreateOAuthPendingSignup сохраняет OAuth-регистрацию до оплаты.
func (s *Service) CreateOAuthPendingSignup(ctx context.Context, id OAuthIdentity) (*PendingResult, error) {
	const op = "signup.CreateOAuthPendingSignup"

	if id.Provider == "" || id.AccountID == "" {
		return nil, fmt.Errorf("%s: empty oauth identity", op)
	}
	res, err := s.stagePending(ctx, models.PendingSignup{
		Name:              id.Name,
		Email:             NormalizeEmail(id.Email),
		OAuthProvider:     id.Provider,
		OAuthAccountID:    id.AccountID,
		OAuthAccessToken:  id.AccessToken,
		OAuthRefreshToken: id.RefreshToken,
		OAuthIDToken:      id.IDToken,
		OAuthScope:        id.Scope,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.PendingSignupsCreated.WithLabelValues(id.Provider).Inc()
	return res, nil
}

func (s *Service) stagePending(ctx context.Context, pending models.PendingSignup) (*PendingResult, error) {
	id, err := token.Generate(token.DefaultLength)
	if err != nil {
		return nil, err
	}
	now := s.now()
	pending.ID = id
	pending.CreatedAt = now
	pending.ExpiresAt = now.Add(PendingSignupTTL)

	err = s.repo.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.Lock(ctx, pendingEmailLockKey(pending.Email)); err != nil {
			return err
		}
		user, err := tx.GetUserByEmail(ctx, pending.Email)
		if err != nil {
			return err
		}
		if user != nil {
			return ErrDuplicateAccount
		}
		if _, err := tx.DeletePendingSignupsByEmail(ctx, pending.Email); err != nil {
			return err
		}
		return tx.InsertPendingSignup(ctx, pending)
	})
	if err != nil {
		return nil, err
	}
	return &PendingResult{ID: pending.ID, Email: pending.Email}, nil
}

// GetPendingSignup возвращает живую регистрацию или nil.
// Просроченная запись удаляется при чтении.
func (s *Service) GetPendingSignup(ctx context.Context, id string) (*models.PendingSignup, error) {
	const op = "signup.GetPendingSignup"

	if id == "" {
		return nil, nil
	}
	pending, err := s.repo.GetPendingSignup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.liveOrEvict(ctx, pending), nil
}

// GetPendingSignupByEmail возвращает живую регистрацию по почте или nil.
func (s *Service) GetPendingSignupByEmail(ctx context.Context, email string) (*models.PendingSignup, error) {
	const op = "signup.GetPendingSignupByEmail"

	pending, err := s.repo.GetPendingSignupByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.liveOrEvict(ctx, pending), nil
}

func (s *Service) liveOrEvict(ctx context.Context, pending *models.PendingSignup) *models.PendingSignup {
	if pending == nil {
		return nil
	}
	if pending.Expired(s.now()) {
		s.evictExpired(ctx, pending.ID)
		return nil
	}
	return pending
}

func (s *Service) evictExpired(ctx context.Context, id string) {
	n, err := s.repo.DeletePendingSignup(ctx, id)
	if err != nil {
		s.log.Warn("failed to evict expired pending signup", slog.String("pending_id", id), sl.Err(err))
		return
	}
	metrics.PendingSignupsExpired.Add(float64(n))
}

// UpdatePendingSignupPlan запоминает план и checkout-сессию.
// Если запись уже удалена, ничего не происходит.
func (s *Service) UpdatePendingSignupPlan(ctx context.Context, id string, plan Plan, sessionID string) error {
	const op = "signup.UpdatePendingSignupPlan"

	n, err := s.repo.UpdatePendingSignupCheckout(ctx, id, string(plan), sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		s.log.Debug("pending signup vanished before plan update", slog.String("pending_id", id))
	}
	return nil
}

// CompletePendingSignup превращает незавершённую регистрацию в пользователя и аккаунт.
func (s *Service) CompletePendingSignup(ctx context.Context, id string) (string, error) {
	const op = "signup.CompletePendingSignup"

	var (
		userID  string
		expired bool
	)
	err := s.repo.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.Lock(ctx, pendingLockKey(id)); err != nil {
			return err
		}
		pending, err := tx.GetPendingSignup(ctx, id)
		if err != nil {
			return err
		}
		if pending == nil {
			return ErrNotFound
		}
		if pending.Expired(s.now()) {
			expired = true
			return ErrNotFound
		}
		user, err := s.completePendingTx(ctx, tx, pending)
		if err != nil {
			return err
		}
		userID = user.ID
		return nil
	})
	if expired {
		s.evictExpired(ctx, id)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return userID, nil
}

// completePendingTx создаёт пользователя и аккаунт из регистрации и удаляет её.
// Вызывается только внутри транзакции под блокировкой pending:<id>.
func (s *Service) completePendingTx(ctx context.Context, tx storage.Tx, pending *models.PendingSignup) (*models.User, error) {
	now := s.now()
	user := models.User{
		ID:            uuid.NewString(),
		Name:          pending.Name,
		Email:         pending.Email,
		EmailVerified: pending.IsOAuth(),
		Role:          models.RoleUser,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.InsertUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}

	account := models.Account{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pending.IsOAuth() {
		account.ProviderID = pending.OAuthProvider
		account.AccountID = pending.OAuthAccountID
		account.AccessToken = pending.OAuthAccessToken
		account.RefreshToken = pending.OAuthRefreshToken
		account.IDToken = pending.OAuthIDToken
		account.Scope = pending.OAuthScope
	} else {
		account.ProviderID = models.ProviderCredential
		account.AccountID = user.ID
		account.Password = pending.PasswordHash
	}
	if err := tx.InsertAccount(ctx, account); err != nil {
		return nil, err
	}
	if _, err := tx.DeletePendingSignup(ctx, pending.ID); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeletePendingSignup удаляет регистрацию. Возвращает false, если записи не было.
func (s *Service) DeletePendingSignup(ctx context.Context, id string) (bool, error) {
	const op = "signup.DeletePendingSignup"

	n, err := s.repo.DeletePendingSignup(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// CleanupExpiredPendingSignups удаляет все просроченные регистрации.
func (s *Service) CleanupExpiredPendingSignups(ctx context.Context) (int64, error) {
	const op = "signup.CleanupExpiredPendingSignups"

	n, err := s.repo.DeleteExpiredPendingSignups(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	metrics.PendingSignupsExpired.Add(float64(n))
	return n, nil
}

// ListPendingSignups постранично возвращает незавершённые регистрации для администратора.
func (s *Service) ListPendingSignups(ctx context.Context, limit, offset int) ([]*models.PendingSignup, error) {
	const op = "signup.ListPendingSignups"

	list, err := s.repo.ListPendingSignups(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}
