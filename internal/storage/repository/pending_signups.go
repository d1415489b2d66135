package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/magabrotheeeer/saas-starter/internal/models"
)

const pendingColumns = `id, name, email, password_hash, oauth_provider, oauth_account_id,
			      oauth_access_token, oauth_refresh_token, oauth_id_token, oauth_scope,
			      plan, stripe_session_id, expires_at, created_at`

func scanPendingSignup(row rowScanner) (*models.PendingSignup, error) {
	p := &models.PendingSignup{}
	var passwordHash, provider, accountID, accessToken, refreshToken, idToken, scope,
		plan, sessionID sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &passwordHash, &provider, &accountID,
		&accessToken, &refreshToken, &idToken, &scope, &plan, &sessionID,
		&p.ExpiresAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.PasswordHash = passwordHash.String
	p.OAuthProvider = provider.String
	p.OAuthAccountID = accountID.String
	p.OAuthAccessToken = accessToken.String
	p.OAuthRefreshToken = refreshToken.String
	p.OAuthIDToken = idToken.String
	p.OAuthScope = scope.String
	p.Plan = plan.String
	p.StripeSessionID = sessionID.String
	return p, nil
}

// InsertPendingSignup сохраняет незавершённую регистрацию.
func (q *Queries) InsertPendingSignup(ctx context.Context, p models.PendingSignup) error {
	const op = "storage.InsertPendingSignup"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO pending_signups (` + pendingColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if _, err := q.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Email, nullString(p.PasswordHash), nullString(p.OAuthProvider),
		nullString(p.OAuthAccountID), nullString(p.OAuthAccessToken), nullString(p.OAuthRefreshToken),
		nullString(p.OAuthIDToken), nullString(p.OAuthScope), nullString(p.Plan),
		nullString(p.StripeSessionID), p.ExpiresAt, p.CreatedAt,
	); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// GetPendingSignup возвращает запись по идентификатору без проверки срока жизни.
func (q *Queries) GetPendingSignup(ctx context.Context, id string) (*models.PendingSignup, error) {
	const op = "storage.GetPendingSignup"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPendingSignup(q.db.QueryRowContext(ctx,
		`SELECT `+pendingColumns+` FROM pending_signups WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// GetPendingSignupByEmail возвращает запись по почте без проверки срока жизни.
func (q *Queries) GetPendingSignupByEmail(ctx context.Context, email string) (*models.PendingSignup, error) {
	const op = "storage.GetPendingSignupByEmail"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPendingSignup(q.db.QueryRowContext(ctx,
		`SELECT `+pendingColumns+` FROM pending_signups WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// ListPendingSignups возвращает страницу записей, новые первыми.
func (q *Queries) ListPendingSignups(ctx context.Context, limit, offset int) ([]*models.PendingSignup, error) {
	const op = "storage.ListPendingSignups"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := q.db.QueryContext(ctx, `SELECT `+pendingColumns+` FROM pending_signups
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PendingSignup
	for rows.Next() {
		p, err := scanPendingSignup(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// UpdatePendingSignupCheckout запоминает выбранный план и выданную checkout-сессию.
func (q *Queries) UpdatePendingSignupCheckout(ctx context.Context, id, plan, sessionID string) (int64, error) {
	const op = "storage.UpdatePendingSignupCheckout"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	query := `UPDATE pending_signups
			  SET plan = $1, stripe_session_id = $2
			  WHERE id = $3`
	return q.exec(ctx, op, query, plan, sessionID, id)
}

// DeletePendingSignup удаляет запись по идентификатору.
func (q *Queries) DeletePendingSignup(ctx context.Context, id string) (int64, error) {
	const op = "storage.DeletePendingSignup"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}
	return q.exec(ctx, op, `DELETE FROM pending_signups WHERE id = $1`, id)
}

// DeletePendingSignupsByEmail удаляет записи с указанной почтой.
func (q *Queries) DeletePendingSignupsByEmail(ctx context.Context, email string) (int64, error) {
	const op = "storage.DeletePendingSignupsByEmail"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}
	return q.exec(ctx, op, `DELETE FROM pending_signups WHERE email = $1`, email)
}

// DeleteExpiredPendingSignups удаляет записи, срок жизни которых истёк к моменту now.
func (q *Queries) DeleteExpiredPendingSignups(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.DeleteExpiredPendingSignups"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}
	return q.exec(ctx, op, `DELETE FROM pending_signups WHERE expires_at < $1`, now)
}

func (q *Queries) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}
