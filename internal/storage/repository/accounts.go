package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/magabrotheeeer/saas-starter/internal/models"
)

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var accessToken, refreshToken, idToken, scope, password sql.NullString
	if err := row.Scan(&a.ID, &a.AccountID, &a.ProviderID, &a.UserID, &accessToken, &refreshToken,
		&idToken, &scope, &password, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.AccessToken = accessToken.String
	a.RefreshToken = refreshToken.String
	a.IDToken = idToken.String
	a.Scope = scope.String
	a.Password = password.String
	return a, nil
}

const accountColumns = `id, account_id, provider_id, user_id, access_token, refresh_token,
			      id_token, scope, password, created_at, updated_at`

// InsertAccount привязывает способ входа к пользователю.
func (q *Queries) InsertAccount(ctx context.Context, account models.Account) error {
	const op = "storage.InsertAccount"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO accounts (` + accountColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := q.db.ExecContext(ctx, query,
		account.ID, account.AccountID, account.ProviderID, account.UserID,
		nullString(account.AccessToken), nullString(account.RefreshToken), nullString(account.IDToken),
		nullString(account.Scope), nullString(account.Password), account.CreatedAt, account.UpdatedAt,
	); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// GetAccount ищет аккаунт по провайдеру и идентификатору у провайдера.
func (q *Queries) GetAccount(ctx context.Context, providerID, accountID string) (*models.Account, error) {
	const op = "storage.GetAccount"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE provider_id = $1 AND account_id = $2`
	a, err := scanAccount(q.db.QueryRowContext(ctx, query, providerID, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return a, nil
}

// GetCredentialAccount возвращает парольный аккаунт пользователя.
func (q *Queries) GetCredentialAccount(ctx context.Context, userID string) (*models.Account, error) {
	const op = "storage.GetCredentialAccount"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE provider_id = $1 AND user_id = $2`
	a, err := scanAccount(q.db.QueryRowContext(ctx, query, models.ProviderCredential, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return a, nil
}
