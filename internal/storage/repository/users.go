package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/magabrotheeeer/saas-starter/internal/models"
)

const userColumns = `id, name, email, email_verified, role, banned, ban_reason,
			      stripe_customer_id, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var banReason, customerID sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Role, &u.Banned,
		&banReason, &customerID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.BanReason = banReason.String
	u.StripeCustomerID = customerID.String
	return u, nil
}

// InsertUser сохраняет нового пользователя.
func (q *Queries) InsertUser(ctx context.Context, user models.User) error {
	const op = "storage.InsertUser"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO users (id, name, email, email_verified, role, banned, ban_reason,
			      stripe_customer_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := q.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.EmailVerified, user.Role, user.Banned,
		nullString(user.BanReason), nullString(user.StripeCustomerID), user.CreatedAt, user.UpdatedAt,
	); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// GetUserByID возвращает пользователя по идентификатору или nil, если его нет.
func (q *Queries) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по почте или nil, если его нет.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// UpdateUserStripeCustomerID сохраняет идентификатор покупателя у платёжного провайдера.
func (q *Queries) UpdateUserStripeCustomerID(ctx context.Context, userID, customerID string) error {
	const op = "storage.UpdateUserStripeCustomerID"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users
			  SET stripe_customer_id = $1, updated_at = NOW()
			  WHERE id = $2`
	if _, err := q.db.ExecContext(ctx, query, customerID, userID); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// ChangeUserRole меняет роль пользователя, только если текущая роль равна from.
// Возвращает число обновлённых строк.
func (q *Queries) ChangeUserRole(ctx context.Context, userID, from, to string) (int64, error) {
	const op = "storage.ChangeUserRole"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	query := `UPDATE users
			  SET role = $1, updated_at = NOW()
			  WHERE id = $2 AND role = $3`
	res, err := q.db.ExecContext(ctx, query, to, userID, from)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}
