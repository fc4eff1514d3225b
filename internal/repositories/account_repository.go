package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"mystrymsg/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// GetByIdentifier looks the account up by username or email.
	GetByIdentifier(ctx context.Context, identifier string) (*models.Account, error)
	IsUsernameVerified(ctx context.Context, username string) (bool, error)

	// verification
	ResetPending(ctx context.Context, a *models.Account) error
	DeletePending(ctx context.Context, id string) error
	// RecordFailedAttempt bumps the wrong-code counter of a pending account and
	// returns the new value.
	RecordFailedAttempt(ctx context.Context, id string) (int, error)
	MarkVerified(ctx context.Context, id string) error

	SetAcceptingMessages(ctx context.Context, id string, accept bool) error
}

type accountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{DB: db}
}

const accountColumns = `id, username, email, password_hash, verify_code, verify_code_expiry,
		verify_attempts, is_verified, is_accepting_messages, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.VerifyCode, &a.VerifyCodeExpiry,
		&a.VerifyAttempts, &a.IsVerified, &a.IsAcceptingMessages, &a.CreatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

func (r *accountRepository) Create(ctx context.Context, a *models.Account) error {
	const q = `
		INSERT INTO accounts (
			id, username, email, password_hash, verify_code, verify_code_expiry,
			is_verified, is_accepting_messages
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`
	err := r.DB.QueryRowContext(ctx, q,
		a.ID,
		a.Username,
		a.Email,
		a.PasswordHash,
		a.VerifyCode,
		a.VerifyCodeExpiry,
		a.IsVerified,
		a.IsAcceptingMessages,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("account create: %w", translate(err))
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.DB.QueryRowContext(ctx, q, id))
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return scanAccount(r.DB.QueryRowContext(ctx, q, username))
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.DB.QueryRowContext(ctx, q, email))
}

func (r *accountRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	// verified records first: a pending signup must never shadow a real account
	q := `SELECT ` + accountColumns + ` FROM accounts
		WHERE username = $1 OR email = $1
		ORDER BY is_verified DESC
		LIMIT 1`
	return scanAccount(r.DB.QueryRowContext(ctx, q, identifier))
}

func (r *accountRepository) IsUsernameVerified(ctx context.Context, username string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1 AND is_verified = TRUE)`
	var ok bool
	if err := r.DB.QueryRowContext(ctx, q, username).Scan(&ok); err != nil {
		return false, fmt.Errorf("account username check: %w", err)
	}
	return ok, nil
}

// ResetPending overwrites the password and the one-time code of an unverified
// account and clears its attempt counter. The username never changes; verified
// accounts are never touched.
func (r *accountRepository) ResetPending(ctx context.Context, a *models.Account) error {
	const q = `
		UPDATE accounts
		SET password_hash = $2,
			verify_code = $3,
			verify_code_expiry = $4,
			verify_attempts = 0
		WHERE id = $1 AND is_verified = FALSE
	`
	res, err := r.DB.ExecContext(ctx, q, a.ID, a.PasswordHash, a.VerifyCode, a.VerifyCodeExpiry)
	if err != nil {
		return fmt.Errorf("account reset pending: %w", translate(err))
	}
	return expectOne(res)
}

func (r *accountRepository) DeletePending(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1 AND is_verified = FALSE`, id)
	if err != nil {
		return fmt.Errorf("account delete pending: %w", err)
	}
	return expectOne(res)
}

func (r *accountRepository) RecordFailedAttempt(ctx context.Context, id string) (int, error) {
	const q = `
		UPDATE accounts
		SET verify_attempts = verify_attempts + 1
		WHERE id = $1 AND is_verified = FALSE
		RETURNING verify_attempts
	`
	var n int
	if err := r.DB.QueryRowContext(ctx, q, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("account record attempt: %w", translate(err))
	}
	return n, nil
}

func (r *accountRepository) MarkVerified(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE accounts SET is_verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("account mark verified: %w", err)
	}
	return expectOne(res)
}

func (r *accountRepository) SetAcceptingMessages(ctx context.Context, id string, accept bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE accounts SET is_accepting_messages = $2 WHERE id = $1`, id, accept)
	if err != nil {
		return fmt.Errorf("account set accepting: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
