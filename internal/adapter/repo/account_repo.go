package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"donationhub/internal/domain"
	"donationhub/internal/infra"
	"donationhub/internal/sqlinline"
)

// AccountRepositoryPG implements domain.AccountRepository backed by PostgreSQL.
type AccountRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAccountRepository creates a new AccountRepositoryPG.
func NewAccountRepository(sql infra.SQLExecutor) *AccountRepositoryPG {
	return &AccountRepositoryPG{sql: sql}
}

// Create inserts the account, assigning an ID when missing. A taken email
// yields domain.ErrDuplicateEmail.
func (r *AccountRepositoryPG) Create(ctx context.Context, account *domain.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.Email = domain.NormalizeEmail(account.Email)
	items := account.ItemsAccepted
	if items == nil {
		items = []string{}
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertAccount,
		account.ID,
		string(account.Kind),
		account.Email,
		account.PasswordHash,
		account.Mobile,
		account.FirstName,
		account.LastName,
		account.Name,
		account.RegistrationNumber,
		account.Address,
		items,
	)
	if err := row.Scan(&account.CreatedAt, &account.UpdatedAt); err != nil {
		if infra.IsUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by UUID.
func (r *AccountRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return scanAccount(r.sql.QueryRow(ctx, sqlinline.QSelectAccountByID, id))
}

// GetByEmail fetches an account by its normalized email.
func (r *AccountRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return scanAccount(r.sql.QueryRow(ctx, sqlinline.QSelectAccountByEmail, domain.NormalizeEmail(email)))
}

// UpdatePasswordHash replaces the stored bcrypt hash.
func (r *AccountRepositoryPG) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateAccountPassword, id, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var kind string
	if err := row.Scan(
		&a.ID, &kind, &a.Email, &a.PasswordHash, &a.Mobile,
		&a.FirstName, &a.LastName, &a.Name, &a.RegistrationNumber, &a.Address,
		&a.ItemsAccepted, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.Kind = domain.AccountKind(kind)
	return &a, nil
}

var _ domain.AccountRepository = (*AccountRepositoryPG)(nil)
