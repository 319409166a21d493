package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tripkoro/wallet_ledger_svc/internal/apperrors"
	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
	portsrepo "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/repositories"
	"github.com/tripkoro/wallet_ledger_svc/internal/models"
	"github.com/tripkoro/wallet_ledger_svc/internal/utils/pagination"
)

type PgxWalletRepository struct {
	BaseRepository
}

// newPgxWalletRepository creates a new repository for wallet and ledger data.
func newPgxWalletRepository(pool *pgxpool.Pool) portsrepo.WalletRepositoryWithTx {
	return &PgxWalletRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxWalletRepository implements portsrepo.WalletRepositoryWithTx
var _ portsrepo.WalletRepositoryWithTx = (*PgxWalletRepository)(nil)

const (
	selectWalletFields = `
		wallet_id, user_id, balance, currency_code, status,
		created_at, created_by, last_updated_at, last_updated_by
	`

	selectTransactionFields = `
		transaction_id, wallet_id, transaction_type, amount, status,
		reason_code, description, reference_kind, reference_id, metadata,
		processed_by, running_balance,
		created_at, created_by, last_updated_at, last_updated_by
	`
)

// Helper to convert domain.Wallet to models.Wallet for DB storage
func toModelWallet(d domain.Wallet) models.Wallet {
	return models.Wallet{
		WalletID:     d.WalletID,
		UserID:       d.UserID,
		Balance:      d.Balance,
		CurrencyCode: d.CurrencyCode,
		Status:       models.WalletStatus(d.Status),
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

// Helper to convert models.Wallet from DB to domain.Wallet
func toDomainWallet(m models.Wallet) domain.Wallet {
	return domain.Wallet{
		WalletID:     m.WalletID,
		UserID:       m.UserID,
		Balance:      m.Balance,
		CurrencyCode: m.CurrencyCode,
		Status:       domain.WalletStatus(m.Status),
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// Helper to convert domain.WalletTransaction to models.WalletTransaction,
// flattening the typed reference into kind+id columns.
func toModelTransaction(d domain.WalletTransaction) models.WalletTransaction {
	m := models.WalletTransaction{
		TransactionID: d.TransactionID,
		WalletID:      d.WalletID,
		Type:          models.TransactionType(d.Type),
		Amount:        d.Amount,
		Status:        models.TransactionStatus(d.Status),
		ReasonCode:    d.ReasonCode,
		Description:   d.Description,
		Metadata:      d.Metadata,
		ProcessedBy:   d.ProcessedBy,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
		RunningBalance: d.RunningBalance,
	}
	if d.Reference != nil {
		kind := string(d.Reference.Kind)
		id := d.Reference.ID
		m.ReferenceKind = &kind
		m.ReferenceID = &id
	}
	return m
}

// Helper to convert models.WalletTransaction from DB to domain.WalletTransaction
func toDomainTransaction(m models.WalletTransaction) domain.WalletTransaction {
	d := domain.WalletTransaction{
		TransactionID: m.TransactionID,
		WalletID:      m.WalletID,
		Type:          domain.TransactionType(m.Type),
		Amount:        m.Amount,
		Status:        domain.TransactionStatus(m.Status),
		ReasonCode:    m.ReasonCode,
		Description:   m.Description,
		Metadata:      m.Metadata,
		ProcessedBy:   m.ProcessedBy,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
		RunningBalance: m.RunningBalance,
	}
	if m.ReferenceKind != nil && m.ReferenceID != nil {
		d.Reference = &domain.Reference{
			Kind: domain.ReferenceKind(*m.ReferenceKind),
			ID:   *m.ReferenceID,
		}
	}
	return d
}

// SaveWallet inserts a new wallet. The user_id column carries a unique
// constraint, so a second wallet for the same user surfaces as ErrDuplicate.
func (r *PgxWalletRepository) SaveWallet(ctx context.Context, wallet domain.Wallet) error {
	modelWallet := toModelWallet(wallet)

	query := `
		INSERT INTO wallets (wallet_id, user_id, balance, currency_code, status, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelWallet.WalletID,
		modelWallet.UserID,
		modelWallet.Balance,
		modelWallet.CurrencyCode,
		modelWallet.Status,
		modelWallet.CreatedAt,
		modelWallet.CreatedBy,
		modelWallet.LastUpdatedAt,
		modelWallet.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: wallet already exists for user %s", apperrors.ErrDuplicate, modelWallet.UserID)
		}
		return fmt.Errorf("failed to save wallet %s: %w", modelWallet.WalletID, err)
	}
	return nil
}

// FindWalletByID retrieves a wallet by its ID.
func (r *PgxWalletRepository) FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	query := `SELECT ` + selectWalletFields + ` FROM wallets WHERE wallet_id = $1;`
	return r.scanWalletRow(r.Pool.QueryRow(ctx, query, walletID), walletID)
}

// FindWalletByUserID retrieves the wallet owned by the given user.
func (r *PgxWalletRepository) FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `SELECT ` + selectWalletFields + ` FROM wallets WHERE user_id = $1;`
	return r.scanWalletRow(r.Pool.QueryRow(ctx, query, userID), userID)
}

// FindWalletByIDForUpdate selects the wallet row with a FOR UPDATE lock.
// Every balance mutation for this wallet serializes behind this lock.
func (r *PgxWalletRepository) FindWalletByIDForUpdate(ctx context.Context, tx pgx.Tx, walletID string) (*domain.Wallet, error) {
	query := `SELECT ` + selectWalletFields + ` FROM wallets WHERE wallet_id = $1 FOR UPDATE;`
	return r.scanWalletRow(tx.QueryRow(ctx, query, walletID), walletID)
}

func (r *PgxWalletRepository) scanWalletRow(row pgx.Row, id string) (*domain.Wallet, error) {
	var m models.Wallet
	err := row.Scan(
		&m.WalletID,
		&m.UserID,
		&m.Balance,
		&m.CurrencyCode,
		&m.Status,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find wallet %s: %w", id, err)
	}
	wallet := toDomainWallet(m)
	return &wallet, nil
}

// UpdateWalletStatusInTx transitions a wallet's status within the given
// transaction. Never touches the balance.
func (r *PgxWalletRepository) UpdateWalletStatusInTx(ctx context.Context, tx pgx.Tx, walletID string, status domain.WalletStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE wallets
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE wallet_id = $1;
	`
	tag, err := tx.Exec(ctx, query, walletID, models.WalletStatus(status), updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update status of wallet %s: %w", walletID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateWalletBalanceInTx writes the new cached balance within the given transaction.
func (r *PgxWalletRepository) UpdateWalletBalanceInTx(ctx context.Context, tx pgx.Tx, walletID string, newBalance decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE wallets
		SET balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE wallet_id = $1;
	`
	tag, err := tx.Exec(ctx, query, walletID, newBalance, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update balance of wallet %s: %w", walletID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// InsertTransactionInTx appends one ledger entry within the given transaction.
func (r *PgxWalletRepository) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.WalletTransaction) error {
	m := toModelTransaction(txn)

	var metadataJSON []byte
	if len(m.Metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("%w: failed to marshal metadata for transaction %s: %v", apperrors.ErrInternal, m.TransactionID, err)
		}
	}

	query := `
		INSERT INTO wallet_transactions (
			transaction_id, wallet_id, transaction_type, amount, status,
			reason_code, description, reference_kind, reference_id, metadata,
			processed_by, running_balance,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := tx.Exec(ctx, query,
		m.TransactionID,
		m.WalletID,
		m.Type,
		m.Amount,
		m.Status,
		m.ReasonCode,
		m.Description,
		m.ReferenceKind,
		m.ReferenceID,
		metadataJSON,
		m.ProcessedBy,
		m.RunningBalance,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: transaction %s already exists", apperrors.ErrDuplicate, m.TransactionID)
		}
		return fmt.Errorf("failed to insert transaction %s: %w", m.TransactionID, err)
	}
	return nil
}

// MarkTransactionReversedInTx flips a COMPLETED entry to REVERSED. The status
// guard in the WHERE clause means the loser of a concurrent double reversal
// updates zero rows and gets ErrConflict.
func (r *PgxWalletRepository) MarkTransactionReversedInTx(ctx context.Context, tx pgx.Tx, transactionID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE wallet_transactions
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = $1 AND status = $5;
	`
	tag, err := tx.Exec(ctx, query,
		transactionID,
		models.TransactionReversed,
		updatedAt,
		updatedBy,
		models.TransactionCompleted,
	)
	if err != nil {
		return fmt.Errorf("failed to mark transaction %s reversed: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s is not in COMPLETED status", apperrors.ErrConflict, transactionID)
	}
	return nil
}

// FindTransactionByID retrieves a specific ledger entry.
func (r *PgxWalletRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.WalletTransaction, error) {
	query := `SELECT ` + selectTransactionFields + ` FROM wallet_transactions WHERE transaction_id = $1;`
	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	txn := toDomainTransaction(*m)
	return &txn, nil
}

// ListTransactionsByWalletID retrieves a page of ledger entries for a wallet,
// newest first, using keyset pagination on (created_at, transaction_id).
func (r *PgxWalletRepository) ListTransactionsByWalletID(ctx context.Context, walletID string, limit int, nextToken *string) ([]domain.WalletTransaction, *string, error) {
	args := []interface{}{walletID, limit + 1} // Fetch one extra row to know if there is a next page
	query := `
		SELECT ` + selectTransactionFields + `
		FROM wallet_transactions
		WHERE wallet_id = $1
	`
	if nextToken != nil && *nextToken != "" {
		createdAt, lastID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		query += ` AND (created_at, transaction_id) < ($3, $4)`
		args = append(args, createdAt, lastID)
	}
	query += `
		ORDER BY created_at DESC, transaction_id DESC
		LIMIT $2;
	`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transactions for wallet %s: %w", walletID, err)
	}
	defer rows.Close()

	var txns []domain.WalletTransaction
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, toDomainTransaction(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate transaction rows: %w", err)
	}

	var token *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		t := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		token = &t
	}
	return txns, token, nil
}

// scanTransaction scans one ledger entry from a row.
func scanTransaction(row pgx.Row) (*models.WalletTransaction, error) {
	var m models.WalletTransaction
	var metadataJSON []byte
	err := row.Scan(
		&m.TransactionID,
		&m.WalletID,
		&m.Type,
		&m.Amount,
		&m.Status,
		&m.ReasonCode,
		&m.Description,
		&m.ReferenceKind,
		&m.ReferenceID,
		&metadataJSON,
		&m.ProcessedBy,
		&m.RunningBalance,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &m.Metadata); err != nil {
			return nil, fmt.Errorf("%w: failed to unmarshal metadata for transaction %s: %v", apperrors.ErrInternal, m.TransactionID, err)
		}
	}
	return &m, nil
}
