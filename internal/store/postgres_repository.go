/**
 * @description
 * This file provides the PostgreSQL implementation of the repository
 * interfaces. It contains the SQL for the three tables of the banking
 * subsystem: the single-row banking_session table, the actors table and the
 * transactions table.
 *
 * @notes
 * - banking_session holds at most one row; ReplaceCredential deletes then
 *   inserts inside one transaction so the "exactly one active session"
 *   invariant lives in code rather than by convention.
 * - transactions.id is the dedup key; InsertTransaction relies on
 *   ON CONFLICT DO NOTHING so re-synchronizing an overlapping window is
 *   idempotent.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: the PostgreSQL driver.
 */

package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GhomKrosmonaute/ruel-stroud/internal/domain"
)

// PostgresRepository is the pgx-backed implementation of the repository
// interfaces.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// LoadCredential returns the stored session credential, or the zero value when
// the table is empty.
func (r *PostgresRepository) LoadCredential(ctx context.Context) (domain.SessionCredential, error) {
	var cred domain.SessionCredential
	query := `SELECT access_token, agreement_id, requisition_id FROM banking_session LIMIT 1`
	err := r.db.QueryRow(ctx, query).Scan(&cred.AccessToken, &cred.AgreementID, &cred.RequisitionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.SessionCredential{}, nil
		}
		return domain.SessionCredential{}, err
	}
	return cred, nil
}

// ReplaceCredential replaces the stored credential with cred. The delete and
// the insert run in one transaction.
func (r *PostgresRepository) ReplaceCredential(ctx context.Context, cred domain.SessionCredential) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM banking_session`); err != nil {
		return err
	}

	query := `INSERT INTO banking_session (access_token, agreement_id, requisition_id) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, query, cred.AccessToken, cred.AgreementID, cred.RequisitionID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpsertActor inserts the actor by name if absent and returns it. The
// DO UPDATE no-op makes RETURNING yield the id on the conflict path too.
func (r *PostgresRepository) UpsertActor(ctx context.Context, name string) (domain.Actor, error) {
	actor := domain.Actor{Name: name}
	query := `
		INSERT INTO actors (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	if err := r.db.QueryRow(ctx, query, name).Scan(&actor.ID); err != nil {
		return domain.Actor{}, err
	}
	return actor, nil
}

// InsertTransaction writes the transaction unless its id already exists.
func (r *PostgresRepository) InsertTransaction(ctx context.Context, txn domain.Transaction) (bool, error) {
	query := `
		INSERT INTO transactions (id, actor_id, amount, date, raw)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, txn.ID, txn.ActorID, txn.Amount, txn.Date, txn.Raw)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecentTransactions returns the limit newest transactions, most recent first.
func (r *PostgresRepository) RecentTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT id, actor_id, amount, date, raw
		FROM transactions
		ORDER BY date DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		if err := rows.Scan(&txn.ID, &txn.ActorID, &txn.Amount, &txn.Date, &txn.Raw); err != nil {
			return nil, err
		}
		result = append(result, txn)
	}
	return result, rows.Err()
}
