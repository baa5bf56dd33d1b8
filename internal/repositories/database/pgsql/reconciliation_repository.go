package pgsql

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_recon/internal/models"
	"github.com/SscSPs/ledger_recon/internal/utils/mapping"
	"github.com/SscSPs/ledger_recon/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxReconciliationRepository struct {
	BaseRepository
}

// newPgxReconciliationRepository creates a repository for reconciliations,
// their account sub-records and the rows being matched.
func newPgxReconciliationRepository(pool *pgxpool.Pool) *PgxReconciliationRepository {
	return &PgxReconciliationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

const reconciliationColumns = `reconciliation_id, reference_number, period_start, period_end, status,
	total_accounts, reconciled_accounts, pending_accounts, disputed_accounts, total_difference,
	completed_at, completed_by, approved_at, approved_by, rejected_at, rejected_by, rejection_reason,
	cancelled_at, cancelled_by, cancellation_reason, version,
	created_at, created_by, last_updated_at, last_updated_by`

const reconciliationAccountColumns = `id, reconciliation_id, account_id, position, opening_balance,
	reconciled_balance, movement, difference, status, notes, resolved_at, resolved_by, version`

const reconciliationTransactionColumns = `id, reconciliation_account_id, source, source_ref, transaction_date,
	reference, amount, transaction_type, matched, matched_with_id, match_kind, matched_at, matched_by,
	notes, created_at`

func scanReconciliation(row pgx.Row) (models.Reconciliation, error) {
	var m models.Reconciliation
	err := row.Scan(
		&m.ReconciliationID, &m.ReferenceNumber, &m.PeriodStart, &m.PeriodEnd, &m.Status,
		&m.TotalAccounts, &m.ReconciledAccounts, &m.PendingAccounts, &m.DisputedAccounts, &m.TotalDifference,
		&m.CompletedAt, &m.CompletedBy, &m.ApprovedAt, &m.ApprovedBy, &m.RejectedAt, &m.RejectedBy, &m.RejectionReason,
		&m.CancelledAt, &m.CancelledBy, &m.CancellationReason, &m.Version,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func scanReconciliationAccount(row pgx.Row) (models.ReconciliationAccount, error) {
	var m models.ReconciliationAccount
	err := row.Scan(
		&m.ID, &m.ReconciliationID, &m.AccountID, &m.Position, &m.OpeningBalance,
		&m.ReconciledBalance, &m.Movement, &m.Difference, &m.Status, &m.Notes, &m.ResolvedAt, &m.ResolvedBy, &m.Version,
	)
	return m, err
}

func scanReconciliationTransaction(row pgx.Row) (models.ReconciliationTransaction, error) {
	var m models.ReconciliationTransaction
	err := row.Scan(
		&m.ID, &m.ReconciliationAccountID, &m.Source, &m.SourceRef, &m.TransactionDate,
		&m.Reference, &m.Amount, &m.Type, &m.Matched, &m.MatchedWithID, &m.MatchKind, &m.MatchedAt, &m.MatchedBy,
		&m.Notes, &m.CreatedAt,
	)
	return m, err
}

// SaveReconciliation inserts the header and every account sub-record.
func (r *PgxReconciliationRepository) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	m := mapping.ToModelReconciliation(rec)
	return r.InTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO reconciliations (` + reconciliationColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25);
		`
		_, err := tx.Exec(ctx, query,
			m.ReconciliationID, m.ReferenceNumber, m.PeriodStart, m.PeriodEnd, m.Status,
			m.TotalAccounts, m.ReconciledAccounts, m.PendingAccounts, m.DisputedAccounts, m.TotalDifference,
			m.CompletedAt, m.CompletedBy, m.ApprovedAt, m.ApprovedBy, m.RejectedAt, m.RejectedBy, m.RejectionReason,
			m.CancelledAt, m.CancelledBy, m.CancellationReason, m.Version,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
		if err != nil {
			return dbError(err, "failed to insert reconciliation %s", m.ReconciliationID)
		}

		accountQuery := `
			INSERT INTO reconciliation_accounts (` + reconciliationAccountColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
		`
		batch := &pgx.Batch{}
		for i, a := range rec.Accounts {
			ma := mapping.ToModelReconciliationAccount(a, i)
			batch.Queue(accountQuery,
				ma.ID, ma.ReconciliationID, ma.AccountID, ma.Position, ma.OpeningBalance,
				ma.ReconciledBalance, ma.Movement, ma.Difference, ma.Status, ma.Notes, ma.ResolvedAt, ma.ResolvedBy, ma.Version,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return dbError(err, "failed to insert accounts of reconciliation %s", m.ReconciliationID)
		}
		return nil
	})
}

// FindReconciliationByID retrieves a reconciliation and its account sub-records.
func (r *PgxReconciliationRepository) FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE reconciliation_id = $1;`
	m, err := scanReconciliation(r.Pool.QueryRow(ctx, query, reconciliationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("reconciliation %s not found", reconciliationID)
		}
		return nil, dbError(err, "failed to find reconciliation %s", reconciliationID)
	}
	accounts, err := r.findAccounts(ctx, []string{reconciliationID})
	if err != nil {
		return nil, err
	}
	rec := mapping.ToDomainReconciliation(m, accounts[reconciliationID])
	return &rec, nil
}

// findAccounts returns the account rows of the given reconciliations, grouped and in position order.
func (r *PgxReconciliationRepository) findAccounts(ctx context.Context, reconciliationIDs []string) (map[string][]models.ReconciliationAccount, error) {
	out := make(map[string][]models.ReconciliationAccount, len(reconciliationIDs))
	if len(reconciliationIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT ` + reconciliationAccountColumns + `
		FROM reconciliation_accounts
		WHERE reconciliation_id = ANY($1)
		ORDER BY reconciliation_id, position;
	`
	rows, err := r.Pool.Query(ctx, query, reconciliationIDs)
	if err != nil {
		return nil, dbError(err, "failed to query reconciliation accounts")
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanReconciliationAccount(rows)
		if err != nil {
			return nil, dbError(err, "failed to scan reconciliation account row")
		}
		out[a.ReconciliationID] = append(out[a.ReconciliationID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "error iterating reconciliation account rows")
	}
	return out, nil
}

// ListReconciliations returns a page of reconciliations, most recently created first.
func (r *PgxReconciliationRepository) ListReconciliations(ctx context.Context, filter portsrepo.ReconciliationFilter, page portsrepo.PageRequest) ([]domain.Reconciliation, *string, error) {
	limit := page.EffectiveLimit()

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != nil {
		where = append(where, "r.status = "+arg(string(*filter.Status)))
	}
	if filter.AccountID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM reconciliation_accounts ra WHERE ra.reconciliation_id = r.reconciliation_id AND ra.account_id = "+arg(*filter.AccountID)+")")
	}
	if page.NextToken != nil && *page.NextToken != "" {
		cursor, err := pagination.DecodeCursor(*page.NextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("%v", err)
		}
		where = append(where, "(r.created_at, r.reconciliation_id) < ("+arg(cursor.CreatedAt)+", "+arg(cursor.ID)+")")
	}

	query := `SELECT ` + prefixColumns("r.", reconciliationColumns) + ` FROM reconciliations r`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.reconciliation_id DESC LIMIT " + arg(limit+1) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, dbError(err, "failed to query reconciliations")
	}
	defer rows.Close()

	headers := make([]models.Reconciliation, 0, limit+1)
	for rows.Next() {
		m, err := scanReconciliation(rows)
		if err != nil {
			return nil, nil, dbError(err, "failed to scan reconciliation row")
		}
		headers = append(headers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, dbError(err, "error iterating reconciliation rows")
	}

	var nextToken *string
	if len(headers) > limit {
		headers = headers[:limit]
		last := headers[limit-1]
		token := pagination.EncodeCursor(pagination.Cursor{Date: last.CreatedAt, CreatedAt: last.CreatedAt, ID: last.ReconciliationID})
		nextToken = &token
	}

	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.ReconciliationID
	}
	accounts, err := r.findAccounts(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	out := make([]domain.Reconciliation, len(headers))
	for i, h := range headers {
		out[i] = mapping.ToDomainReconciliation(h, accounts[h.ReconciliationID])
	}
	return out, nextToken, nil
}

// UpdateReconciliation writes the header if the stored version is expectedVersion.
func (r *PgxReconciliationRepository) UpdateReconciliation(ctx context.Context, rec domain.Reconciliation, expectedVersion int) error {
	m := mapping.ToModelReconciliation(rec)
	query := `
		UPDATE reconciliations
		SET status = $3, total_accounts = $4, reconciled_accounts = $5, pending_accounts = $6,
		    disputed_accounts = $7, total_difference = $8,
		    completed_at = $9, completed_by = $10, approved_at = $11, approved_by = $12,
		    rejected_at = $13, rejected_by = $14, rejection_reason = $15,
		    cancelled_at = $16, cancelled_by = $17, cancellation_reason = $18,
		    version = $19, last_updated_at = $20, last_updated_by = $21
		WHERE reconciliation_id = $1 AND version = $2;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.ReconciliationID, expectedVersion,
		m.Status, m.TotalAccounts, m.ReconciledAccounts, m.PendingAccounts, m.DisputedAccounts, m.TotalDifference,
		m.CompletedAt, m.CompletedBy, m.ApprovedAt, m.ApprovedBy,
		m.RejectedAt, m.RejectedBy, m.RejectionReason,
		m.CancelledAt, m.CancelledBy, m.CancellationReason,
		m.Version, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return dbError(err, "failed to update reconciliation %s", m.ReconciliationID)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return versionMiss(ctx, r.Pool, `SELECT reference_number, version FROM reconciliations WHERE reconciliation_id = $1;`,
		m.ReconciliationID, expectedVersion, "reconciliation")
}

// UpdateReconciliationAccount writes one account sub-record if the stored
// version is expectedVersion and the reconciliation is still IN_PROGRESS.
// The reconciliation row stays locked until commit and its version moves on.
func (r *PgxReconciliationRepository) UpdateReconciliationAccount(ctx context.Context, acct domain.ReconciliationAccount, expectedVersion int) error {
	m := mapping.ToModelReconciliationAccount(acct, 0)
	return r.InTx(ctx, func(tx pgx.Tx) error {
		reconciliationID, err := lockOpenReconciliation(ctx, tx, m.ID, true)
		if err != nil {
			return err
		}

		query := `
			UPDATE reconciliation_accounts
			SET opening_balance = $3, reconciled_balance = $4, movement = $5, difference = $6,
			    status = $7, notes = $8, resolved_at = $9, resolved_by = $10, version = $11
			WHERE id = $1 AND version = $2;
		`
		tag, err := tx.Exec(ctx, query,
			m.ID, expectedVersion,
			m.OpeningBalance, m.ReconciledBalance, m.Movement, m.Difference,
			m.Status, m.Notes, m.ResolvedAt, m.ResolvedBy, m.Version,
		)
		if err != nil {
			return dbError(err, "failed to update reconciliation account %s", m.ID)
		}
		if tag.RowsAffected() != 1 {
			return versionMiss(ctx, tx, `SELECT account_id, version FROM reconciliation_accounts WHERE id = $1;`,
				m.ID, expectedVersion, "reconciliation account")
		}

		if _, err := tx.Exec(ctx, `UPDATE reconciliations SET version = version + 1 WHERE reconciliation_id = $1;`, reconciliationID); err != nil {
			return dbError(err, "failed to bump version of reconciliation %s", reconciliationID)
		}
		return nil
	})
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// versionMiss explains why a version-guarded update touched no row.
func versionMiss(ctx context.Context, q rowQuerier, query, id string, expectedVersion int, what string) error {
	var label string
	var version int
	err := q.QueryRow(ctx, query, id).Scan(&label, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFoundError("%s %s not found", what, id)
	}
	if err != nil {
		return dbError(err, "failed to read version of %s %s", what, id)
	}
	return apperrors.NewConflictError("%s %s is at version %d, not %d", what, label, version, expectedVersion)
}

// lockOpenReconciliation locks the reconciliation owning an account
// sub-record and fails unless it is IN_PROGRESS. A shared lock is enough for
// writes that leave the reconciliation's counters alone; it still blocks a
// concurrent status change until commit.
func lockOpenReconciliation(ctx context.Context, tx pgx.Tx, reconciliationAccountID string, exclusive bool) (string, error) {
	mode := "FOR SHARE OF r"
	if exclusive {
		mode = "FOR UPDATE OF r"
	}
	query := `
		SELECT r.reconciliation_id, r.reference_number, r.status
		FROM reconciliations r
		JOIN reconciliation_accounts a ON a.reconciliation_id = r.reconciliation_id
		WHERE a.id = $1
		` + mode + `;
	`
	var id, reference, status string
	err := tx.QueryRow(ctx, query, reconciliationAccountID).Scan(&id, &reference, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.NewNotFoundError("reconciliation account %s not found", reconciliationAccountID)
	}
	if err != nil {
		return "", dbError(err, "failed to lock reconciliation of account %s", reconciliationAccountID)
	}
	if domain.ReconciliationStatus(status) != domain.ReconciliationInProgress {
		return "", apperrors.NewStateError("reconciliation %s is %s - its accounts can only change while IN_PROGRESS", reference, status)
	}
	return id, nil
}

// startAccount moves a PENDING account sub-record to IN_PROGRESS and reports whether it did.
func startAccount(ctx context.Context, tx pgx.Tx, reconciliationAccountID string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE reconciliation_accounts
		SET status = 'IN_PROGRESS', version = version + 1
		WHERE id = $1 AND status = 'PENDING';
	`, reconciliationAccountID)
	if err != nil {
		return false, dbError(err, "failed to start reconciliation account %s", reconciliationAccountID)
	}
	return tag.RowsAffected() == 1, nil
}

// FindReconciliationTransactions returns the rows of a reconciliation account ordered by id.
func (r *PgxReconciliationRepository) FindReconciliationTransactions(ctx context.Context, reconciliationAccountID string) ([]domain.ReconciliationTransaction, error) {
	query := `
		SELECT ` + reconciliationTransactionColumns + `
		FROM reconciliation_transactions
		WHERE reconciliation_account_id = $1
		ORDER BY id;
	`
	rows, err := r.Pool.Query(ctx, query, reconciliationAccountID)
	if err != nil {
		return nil, dbError(err, "failed to query reconciliation transactions")
	}
	defer rows.Close()

	var out []domain.ReconciliationTransaction
	for rows.Next() {
		m, err := scanReconciliationTransaction(rows)
		if err != nil {
			return nil, dbError(err, "failed to scan reconciliation transaction row")
		}
		out = append(out, mapping.ToDomainReconciliationTransaction(m))
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "error iterating reconciliation transaction rows")
	}
	return out, nil
}

const insertReconciliationTransactionQuery = `
	INSERT INTO reconciliation_transactions (` + reconciliationTransactionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (reconciliation_account_id, source, source_ref) DO NOTHING;
`

func queueTransaction(batch *pgx.Batch, d domain.ReconciliationTransaction) {
	m := mapping.ToModelReconciliationTransaction(d)
	batch.Queue(insertReconciliationTransactionQuery,
		m.ID, m.ReconciliationAccountID, m.Source, m.SourceRef, m.TransactionDate,
		m.Reference, m.Amount, m.Type, m.Matched, m.MatchedWithID, m.MatchKind, m.MatchedAt, m.MatchedBy,
		m.Notes, m.CreatedAt,
	)
}

// ReplaceLedgerTransactions drops the unmatched ledger rows and inserts the fresh ones.
// Matched rows stay, and a fresh row with the same source ref is skipped.
func (r *PgxReconciliationRepository) ReplaceLedgerTransactions(ctx context.Context, reconciliationAccountID string, rows []domain.ReconciliationTransaction) (bool, error) {
	started := false
	err := r.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockOpenReconciliation(ctx, tx, reconciliationAccountID, false); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		batch.Queue(`
			DELETE FROM reconciliation_transactions
			WHERE reconciliation_account_id = $1 AND source = 'LEDGER' AND NOT matched;
		`, reconciliationAccountID)
		for _, row := range rows {
			row.ReconciliationAccountID = reconciliationAccountID
			queueTransaction(batch, row)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return dbError(err, "failed to reload ledger rows of reconciliation account %s", reconciliationAccountID)
		}
		var err error
		started, err = startAccount(ctx, tx, reconciliationAccountID)
		return err
	})
	if err != nil {
		return false, err
	}
	return started, nil
}

// SaveExternalTransactions inserts statement rows and reports how many were new.
func (r *PgxReconciliationRepository) SaveExternalTransactions(ctx context.Context, reconciliationAccountID string, rows []domain.ReconciliationTransaction) (int, bool, error) {
	stored, started := 0, false
	err := r.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockOpenReconciliation(ctx, tx, reconciliationAccountID, false); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, row := range rows {
			row.ReconciliationAccountID = reconciliationAccountID
			queueTransaction(batch, row)
		}
		results := tx.SendBatch(ctx, batch)
		for range rows {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return dbError(err, "failed to insert external transactions")
			}
			stored += int(tag.RowsAffected())
		}
		if err := results.Close(); err != nil {
			return dbError(err, "failed to insert external transactions")
		}
		var err error
		started, err = startAccount(ctx, tx, reconciliationAccountID)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return stored, started, nil
}

// ApplyMatches links every pair or none. The rows are locked first so two
// concurrent callers cannot claim the same row.
func (r *PgxReconciliationRepository) ApplyMatches(ctx context.Context, reconciliationAccountID string, links []domain.MatchLink, matchedBy string, matchedAt time.Time) (bool, error) {
	if len(links) == 0 {
		return false, nil
	}
	ids := make([]string, 0, 2*len(links))
	claimed := make(map[string]struct{}, 2*len(links))
	for _, l := range links {
		for _, id := range []string{l.LedgerID, l.ExternalID} {
			if _, twice := claimed[id]; twice {
				return false, apperrors.NewConflictError("transaction %s is already matched", id)
			}
			claimed[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	started := false
	err := r.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockOpenReconciliation(ctx, tx, reconciliationAccountID, false); err != nil {
			return err
		}
		query := `
			SELECT id, matched
			FROM reconciliation_transactions
			WHERE reconciliation_account_id = $1 AND id = ANY($2)
			ORDER BY id
			FOR UPDATE;
		`
		rows, err := tx.Query(ctx, query, reconciliationAccountID, ids)
		if err != nil {
			return dbError(err, "failed to lock reconciliation transactions")
		}
		matched := make(map[string]bool, len(ids))
		for rows.Next() {
			var id string
			var isMatched bool
			if err := rows.Scan(&id, &isMatched); err != nil {
				rows.Close()
				return dbError(err, "failed to scan reconciliation transaction")
			}
			matched[id] = isMatched
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return dbError(err, "error iterating reconciliation transactions")
		}

		for _, id := range ids {
			isMatched, ok := matched[id]
			if !ok {
				return apperrors.NewNotFoundError("transaction %s not found", id)
			}
			if isMatched {
				return apperrors.NewConflictError("transaction %s is already matched", id)
			}
		}

		update := `
			UPDATE reconciliation_transactions
			SET matched = TRUE, matched_with_id = $2, match_kind = $3, matched_at = $4, matched_by = $5, notes = $6
			WHERE id = $1;
		`
		batch := &pgx.Batch{}
		for _, l := range links {
			batch.Queue(update, l.LedgerID, l.ExternalID, string(l.Kind), matchedAt, matchedBy, l.Notes)
			batch.Queue(update, l.ExternalID, l.LedgerID, string(l.Kind), matchedAt, matchedBy, l.Notes)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return dbError(err, "failed to apply matches")
		}
		started, err = startAccount(ctx, tx, reconciliationAccountID)
		return err
	})
	if err != nil {
		return false, err
	}
	return started, nil
}

// ClearMatch unlinks a matched row and its counterpart.
func (r *PgxReconciliationRepository) ClearMatch(ctx context.Context, reconciliationAccountID, transactionID string) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockOpenReconciliation(ctx, tx, reconciliationAccountID, false); err != nil {
			return err
		}
		var matched bool
		var counterpart *string
		err := tx.QueryRow(ctx, `
			SELECT matched, matched_with_id
			FROM reconciliation_transactions
			WHERE reconciliation_account_id = $1 AND id = $2
			FOR UPDATE;
		`, reconciliationAccountID, transactionID).Scan(&matched, &counterpart)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("transaction %s not found", transactionID)
		}
		if err != nil {
			return dbError(err, "failed to lock transaction %s", transactionID)
		}
		if !matched || counterpart == nil {
			return apperrors.NewStateError("transaction %s is not matched", transactionID)
		}

		_, err = tx.Exec(ctx, `
			UPDATE reconciliation_transactions
			SET matched = FALSE, matched_with_id = NULL, match_kind = NULL, matched_at = NULL, matched_by = NULL, notes = ''
			WHERE id = ANY($1);
		`, []string{transactionID, *counterpart})
		if err != nil {
			return dbError(err, "failed to clear match of transaction %s", transactionID)
		}
		return nil
	})
}

// prefixColumns qualifies a comma separated column list with a table alias.
func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
