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

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and their balance effects.
func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const entryColumns = `entry_id, reference_number, entry_date, memo, status,
	posted_at, posted_by, voided_at, voided_by, void_reason, version,
	created_at, created_by, last_updated_at, last_updated_by`

const insertLineQuery = `
	INSERT INTO journal_lines (line_id, entry_id, line_number, account_id, debit, credit, memo)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
`

func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.ReferenceNumber,
		&m.EntryDate,
		&m.Memo,
		&m.Status,
		&m.PostedAt,
		&m.PostedBy,
		&m.VoidedAt,
		&m.VoidedBy,
		&m.VoidReason,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// queueLines adds one insert per line to batch.
func queueLines(batch *pgx.Batch, lines []models.JournalLine) {
	for _, l := range lines {
		batch.Queue(insertLineQuery, l.LineID, l.EntryID, l.LineNumber, l.AccountID, l.Debit, l.Credit, l.Memo)
	}
}

// SaveEntry inserts a draft entry and its lines in one transaction.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	return r.InTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO journal_entries (` + entryColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
		`
		_, err := tx.Exec(ctx, query,
			m.EntryID, m.ReferenceNumber, m.EntryDate, m.Memo, m.Status,
			m.PostedAt, m.PostedBy, m.VoidedAt, m.VoidedBy, m.VoidReason, m.Version,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
		if err != nil {
			return dbError(err, "failed to insert journal entry %s", m.EntryID)
		}

		batch := &pgx.Batch{}
		queueLines(batch, mapping.ToModelJournalLines(entry.Lines))
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return dbError(err, "failed to insert lines of journal entry %s", m.EntryID)
		}
		return nil
	})
}

// FindEntryByID retrieves an entry and its lines.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1;`
	m, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("journal entry %s not found", entryID)
		}
		return nil, dbError(err, "failed to find journal entry %s", entryID)
	}

	lines, err := r.findLines(ctx, []string{entryID})
	if err != nil {
		return nil, err
	}
	entry := mapping.ToDomainJournalEntry(m, lines[entryID])
	return &entry, nil
}

// findLines returns the lines of the given entries grouped by entry id, each group in line order.
func (r *PgxJournalRepository) findLines(ctx context.Context, entryIDs []string) (map[string][]models.JournalLine, error) {
	out := make(map[string][]models.JournalLine, len(entryIDs))
	if len(entryIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT line_id, entry_id, line_number, account_id, debit, credit, memo
		FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_number;
	`
	rows, err := r.Pool.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, dbError(err, "failed to query journal lines")
	}
	defer rows.Close()

	for rows.Next() {
		var l models.JournalLine
		if err := rows.Scan(&l.LineID, &l.EntryID, &l.LineNumber, &l.AccountID, &l.Debit, &l.Credit, &l.Memo); err != nil {
			return nil, dbError(err, "failed to scan journal line row")
		}
		out[l.EntryID] = append(out[l.EntryID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "error iterating journal line rows")
	}
	return out, nil
}

// ListEntries returns a page of entries, newest entry date first.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, filter portsrepo.JournalEntryFilter, page portsrepo.PageRequest) ([]domain.JournalEntry, *string, error) {
	limit := page.EffectiveLimit()

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != nil {
		where = append(where, "status = "+arg(string(*filter.Status)))
	}
	if filter.From != nil {
		where = append(where, "entry_date >= "+arg(domain.DateOf(*filter.From)))
	}
	if filter.To != nil {
		where = append(where, "entry_date <= "+arg(domain.DateOf(*filter.To)))
	}
	if page.NextToken != nil && *page.NextToken != "" {
		cursor, err := pagination.DecodeCursor(*page.NextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("%v", err)
		}
		where = append(where, "(entry_date, created_at, entry_id) < ("+arg(cursor.Date)+", "+arg(cursor.CreatedAt)+", "+arg(cursor.ID)+")")
	}

	query := `SELECT ` + entryColumns + ` FROM journal_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY entry_date DESC, created_at DESC, entry_id DESC LIMIT " + arg(limit+1) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, dbError(err, "failed to query journal entries")
	}
	defer rows.Close()

	headers := make([]models.JournalEntry, 0, limit+1)
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, nil, dbError(err, "failed to scan journal entry row")
		}
		headers = append(headers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, dbError(err, "error iterating journal entry rows")
	}

	var nextToken *string
	if len(headers) > limit {
		headers = headers[:limit]
		last := headers[limit-1]
		token := pagination.EncodeCursor(pagination.Cursor{Date: last.EntryDate, CreatedAt: last.CreatedAt, ID: last.EntryID})
		nextToken = &token
	}

	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.EntryID
	}
	lines, err := r.findLines(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]domain.JournalEntry, len(headers))
	for i, h := range headers {
		entries[i] = mapping.ToDomainJournalEntry(h, lines[h.EntryID])
	}
	return entries, nextToken, nil
}

// FindPostedLines returns the lines of posted entries for one account within the dates.
func (r *PgxJournalRepository) FindPostedLines(ctx context.Context, accountID string, dates portsrepo.DateRange) ([]domain.PostedLine, error) {
	query := `
		SELECT l.line_id, l.entry_id, l.line_number, l.account_id, l.debit, l.credit, l.memo,
		       e.entry_date, e.reference_number, e.memo
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.account_id = $1 AND e.status = 'POSTED'
		  AND ($2::date IS NULL OR e.entry_date >= $2)
		  AND ($3::date IS NULL OR e.entry_date <= $3)
		ORDER BY e.entry_date, e.reference_number, l.line_number;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, dateArg(dates.From), dateArg(dates.To))
	if err != nil {
		return nil, dbError(err, "failed to query posted lines for account %s", accountID)
	}
	defer rows.Close()

	var out []domain.PostedLine
	for rows.Next() {
		var m models.PostedLine
		if err := rows.Scan(
			&m.LineID, &m.EntryID, &m.LineNumber, &m.AccountID, &m.Debit, &m.Credit, &m.Memo,
			&m.EntryDate, &m.ReferenceNumber, &m.EntryMemo,
		); err != nil {
			return nil, dbError(err, "failed to scan posted line for account %s", accountID)
		}
		out = append(out, mapping.ToDomainPostedLine(m))
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "error iterating posted lines for account %s", accountID)
	}
	return out, nil
}

// lockEntry reads the status of an entry under a row lock and checks it is in want.
func lockEntry(ctx context.Context, tx pgx.Tx, entryID string, want domain.EntryStatus, action string) (models.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1 FOR UPDATE;`
	m, err := scanEntry(tx.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m, apperrors.NewNotFoundError("journal entry %s not found", entryID)
		}
		return m, dbError(err, "failed to lock journal entry %s", entryID)
	}
	if domain.EntryStatus(m.Status) != want {
		return m, apperrors.NewStateError("entry %s is %s - only %s entries can be %s", m.ReferenceNumber, m.Status, want, action)
	}
	return m, nil
}

// UpdateDraftEntry rewrites the header and lines of a draft entry.
func (r *PgxJournalRepository) UpdateDraftEntry(ctx context.Context, entry domain.JournalEntry, expectedVersion int) error {
	m := mapping.ToModelJournalEntry(entry)
	return r.InTx(ctx, func(tx pgx.Tx) error {
		current, err := lockEntry(ctx, tx, entry.EntryID, domain.Draft, "updated")
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return apperrors.NewConflictError("entry %s is at version %d, not %d", current.ReferenceNumber, current.Version, expectedVersion)
		}

		query := `
			UPDATE journal_entries
			SET entry_date = $2, memo = $3, version = $4, last_updated_at = $5, last_updated_by = $6
			WHERE entry_id = $1;
		`
		if _, err := tx.Exec(ctx, query, m.EntryID, m.EntryDate, m.Memo, m.Version, m.LastUpdatedAt, m.LastUpdatedBy); err != nil {
			return dbError(err, "failed to update journal entry %s", m.EntryID)
		}

		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM journal_lines WHERE entry_id = $1;`, m.EntryID)
		queueLines(batch, mapping.ToModelJournalLines(entry.Lines))
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return dbError(err, "failed to replace lines of journal entry %s", m.EntryID)
		}
		return nil
	})
}

// PostEntry moves a draft to POSTED and adds its effects to balance_effects.
func (r *PgxJournalRepository) PostEntry(ctx context.Context, entryID string, expectedVersion int, effects []domain.BalanceEffect, postedBy string, postedAt time.Time) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		current, err := lockEntry(ctx, tx, entryID, domain.Draft, "posted")
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return apperrors.NewConflictError("entry %s is at version %d, not %d", current.ReferenceNumber, current.Version, expectedVersion)
		}
		query := `
			UPDATE journal_entries
			SET status = 'POSTED', posted_at = $2, posted_by = $3, version = version + 1,
			    last_updated_at = $2, last_updated_by = $3
			WHERE entry_id = $1;
		`
		if _, err := tx.Exec(ctx, query, entryID, postedAt, postedBy); err != nil {
			return dbError(err, "failed to post journal entry %s", entryID)
		}
		return applyEffects(ctx, tx, effects)
	})
}

// VoidEntry moves a posted entry to VOID and applies the reversing effects.
func (r *PgxJournalRepository) VoidEntry(ctx context.Context, entryID string, effects []domain.BalanceEffect, reason, voidedBy string, voidedAt time.Time) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockEntry(ctx, tx, entryID, domain.Posted, "voided"); err != nil {
			return err
		}
		query := `
			UPDATE journal_entries
			SET status = 'VOID', voided_at = $2, voided_by = $3, void_reason = $4, version = version + 1,
			    last_updated_at = $2, last_updated_by = $3
			WHERE entry_id = $1;
		`
		if _, err := tx.Exec(ctx, query, entryID, voidedAt, voidedBy, reason); err != nil {
			return dbError(err, "failed to void journal entry %s", entryID)
		}
		return applyEffects(ctx, tx, effects)
	})
}

// DeleteDraftEntry removes a draft entry; its lines go with it via ON DELETE CASCADE.
func (r *PgxJournalRepository) DeleteDraftEntry(ctx context.Context, entryID string) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockEntry(ctx, tx, entryID, domain.Draft, "deleted"); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM journal_entries WHERE entry_id = $1;`, entryID); err != nil {
			return dbError(err, "failed to delete journal entry %s", entryID)
		}
		return nil
	})
}

// applyEffects upserts the daily effect totals touched by a posting or void.
func applyEffects(ctx context.Context, tx pgx.Tx, effects []domain.BalanceEffect) error {
	if len(effects) == 0 {
		return nil
	}
	query := `
		INSERT INTO balance_effects (account_id, effect_date, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, effect_date)
		DO UPDATE SET amount = balance_effects.amount + EXCLUDED.amount;
	`
	batch := &pgx.Batch{}
	for _, e := range effects {
		batch.Queue(query, e.AccountID, domain.DateOf(e.EffectDate), e.Amount)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return dbError(err, "failed to apply balance effects")
	}
	return nil
}

// dateArg turns an optional bound into a query argument; nil stays SQL NULL.
func dateArg(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.DateOf(*t)
	return &d
}
