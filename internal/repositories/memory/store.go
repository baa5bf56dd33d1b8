// Package memory is an in-process implementation of every repository port.
// A single mutex serialises writers, which gives each method the
// all-or-nothing behaviour the ports require. It backs the "memory" store
// driver and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_recon/internal/utils/pagination"
)

const dayKeyFormat = time.DateOnly

// Store holds all ledger and reconciliation state in maps.
type Store struct {
	mu sync.RWMutex

	accounts map[string]domain.Account
	entries  map[string]domain.JournalEntry
	// effects[accountID][YYYY-MM-DD] is the net signed change on that day.
	effects map[string]map[string]decimal.Decimal

	reconciliations map[string]domain.Reconciliation
	recAccounts     map[string]domain.ReconciliationAccount
	recAccountIDs   map[string][]string
	transactions    map[string]domain.ReconciliationTransaction

	sequences map[string]int64
	audit     []domain.AuditRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:        make(map[string]domain.Account),
		entries:         make(map[string]domain.JournalEntry),
		effects:         make(map[string]map[string]decimal.Decimal),
		reconciliations: make(map[string]domain.Reconciliation),
		recAccounts:     make(map[string]domain.ReconciliationAccount),
		recAccountIDs:   make(map[string][]string),
		transactions:    make(map[string]domain.ReconciliationTransaction),
		sequences:       make(map[string]int64),
	}
}

var (
	_ portsrepo.AccountReader                  = (*Store)(nil)
	_ portsrepo.JournalRepositoryFacade        = (*Store)(nil)
	_ portsrepo.BalanceReader                  = (*Store)(nil)
	_ portsrepo.ReconciliationRepositoryFacade = (*Store)(nil)
	_ portsrepo.SequenceRepository             = (*Store)(nil)
	_ portsrepo.AuditRepository                = (*Store)(nil)
)

// Provider exposes the store through every repository port.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:        s,
		JournalRepo:        s,
		BalanceRepo:        s,
		ReconciliationRepo: s,
		SequenceRepo:       s,
		AuditRepo:          s,
	}
}

// AddAccount registers an account. Accounts are owned elsewhere; this is
// how they are seeded.
func (s *Store) AddAccount(acc domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.AccountID] = acc
}

func alive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewInternalError("memory store call abandoned", err)
	}
	return nil
}

// --- accounts ---

func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, apperrors.NewNotFoundError("account %s not found", accountID)
	}
	return &acc, nil
}

func (s *Store) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if acc, ok := s.accounts[id]; ok {
			out[id] = acc
		}
	}
	return out, nil
}

// --- journal entries ---

func (s *Store) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.EntryID]; exists {
		return apperrors.NewConflictError("entry %s already exists", entry.EntryID)
	}
	s.entries[entry.EntryID] = cloneEntry(entry)
	return nil
}

func (s *Store) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return nil, apperrors.NewNotFoundError("journal entry %s not found", entryID)
	}
	out := cloneEntry(entry)
	return &out, nil
}

func (s *Store) ListEntries(ctx context.Context, filter portsrepo.JournalEntryFilter, page portsrepo.PageRequest) ([]domain.JournalEntry, *string, error) {
	if err := alive(ctx); err != nil {
		return nil, nil, err
	}
	cursor, err := decodeCursor(page.NextToken)
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	matching := make([]domain.JournalEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if !inRange(e.EntryDate, filter.DateRange) {
			continue
		}
		if cursor != nil && !cursor.Follows(e.EntryDate, e.CreatedAt, e.EntryID) {
			continue
		}
		matching = append(matching, cloneEntry(e))
	}
	s.mu.RUnlock()

	sort.Slice(matching, func(i, j int) bool {
		a, b := matching[i], matching[j]
		return pagination.Cursor{Date: a.EntryDate, CreatedAt: a.CreatedAt, ID: a.EntryID}.Follows(b.EntryDate, b.CreatedAt, b.EntryID)
	})

	limit := page.EffectiveLimit()
	if len(matching) <= limit {
		return matching, nil, nil
	}
	matching = matching[:limit]
	last := matching[limit-1]
	token := pagination.EncodeCursor(pagination.Cursor{Date: last.EntryDate, CreatedAt: last.CreatedAt, ID: last.EntryID})
	return matching, &token, nil
}

func (s *Store) FindPostedLines(ctx context.Context, accountID string, dates portsrepo.DateRange) ([]domain.PostedLine, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PostedLine
	for _, e := range s.entries {
		if e.Status != domain.Posted || !inRange(e.EntryDate, dates) {
			continue
		}
		for _, l := range e.Lines {
			if l.AccountID != accountID {
				continue
			}
			out = append(out, domain.PostedLine{
				JournalLine:     l,
				EntryDate:       e.EntryDate,
				ReferenceNumber: e.ReferenceNumber,
				EntryMemo:       e.Memo,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		if a.ReferenceNumber != b.ReferenceNumber {
			return a.ReferenceNumber < b.ReferenceNumber
		}
		return a.LineNumber < b.LineNumber
	})
	return out, nil
}

func (s *Store) UpdateDraftEntry(ctx context.Context, entry domain.JournalEntry, expectedVersion int) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.entryInStatus(entry.EntryID, domain.Draft, "updated")
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return apperrors.NewConflictError("entry %s is at version %d, not %d", current.ReferenceNumber, current.Version, expectedVersion)
	}
	s.entries[entry.EntryID] = cloneEntry(entry)
	return nil
}

func (s *Store) PostEntry(ctx context.Context, entryID string, expectedVersion int, effects []domain.BalanceEffect, postedBy string, postedAt time.Time) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, err := s.entryInStatus(entryID, domain.Draft, "posted")
	if err != nil {
		return err
	}
	if entry.Version != expectedVersion {
		return apperrors.NewConflictError("entry %s is at version %d, not %d", entry.ReferenceNumber, entry.Version, expectedVersion)
	}
	s.applyEffects(effects)
	entry.Status = domain.Posted
	entry.PostedAt = &postedAt
	entry.PostedBy = &postedBy
	entry.Version++
	entry.LastUpdatedAt = postedAt
	entry.LastUpdatedBy = postedBy
	s.entries[entryID] = entry
	return nil
}

func (s *Store) VoidEntry(ctx context.Context, entryID string, effects []domain.BalanceEffect, reason, voidedBy string, voidedAt time.Time) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, err := s.entryInStatus(entryID, domain.Posted, "voided")
	if err != nil {
		return err
	}
	s.applyEffects(effects)
	entry.Status = domain.Void
	entry.VoidedAt = &voidedAt
	entry.VoidedBy = &voidedBy
	entry.VoidReason = &reason
	entry.Version++
	entry.LastUpdatedAt = voidedAt
	entry.LastUpdatedBy = voidedBy
	s.entries[entryID] = entry
	return nil
}

func (s *Store) DeleteDraftEntry(ctx context.Context, entryID string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.entryInStatus(entryID, domain.Draft, "deleted"); err != nil {
		return err
	}
	delete(s.entries, entryID)
	return nil
}

// entryInStatus returns a copy of the entry if it is in want. Caller holds the lock.
func (s *Store) entryInStatus(entryID string, want domain.EntryStatus, action string) (domain.JournalEntry, error) {
	entry, ok := s.entries[entryID]
	if !ok {
		return domain.JournalEntry{}, apperrors.NewNotFoundError("journal entry %s not found", entryID)
	}
	if entry.Status != want {
		return domain.JournalEntry{}, apperrors.NewStateError("entry %s is %s - only %s entries can be %s", entry.ReferenceNumber, entry.Status, want, action)
	}
	return cloneEntry(entry), nil
}

// applyEffects adds effects to the daily totals. Caller holds the lock.
func (s *Store) applyEffects(effects []domain.BalanceEffect) {
	for _, e := range effects {
		days, ok := s.effects[e.AccountID]
		if !ok {
			days = make(map[string]decimal.Decimal)
			s.effects[e.AccountID] = days
		}
		key := domain.DateOf(e.EffectDate).Format(dayKeyFormat)
		days[key] = days[key].Add(e.Amount)
	}
}

// --- balances ---

func (s *Store) SumEffects(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	if err := alive(ctx); err != nil {
		return decimal.Zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := domain.DateOf(asOf).Format(dayKeyFormat)
	total := decimal.Zero
	for day, amount := range s.effects[accountID] {
		if day <= cutoff {
			total = total.Add(amount)
		}
	}
	return total, nil
}

// --- sequences and audit ---

func (s *Store) NextSequenceValue(ctx context.Context, prefix string, year int) (int64, error) {
	if err := alive(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s-%d", prefix, year)
	s.sequences[key]++
	return s.sequences[key], nil
}

func (s *Store) SaveAuditRecord(ctx context.Context, record domain.AuditRecord) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, record)
	return nil
}

func (s *Store) ListAuditRecords(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.AuditRecord, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditRecord
	for _, r := range s.audit {
		if r.EntityType == entityType && r.EntityID == entityID {
			out = append(out, r)
		}
	}
	return out, nil
}

func decodeCursor(token *string) (*pagination.Cursor, error) {
	if token == nil || *token == "" {
		return nil, nil
	}
	c, err := pagination.DecodeCursor(*token)
	if err != nil {
		return nil, apperrors.NewValidationError("%v", err)
	}
	return &c, nil
}

func inRange(date time.Time, r portsrepo.DateRange) bool {
	day := domain.DateOf(date)
	if r.From != nil && day.Before(domain.DateOf(*r.From)) {
		return false
	}
	if r.To != nil && day.After(domain.DateOf(*r.To)) {
		return false
	}
	return true
}

func cloneEntry(e domain.JournalEntry) domain.JournalEntry {
	e.Lines = append([]domain.JournalLine(nil), e.Lines...)
	return e
}
