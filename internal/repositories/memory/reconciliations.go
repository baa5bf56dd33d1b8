package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_recon/internal/utils/pagination"
)

func (s *Store) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reconciliations[rec.ReconciliationID]; exists {
		return apperrors.NewConflictError("reconciliation %s already exists", rec.ReconciliationID)
	}
	ids := make([]string, 0, len(rec.Accounts))
	for _, a := range rec.Accounts {
		s.recAccounts[a.ID] = a
		ids = append(ids, a.ID)
	}
	s.recAccountIDs[rec.ReconciliationID] = ids
	s.reconciliations[rec.ReconciliationID] = header(rec)
	return nil
}

func (s *Store) FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.reconciliations[reconciliationID]
	if !ok {
		return nil, apperrors.NewNotFoundError("reconciliation %s not found", reconciliationID)
	}
	out := s.assemble(rec)
	return &out, nil
}

func (s *Store) ListReconciliations(ctx context.Context, filter portsrepo.ReconciliationFilter, page portsrepo.PageRequest) ([]domain.Reconciliation, *string, error) {
	if err := alive(ctx); err != nil {
		return nil, nil, err
	}
	cursor, err := decodeCursor(page.NextToken)
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	matching := make([]domain.Reconciliation, 0, len(s.reconciliations))
	for _, rec := range s.reconciliations {
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		if filter.AccountID != nil && !contains(rec.AccountIDs, *filter.AccountID) {
			continue
		}
		if cursor != nil && !cursor.Follows(rec.CreatedAt, rec.CreatedAt, rec.ReconciliationID) {
			continue
		}
		matching = append(matching, s.assemble(rec))
	}
	s.mu.RUnlock()

	sort.Slice(matching, func(i, j int) bool {
		a, b := matching[i], matching[j]
		return pagination.Cursor{Date: a.CreatedAt, CreatedAt: a.CreatedAt, ID: a.ReconciliationID}.Follows(b.CreatedAt, b.CreatedAt, b.ReconciliationID)
	})

	limit := page.EffectiveLimit()
	if len(matching) <= limit {
		return matching, nil, nil
	}
	matching = matching[:limit]
	last := matching[limit-1]
	token := pagination.EncodeCursor(pagination.Cursor{Date: last.CreatedAt, CreatedAt: last.CreatedAt, ID: last.ReconciliationID})
	return matching, &token, nil
}

func (s *Store) UpdateReconciliation(ctx context.Context, rec domain.Reconciliation, expectedVersion int) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.reconciliations[rec.ReconciliationID]
	if !ok {
		return apperrors.NewNotFoundError("reconciliation %s not found", rec.ReconciliationID)
	}
	if current.Version != expectedVersion {
		return apperrors.NewConflictError("reconciliation %s is at version %d, not %d", current.ReferenceNumber, current.Version, expectedVersion)
	}
	s.reconciliations[rec.ReconciliationID] = header(rec)
	return nil
}

func (s *Store) UpdateReconciliationAccount(ctx context.Context, acct domain.ReconciliationAccount, expectedVersion int) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, err := s.openParent(acct.ID)
	if err != nil {
		return err
	}
	current := s.recAccounts[acct.ID]
	if current.Version != expectedVersion {
		return apperrors.NewConflictError("account %s in reconciliation is at version %d, not %d", current.AccountID, current.Version, expectedVersion)
	}
	s.recAccounts[acct.ID] = acct
	parent.Version++
	s.reconciliations[parent.ReconciliationID] = parent
	return nil
}

func (s *Store) FindReconciliationTransactions(ctx context.Context, reconciliationAccountID string) ([]domain.ReconciliationTransaction, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rowsOf(reconciliationAccountID), nil
}

func (s *Store) ReplaceLedgerTransactions(ctx context.Context, reconciliationAccountID string, rows []domain.ReconciliationTransaction) (bool, error) {
	if err := alive(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.openParent(reconciliationAccountID); err != nil {
		return false, err
	}

	kept := make(map[string]struct{})
	for id, t := range s.transactions {
		if t.ReconciliationAccountID != reconciliationAccountID || t.Source != domain.SourceLedger {
			continue
		}
		if t.Matched {
			kept[t.SourceRef] = struct{}{}
			continue
		}
		delete(s.transactions, id)
	}
	for _, r := range rows {
		if _, dup := kept[r.SourceRef]; dup {
			continue
		}
		kept[r.SourceRef] = struct{}{}
		s.transactions[r.ID] = r
	}
	return s.start(reconciliationAccountID), nil
}

func (s *Store) SaveExternalTransactions(ctx context.Context, reconciliationAccountID string, rows []domain.ReconciliationTransaction) (int, bool, error) {
	if err := alive(ctx); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.openParent(reconciliationAccountID); err != nil {
		return 0, false, err
	}

	existing := make(map[string]struct{})
	for _, t := range s.transactions {
		if t.Source == domain.SourceExternal && t.ReconciliationAccountID == reconciliationAccountID {
			existing[t.SourceRef] = struct{}{}
		}
	}
	stored := 0
	for _, r := range rows {
		if _, dup := existing[r.SourceRef]; dup {
			continue
		}
		existing[r.SourceRef] = struct{}{}
		r.ReconciliationAccountID = reconciliationAccountID
		s.transactions[r.ID] = r
		stored++
	}
	return stored, s.start(reconciliationAccountID), nil
}

func (s *Store) ApplyMatches(ctx context.Context, reconciliationAccountID string, links []domain.MatchLink, matchedBy string, matchedAt time.Time) (bool, error) {
	if err := alive(ctx); err != nil {
		return false, err
	}
	if len(links) == 0 {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.openParent(reconciliationAccountID); err != nil {
		return false, err
	}

	// validate everything before touching any row
	claimed := make(map[string]struct{}, 2*len(links))
	for _, l := range links {
		for _, id := range []string{l.LedgerID, l.ExternalID} {
			t, ok := s.transactions[id]
			if !ok || t.ReconciliationAccountID != reconciliationAccountID {
				return false, apperrors.NewNotFoundError("transaction %s not found", id)
			}
			if _, twice := claimed[id]; twice || t.Matched {
				return false, apperrors.NewConflictError("transaction %s is already matched", id)
			}
			claimed[id] = struct{}{}
		}
	}

	for _, l := range links {
		s.link(l.LedgerID, l.ExternalID, l.Kind, l.Notes, matchedBy, matchedAt)
		s.link(l.ExternalID, l.LedgerID, l.Kind, l.Notes, matchedBy, matchedAt)
	}
	return s.start(reconciliationAccountID), nil
}

func (s *Store) ClearMatch(ctx context.Context, reconciliationAccountID, transactionID string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.openParent(reconciliationAccountID); err != nil {
		return err
	}

	t, ok := s.transactions[transactionID]
	if !ok || t.ReconciliationAccountID != reconciliationAccountID {
		return apperrors.NewNotFoundError("transaction %s not found", transactionID)
	}
	if !t.Matched || t.MatchedWithID == nil {
		return apperrors.NewStateError("transaction %s is not matched", transactionID)
	}
	counterpart := *t.MatchedWithID
	s.unlink(transactionID)
	s.unlink(counterpart)
	return nil
}

// openParent returns the reconciliation owning the account sub-record,
// failing unless it is IN_PROGRESS. Caller holds the lock.
func (s *Store) openParent(reconciliationAccountID string) (domain.Reconciliation, error) {
	acct, ok := s.recAccounts[reconciliationAccountID]
	if !ok {
		return domain.Reconciliation{}, apperrors.NewNotFoundError("reconciliation account %s not found", reconciliationAccountID)
	}
	parent, ok := s.reconciliations[acct.ReconciliationID]
	if !ok {
		return domain.Reconciliation{}, apperrors.NewNotFoundError("reconciliation %s not found", acct.ReconciliationID)
	}
	if parent.Status != domain.ReconciliationInProgress {
		return domain.Reconciliation{}, apperrors.NewStateError("reconciliation %s is %s - its accounts can only change while IN_PROGRESS", parent.ReferenceNumber, parent.Status)
	}
	return parent, nil
}

// start moves a PENDING account sub-record to IN_PROGRESS and reports
// whether it did. Caller holds the lock.
func (s *Store) start(reconciliationAccountID string) bool {
	acct := s.recAccounts[reconciliationAccountID]
	if acct.Status != domain.AccountPending {
		return false
	}
	acct.Status = domain.AccountInProgress
	acct.Version++
	s.recAccounts[reconciliationAccountID] = acct
	return true
}

func (s *Store) link(id, other string, kind domain.MatchKind, notes, by string, at time.Time) {
	t := s.transactions[id]
	t.Matched = true
	t.MatchedWithID = &other
	t.MatchKind = &kind
	t.MatchedAt = &at
	t.MatchedBy = &by
	t.Notes = notes
	s.transactions[id] = t
}

func (s *Store) unlink(id string) {
	t, ok := s.transactions[id]
	if !ok {
		return
	}
	t.Matched = false
	t.MatchedWithID = nil
	t.MatchKind = nil
	t.MatchedAt = nil
	t.MatchedBy = nil
	t.Notes = ""
	s.transactions[id] = t
}

// rowsOf returns the rows of one reconciliation account ordered by id. Caller holds the lock.
func (s *Store) rowsOf(reconciliationAccountID string) []domain.ReconciliationTransaction {
	var out []domain.ReconciliationTransaction
	for _, t := range s.transactions {
		if t.ReconciliationAccountID == reconciliationAccountID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// assemble attaches the account sub-records to a stored header. Caller holds the lock.
func (s *Store) assemble(rec domain.Reconciliation) domain.Reconciliation {
	rec.AccountIDs = append([]string(nil), rec.AccountIDs...)
	ids := s.recAccountIDs[rec.ReconciliationID]
	rec.Accounts = make([]domain.ReconciliationAccount, 0, len(ids))
	for _, id := range ids {
		rec.Accounts = append(rec.Accounts, s.recAccounts[id])
	}
	return rec
}

func header(rec domain.Reconciliation) domain.Reconciliation {
	rec.AccountIDs = append([]string(nil), rec.AccountIDs...)
	rec.Accounts = nil
	return rec
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
