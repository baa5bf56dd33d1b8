package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
)

// DefaultAuditMaxRetries is how many times a failed audit write is retried.
const DefaultAuditMaxRetries = 3

// repositoryAuditSink stores audit records through the audit repository.
type repositoryAuditSink struct {
	repo portsrepo.AuditRepository
}

// NewRepositoryAuditSink adapts an AuditRepository to the AuditSink port.
func NewRepositoryAuditSink(repo portsrepo.AuditRepository) portssvc.AuditSink {
	return &repositoryAuditSink{repo: repo}
}

var _ portssvc.AuditSink = (*repositoryAuditSink)(nil)

func (s *repositoryAuditSink) Record(ctx context.Context, record domain.AuditRecord) error {
	return s.repo.SaveAuditRecord(ctx, record)
}

// auditRecorder sends one record per transition to the sink. Audit is best
// effort: failed writes are retried with exponential backoff, then logged,
// and never fail the operation that produced them.
type auditRecorder struct {
	BaseService
	sink       portssvc.AuditSink
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

func newAuditRecorder(sink portssvc.AuditSink, maxRetries uint64, base BaseService) *auditRecorder {
	return &auditRecorder{
		BaseService: base,
		sink:        sink,
		maxRetries:  maxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxElapsedTime = 2 * time.Second
			return b
		},
	}
}

// record writes the transition of entityID from prev to next. It detaches
// from ctx cancellation because the business change is already committed.
func (a *auditRecorder) record(ctx context.Context, entityType domain.EntityType, entityID, prev, next, actorID, reason string) {
	if a == nil || a.sink == nil {
		return
	}
	rec := domain.AuditRecord{
		AuditID:        uuid.NewString(),
		EntityType:     entityType,
		EntityID:       entityID,
		PreviousStatus: prev,
		NewStatus:      next,
		ActorID:        actorID,
		Timestamp:      a.NowUTC(),
		Reason:         reason,
	}

	ctx = context.WithoutCancel(ctx)
	op := func() error {
		callCtx, cancel := a.WithTimeout(ctx)
		defer cancel()
		return a.sink.Record(callCtx, rec)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(a.newBackOff(), a.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		a.LogError(ctx, err, "Failed to record audit entry",
			slog.String("entity_type", string(entityType)),
			slog.String("entity_id", entityID),
			slog.String("previous_status", prev),
			slog.String("new_status", next))
	}
}

// sequenceGenerator formats counters from the sequence repository as
// PREFIX-YYYY-NNNN references.
type sequenceGenerator struct {
	repo portsrepo.SequenceRepository
}

// NewSequenceGenerator adapts a SequenceRepository to the SequenceGenerator port.
func NewSequenceGenerator(repo portsrepo.SequenceRepository) portssvc.SequenceGenerator {
	return &sequenceGenerator{repo: repo}
}

var _ portssvc.SequenceGenerator = (*sequenceGenerator)(nil)

func (g *sequenceGenerator) Next(ctx context.Context, prefix string, at time.Time) (string, error) {
	year := at.UTC().Year()
	seq, err := g.repo.NextSequenceValue(ctx, prefix, year)
	if err != nil {
		return "", err
	}
	return domain.FormatReference(prefix, year, seq), nil
}
