package mapping

import (
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/SscSPs/ledger_recon/internal/models"
)

// ToModelAuditFields converts a domain AuditFields to a model AuditFields
func ToModelAuditFields(d domain.AuditFields) models.AuditFields {
	return models.AuditFields{
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
		LastUpdatedAt: d.LastUpdatedAt,
		LastUpdatedBy: d.LastUpdatedBy,
	}
}

// ToDomainAuditFields converts a model AuditFields to a domain AuditFields
func ToDomainAuditFields(m models.AuditFields) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
		LastUpdatedAt: m.LastUpdatedAt,
		LastUpdatedBy: m.LastUpdatedBy,
	}
}

// ToModelAuditRecord converts a domain AuditRecord to its row model.
func ToModelAuditRecord(d domain.AuditRecord) models.AuditRecord {
	return models.AuditRecord{
		AuditID:        d.AuditID,
		EntityType:     string(d.EntityType),
		EntityID:       d.EntityID,
		PreviousStatus: d.PreviousStatus,
		NewStatus:      d.NewStatus,
		ActorID:        d.ActorID,
		Timestamp:      d.Timestamp,
		Reason:         d.Reason,
	}
}

// ToDomainAuditRecord converts an audit row to its domain form.
func ToDomainAuditRecord(m models.AuditRecord) domain.AuditRecord {
	return domain.AuditRecord{
		AuditID:        m.AuditID,
		EntityType:     domain.EntityType(m.EntityType),
		EntityID:       m.EntityID,
		PreviousStatus: m.PreviousStatus,
		NewStatus:      m.NewStatus,
		ActorID:        m.ActorID,
		Timestamp:      m.Timestamp.UTC(),
		Reason:         m.Reason,
	}
}
