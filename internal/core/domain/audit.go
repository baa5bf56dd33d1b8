package domain

import "time"

// EntityType names the kind of record an audit entry refers to.
type EntityType string

const (
	EntityJournalEntry          EntityType = "JOURNAL_ENTRY"
	EntityReconciliation        EntityType = "RECONCILIATION"
	EntityReconciliationAccount EntityType = "RECONCILIATION_ACCOUNT"
)

// DeletedStatus is recorded as the new status when a draft entry is removed.
const DeletedStatus = "DELETED"

// AuditRecord describes one state transition.
type AuditRecord struct {
	AuditID        string     `json:"auditID"`
	EntityType     EntityType `json:"entityType"`
	EntityID       string     `json:"entityID"`
	PreviousStatus string     `json:"previousStatus"`
	NewStatus      string     `json:"newStatus"`
	ActorID        string     `json:"actorID"`
	Timestamp      time.Time  `json:"timestamp"`
	Reason         string     `json:"reason,omitempty"`
}
