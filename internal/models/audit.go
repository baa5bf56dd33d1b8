package models

import "time"

// AuditRecord is a row of the audit_records table.
type AuditRecord struct {
	AuditID        string    `db:"audit_id"`
	EntityType     string    `db:"entity_type"`
	EntityID       string    `db:"entity_id"`
	PreviousStatus string    `db:"previous_status"`
	NewStatus      string    `db:"new_status"`
	ActorID        string    `db:"actor_id"`
	Timestamp      time.Time `db:"recorded_at"`
	Reason         string    `db:"reason"`
}
