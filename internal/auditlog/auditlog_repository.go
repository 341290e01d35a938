package auditlog

import (
	"fmt"
	"time"

	"assetdesk/internal/repository"

	"github.com/doug-martin/goqu/v9"
)

const (
	EntityAssignment    = "assignment"
	EntityRequestReturn = "request_return"

	ActionCreate   = "CREATE"
	ActionAccept   = "ACCEPT"
	ActionDecline  = "DECLINE"
	ActionCancel   = "CANCEL"
	ActionComplete = "COMPLETE"
)

// Entry is one recorded lifecycle transition.
type Entry struct {
	ID         int       `db:"id" json:"id"`
	EntityType string    `db:"entity_type" json:"entityType"`
	EntityID   int       `db:"entity_id" json:"entityId"`
	Action     string    `db:"action" json:"action"`
	ActorID    int       `db:"actor_id" json:"actorId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Recorder persists lifecycle transitions. Record runs on the caller's
// transaction, so the trail commits or rolls back with the change itself.
type Recorder interface {
	Record(tx *goqu.TxDatabase, entry Entry) error
}

type AuditLogRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AuditLogRepository {
	return &AuditLogRepository{repository: r}
}

func (r *AuditLogRepository) Record(tx *goqu.TxDatabase, entry Entry) error {
	_, err := tx.Insert("audit_logs").
		Rows(goqu.Record{
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID,
			"action":      entry.Action,
			"actor_id":    entry.ActorID,
		}).
		Executor().
		Exec()

	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

func (r *AuditLogRepository) ListRecent(limit uint) ([]Entry, error) {
	var entries []Entry

	err := r.repository.GoquDBWrapper.
		Select("id", "entity_type", "entity_id", "action", "actor_id", "created_at").
		From("audit_logs").
		Order(goqu.I("id").Desc()).
		Limit(limit).
		Executor().
		ScanStructs(&entries)

	if err != nil {
		return nil, fmt.Errorf("unable to select audit entries: %w", err)
	}

	return entries, nil
}
