package models

import "time"

type AuditLog struct {
	ID          string    `db:"id"`
	ActorID     string    `db:"actor_id"`
	Entity      string    `db:"entity"`
	EntityId    string    `db:"entity_id"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}
