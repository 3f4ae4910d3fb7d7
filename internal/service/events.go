package service

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventRoleCreated           = "role.created"
	EventRoleUpdated           = "role.updated"
	EventRolePermissionsSynced = "role.permissions_synced"
	EventRoleDeleted           = "role.deleted"
	EventPermissionCreated     = "permission.created"
	EventPermissionUpdated     = "permission.updated"
	EventPermissionDeleted     = "permission.deleted"
	EventUserCreated           = "user.created"
	EventUserUpdated           = "user.updated"
	EventUserRolesSynced       = "user.roles_synced"
	EventUserDeleted           = "user.deleted"
)

// Event announces that authorization data changed. Clients re-fetch what they
// need; events never carry grants.
type Event struct {
	Type     string    `json:"type"`
	EntityID uuid.UUID `json:"entity_id"`
	Name     string    `json:"name"`
	At       time.Time `json:"at"`
}

// EventPublisher receives events after the change is committed.
type EventPublisher interface {
	Publish(e Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func newEvent(typ string, id uuid.UUID, name string) Event {
	return Event{Type: typ, EntityID: id, Name: name, At: time.Now().UTC()}
}
