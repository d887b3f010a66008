package service

import (
	"time"

	"cafe-stock/internal/model"
	"cafe-stock/internal/ws"

	"github.com/google/uuid"
)

// Clock is the single source of "now" for services.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

// Actor is the authenticated user a request runs as.
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Username string
	Role     string
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// Notifier pushes events to a tenant's live clients. Implementations must
// not block the caller.
type Notifier interface {
	Publish(tenantID uuid.UUID, event ws.Event)
}
