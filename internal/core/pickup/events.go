package pickup

import (
	"github.com/hay-kot/criterio"

	"github.com/colonyops/ecopulse/internal/core/validate"
)

// Events broadcast by the relay when requests change.
const (
	EventRequestCreated       = "request:created"
	EventRequestUpdated       = "request:updated"
	EventRequestStatusUpdated = "request:status_updated"
	EventCollectorAssigned    = "collector:assigned"
)

// DomainEvents lists every event a client can receive about requests.
func DomainEvents() []string {
	return []string{
		EventRequestCreated,
		EventRequestUpdated,
		EventRequestStatusUpdated,
		EventCollectorAssigned,
	}
}

// Commands accepted by the relay. Each is acknowledged.
const (
	CommandCreate          = "request:create"
	CommandUpdateStatus    = "request:update_status"
	CommandAssignCollector = "collector:assign"
	CommandList            = "request:list"
)

// StatusUpdatedPayload is the body of request:status_updated.
type StatusUpdatedPayload struct {
	ID             string `json:"id"`
	Status         Status `json:"status"`
	PreviousStatus Status `json:"previousStatus,omitempty"`
}

// CollectorAssignedPayload is the body of collector:assigned.
type CollectorAssignedPayload struct {
	RequestID   string `json:"requestId"`
	CollectorID string `json:"collectorId"`
}

// CreateCommand is the body of request:create.
type CreateCommand struct {
	CustomerName string `json:"customerName"`
	Location     string `json:"location"`
	WasteType    string `json:"wasteType"`
	Notes        string `json:"notes,omitempty"`
}

func (c CreateCommand) Validate() error {
	return criterio.ValidateStruct(
		validate.RequiredField("customerName", c.CustomerName),
		validate.RequiredField("location", c.Location),
		validate.RequiredField("wasteType", c.WasteType),
	)
}

// UpdateStatusCommand is the body of request:update_status.
type UpdateStatusCommand struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c UpdateStatusCommand) Validate() error {
	return criterio.ValidateStruct(
		validate.RequiredField("id", c.ID),
		validate.RequiredField("status", c.Status),
	)
}

// AssignCollectorCommand is the body of collector:assign.
type AssignCollectorCommand struct {
	RequestID   string `json:"requestId"`
	CollectorID string `json:"collectorId"`
}

func (c AssignCollectorCommand) Validate() error {
	return criterio.ValidateStruct(
		validate.RequiredField("requestId", c.RequestID),
		validate.RequiredField("collectorId", c.CollectorID),
	)
}

// ListCommand is the body of request:list. An empty Status lists everything.
type ListCommand struct {
	Status string `json:"status,omitempty"`
}
