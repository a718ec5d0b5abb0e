package relay

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/colonyops/ecopulse/internal/core/pickup"
	"github.com/colonyops/ecopulse/pkg/wire"
)

// Result is the outcome of one command: the ack for the sender and the events
// to broadcast to every client.
type Result struct {
	Ack    wire.Frame
	Events []wire.Frame
}

// Handler applies commands to the request book.
type Handler struct {
	book   *pickup.Book
	logger zerolog.Logger
}

func NewHandler(book *pickup.Book, logger zerolog.Logger) *Handler {
	return &Handler{book: book, logger: logger}
}

// Handle executes the emit frame f.
func (h *Handler) Handle(f wire.Frame) Result {
	switch f.Event {
	case pickup.CommandCreate:
		return h.create(f)
	case pickup.CommandUpdateStatus:
		return h.updateStatus(f)
	case pickup.CommandAssignCollector:
		return h.assignCollector(f)
	case pickup.CommandList:
		return h.list(f)
	default:
		return fail(f.ID, wire.CodeUnknownEvent, "unknown event "+f.Event)
	}
}

func (h *Handler) create(f wire.Frame) Result {
	var cmd pickup.CreateCommand
	if err := decode(f.Data, &cmd); err != nil {
		return fail(f.ID, wire.CodeInvalidPayload, err.Error())
	}

	req, err := h.book.Create(cmd)
	if err != nil {
		return fail(f.ID, wire.CodeInvalidPayload, err.Error())
	}

	return h.result(f.ID, req, event(pickup.EventRequestCreated, req))
}

func (h *Handler) updateStatus(f wire.Frame) Result {
	var cmd pickup.UpdateStatusCommand
	if err := decode(f.Data, &cmd); err != nil {
		return fail(f.ID, wire.CodeInvalidPayload, err.Error())
	}
	if err := cmd.Validate(); err != nil {
		return fail(f.ID, wire.CodeInvalidPayload, err.Error())
	}

	status, err := pickup.ParseStatus(cmd.Status)
	if err != nil {
		return fail(f.ID, wire.CodeInvalidStatus, err.Error())
	}

	req, prev, err := h.book.UpdateStatus(cmd.ID, status)
	if err != nil {
		return failFor(f.ID, err)
	}

	return h.result(f.ID, req,
		event(pickup.EventRequestStatusUpdated, pickup.StatusUpdatedPayload{
			ID:             req.ID,
			Status:         req.Status,
			PreviousStatus: prev,
		}),
		event(pickup.EventRequestUpdated, req),
	)
}

func (h *Handler) assignCollector(f wire.Frame) Result {
	var cmd pickup.AssignCollectorCommand
	if err := decode(f.Data, &cmd); err != nil {
		return fail(f.ID, wire.CodeInvalidPayload, err.Error())
	}
	if err := cmd.Validate(); err != nil {
		return fail(f.ID, wire.CodeInvalidPayload, err.Error())
	}

	req, err := h.book.AssignCollector(cmd.RequestID, cmd.CollectorID)
	if err != nil {
		return failFor(f.ID, err)
	}

	return h.result(f.ID, req,
		event(pickup.EventCollectorAssigned, pickup.CollectorAssignedPayload{
			RequestID:   req.ID,
			CollectorID: req.CollectorID,
		}),
		event(pickup.EventRequestUpdated, req),
	)
}

func (h *Handler) list(f wire.Frame) Result {
	var cmd pickup.ListCommand
	if err := decode(f.Data, &cmd); err != nil {
		return fail(f.ID, wire.CodeInvalidPayload, err.Error())
	}

	var status pickup.Status
	if cmd.Status != "" {
		s, err := pickup.ParseStatus(cmd.Status)
		if err != nil {
			return fail(f.ID, wire.CodeInvalidStatus, err.Error())
		}
		status = s
	}

	return h.result(f.ID, h.book.List(status))
}

func (h *Handler) result(id uint64, payload any, events ...wire.Frame) Result {
	ack, err := wire.Ack(id, payload)
	if err != nil {
		h.logger.Error().Err(err).Msg("encode ack")
		return fail(id, wire.CodeInternal, "internal error")
	}
	return Result{Ack: ack, Events: events}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

// event builds an event frame from one of the pickup payload types, which
// always encode.
func event(name string, payload any) wire.Frame {
	f, err := wire.Event(name, payload)
	if err != nil {
		panic(err)
	}
	return f
}

func fail(id uint64, code, message string) Result {
	return Result{Ack: wire.AckError(id, code, message)}
}

func failFor(id uint64, err error) Result {
	switch {
	case errors.Is(err, pickup.ErrNotFound):
		return fail(id, wire.CodeNotFound, err.Error())
	case errors.Is(err, pickup.ErrInvalidStatus):
		return fail(id, wire.CodeInvalidStatus, err.Error())
	default:
		return fail(id, wire.CodeInternal, err.Error())
	}
}
