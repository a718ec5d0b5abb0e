package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/ecopulse/pkg/wire"
)

// Manager owns exactly one logical connection to the relay. It drives reconnection
// with exponential backoff, routes inbound events to the Registry, and correlates
// outbound emits with their acknowledgements.
//
// Subscriber callbacks run on the goroutine that calls Start, one at a time and in
// arrival order.
type Manager struct {
	transport Transport
	policy    Policy
	scheduler Scheduler
	logger    zerolog.Logger
	registry  *Registry
	queue     *deliveryQueue

	mu         sync.Mutex
	state      State
	conn       Conn
	credential string
	active     bool   // between Connect and Disconnect
	epoch      uint64 // bumped by Disconnect; stale dials and retries compare against it
	attempts   int
	cancel     func() bool // pending retry
	nextID     uint64
	pending    map[uint64]chan wire.Frame
}

// Option configures a Manager.
type Option func(*Manager)

// WithScheduler replaces the timer used for retries.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.scheduler = s }
}

// WithLogger sets the logger for connection and subscriber diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a disconnected Manager. Call Start to begin delivering events.
func NewManager(transport Transport, policy Policy, opts ...Option) *Manager {
	m := &Manager{
		transport: transport,
		policy:    policy,
		scheduler: TimerScheduler{},
		logger:    zerolog.Nop(),
		queue:     newDeliveryQueue(),
		pending:   make(map[uint64]chan wire.Frame),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.registry = NewRegistry(m.logger)
	return m
}

// Start delivers queued events to subscribers until ctx is cancelled or Close is called.
func (m *Manager) Start(ctx context.Context) {
	m.queue.run(ctx, m.registry.Notify)
}

// Close disconnects and stops the delivery loop.
func (m *Manager) Close() {
	m.Disconnect()
	m.queue.stop()
}

// Subscribe registers fn for event. See Registry.Subscribe.
func (m *Manager) Subscribe(event string, fn Handler) (unsubscribe func()) {
	return m.registry.Subscribe(event, fn)
}

// Registry exposes the subscription registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether a connection is live.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Attempts returns the number of consecutive failed attempts since the last success.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Connect opens a connection presenting credential. It is a no-op while connecting
// or connected. Dial failures are not returned; they are published as connect_error
// and feed the retry schedule.
func (m *Manager) Connect(ctx context.Context, credential string) {
	m.mu.Lock()
	if m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.credential = credential
	m.active = true
	m.attempts = 0
	m.cancelRetryLocked()
	m.mu.Unlock()

	m.dial(ctx)
}

// Reconnect dials immediately when the manager is disconnected but has not been
// explicitly disconnected. It starts a fresh retry cycle.
func (m *Manager) Reconnect(ctx context.Context) {
	m.mu.Lock()
	if !m.active || m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.attempts = 0
	m.cancelRetryLocked()
	m.mu.Unlock()

	m.dial(ctx)
}

// Disconnect closes the connection and clears all subscriptions. It is terminal:
// pending retries are cancelled and nothing reconnects until the next Connect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.epoch++
	m.active = false
	m.attempts = 0
	m.cancelRetryLocked()
	conn := m.conn
	m.conn = nil
	m.state = StateDisconnected
	pending := m.takePendingLocked()
	m.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			m.logger.Debug().Err(err).Msg("close connection")
		}
		m.logger.Info().Msg("disconnected")
	}
	failPending(pending)

	m.queue.reset()
	m.registry.Clear()
}

// Emit sends a command and waits for its acknowledgement. It fails immediately
// with ErrNotConnected when there is no live connection. An ack carrying an error
// is returned as *AckError.
func (m *Manager) Emit(ctx context.Context, event string, payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}

	m.mu.Lock()
	if m.state != StateConnected || m.conn == nil {
		m.mu.Unlock()
		return nil, ErrNotConnected
	}
	m.nextID++
	id := m.nextID
	ch := make(chan wire.Frame, 1)
	m.pending[id] = ch
	conn := m.conn
	m.mu.Unlock()

	if err := conn.WriteFrame(wire.Frame{Type: wire.TypeEmit, ID: id, Event: event, Data: data}); err != nil {
		m.dropPending(id)
		return nil, fmt.Errorf("emit %s: %w", event, err)
	}

	select {
	case ack, ok := <-ch:
		if !ok {
			return nil, ErrConnectionLost
		}
		if ack.Error != nil {
			return nil, &AckError{Event: event, Code: ack.Error.Code, Message: ack.Error.Message}
		}
		return ack.Data, nil
	case <-ctx.Done():
		m.dropPending(id)
		return nil, ctx.Err()
	}
}

func (m *Manager) dial(ctx context.Context) {
	m.mu.Lock()
	if !m.active || m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.state = StateConnecting
	epoch := m.epoch
	credential := m.credential
	m.mu.Unlock()

	conn, err := m.transport.Dial(ctx, credential)

	m.mu.Lock()
	if epoch != m.epoch || !m.active {
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		m.state = StateDisconnected
		m.mu.Unlock()

		m.logger.Warn().Err(err).Msg("connection attempt failed")
		m.publish(EventConnection, ConnectionPayload{Connected: false})
		m.publish(EventConnectError, ConnectErrorPayload{Message: err.Error()})
		m.scheduleRetry(epoch)
		return
	}

	m.state = StateConnected
	m.conn = conn
	m.attempts = 0
	m.mu.Unlock()

	m.logger.Info().Msg("connected")
	m.publish(EventConnection, ConnectionPayload{Connected: true})
	go m.readLoop(epoch, conn)
}

func (m *Manager) readLoop(epoch uint64, conn Conn) {
	for {
		f, err := conn.ReadFrame()
		if err != nil {
			m.handleDrop(epoch, conn, err)
			return
		}

		switch f.Type {
		case wire.TypeEvent:
			m.queue.push(f.Event, f.Data)
		case wire.TypeAck:
			m.resolve(f)
		default:
			m.logger.Debug().Str("type", string(f.Type)).Msg("ignoring frame")
		}
	}
}

func (m *Manager) resolve(f wire.Frame) {
	m.mu.Lock()
	ch, ok := m.pending[f.ID]
	delete(m.pending, f.ID)
	m.mu.Unlock()

	if !ok {
		m.logger.Debug().Uint64("id", f.ID).Msg("ack for unknown emit")
		return
	}
	ch <- f
}

func (m *Manager) handleDrop(epoch uint64, conn Conn, cause error) {
	m.mu.Lock()
	if epoch != m.epoch || m.conn != conn {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.state = StateDisconnected
	pending := m.takePendingLocked()
	m.mu.Unlock()

	_ = conn.Close()
	failPending(pending)

	reason := ReasonTransportClose
	if errors.Is(cause, wire.ErrServerClosed) {
		reason = ReasonServerDisconnect
	}

	m.logger.Warn().Err(cause).Str("reason", reason).Msg("connection dropped")
	m.publish(EventDisconnect, DisconnectPayload{Reason: reason})
	m.publish(EventConnection, ConnectionPayload{Connected: false})

	// A deliberate server close is not retried automatically; Reconnect still works.
	if reason == ReasonServerDisconnect {
		return
	}
	m.scheduleRetry(epoch)
}

func (m *Manager) scheduleRetry(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch || !m.active || m.state != StateDisconnected {
		return
	}

	m.attempts++
	if m.attempts > m.policy.MaxAttempts {
		m.logger.Error().Int("attempts", m.policy.MaxAttempts).Msg("reconnection failed")
		m.publish(EventReconnectFailed, ReconnectFailedPayload{Attempts: m.policy.MaxAttempts})
		return
	}

	attempt := m.attempts
	delay := m.policy.Delay(attempt)
	m.logger.Info().Int("attempt", attempt).Dur("delay", delay).Msg("scheduling reconnect")

	m.cancelRetryLocked()
	m.cancel = m.scheduler.AfterFunc(delay, func() {
		m.retry(epoch, attempt)
	})
}

func (m *Manager) retry(epoch uint64, attempt int) {
	m.mu.Lock()
	if epoch != m.epoch || !m.active || m.state != StateDisconnected || m.attempts != attempt {
		m.mu.Unlock()
		return
	}
	m.cancel = nil
	m.mu.Unlock()

	m.publish(EventReconnectAttempt, ReconnectAttemptPayload{Attempt: attempt, MaxAttempts: m.policy.MaxAttempts})
	m.dial(context.Background())
}

func (m *Manager) cancelRetryLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Manager) takePendingLocked() map[uint64]chan wire.Frame {
	pending := m.pending
	m.pending = make(map[uint64]chan wire.Frame)
	return pending
}

func (m *Manager) dropPending(id uint64) {
	m.mu.Lock()
	delete(m.pending, id)
	m.mu.Unlock()
}

func (m *Manager) publish(event string, payload any) {
	m.queue.push(event, mustEncode(payload))
}

func failPending(pending map[uint64]chan wire.Frame) {
	for _, ch := range pending {
		close(ch)
	}
}
