package bell

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ecopulse/internal/core/notify"
	"github.com/colonyops/ecopulse/internal/core/realtime"
	"github.com/colonyops/ecopulse/internal/data/storage"
	"github.com/colonyops/ecopulse/pkg/tuitest"
)

type fakeConn struct {
	mu         sync.Mutex
	state      realtime.State
	reconnects int
}

func (c *fakeConn) State() realtime.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeConn) Reconnect(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects++
}

type fixture struct {
	store *notify.Store
	conn  *fakeConn
	model *Model
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		conn:  &fakeConn{state: realtime.StateConnected},
		clock: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	seq := 0
	f.store = notify.NewStore(storage.NewMemory(),
		notify.WithClock(func() time.Time { return f.clock }),
		notify.WithIDFunc(func() string {
			seq++
			return fmt.Sprintf("n-%d", seq)
		}),
	)
	f.store.Load(context.Background())
	f.model = New(context.Background(), f.store, f.conn, WithClock(func() time.Time { return f.clock }))
	return f
}

func (f *fixture) add(kind notify.Kind, title string) notify.Notification {
	n := f.store.Add(context.Background(), notify.Notification{Title: title, Message: title + " body", Kind: kind})
	f.model.Update(StoreChangedMsg{})
	return n
}

func (f *fixture) press(keys ...string) tea.Cmd {
	_, cmd := tuitest.Press(f.model, keys...)
	return cmd
}

func (f *fixture) view() string {
	return tuitest.StripANSI(f.model.View())
}

func lifecycle(t *testing.T, event string, payload any) LifecycleMsg {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return LifecycleMsg{Event: event, Payload: data}
}

func TestModel_OpeningMarksAllRead(t *testing.T) {
	f := newFixture(t)
	f.add(notify.KindSuccess, "New pickup request")
	f.add(notify.KindInfo, "Status changed")
	require.Equal(t, 2, f.store.UnreadCount())

	f.press("n")

	assert.True(t, f.model.Open())
	assert.Equal(t, 0, f.store.UnreadCount())

	f.press("n")
	assert.False(t, f.model.Open())
}

func TestModel_SelectMarksOneRead(t *testing.T) {
	f := newFixture(t)
	f.press("n")

	f.add(notify.KindInfo, "first")
	second := f.add(notify.KindInfo, "second")
	first, _ := f.store.Get("n-2")
	require.False(t, first.Read)

	f.press("enter")

	got, ok := f.store.Get(second.ID)
	require.True(t, ok)
	assert.True(t, got.Read)
	assert.Equal(t, 1, f.store.UnreadCount())

	f.press("down", "enter")
	assert.Equal(t, 1, f.model.Cursor())
	assert.Equal(t, 0, f.store.UnreadCount())
}

func TestModel_CursorStaysInBounds(t *testing.T) {
	f := newFixture(t)
	f.add(notify.KindInfo, "one")
	f.press("n")

	f.press("up")
	assert.Equal(t, 0, f.model.Cursor())

	f.press("down", "down", "down")
	assert.Equal(t, 1, f.model.Cursor(), "welcome plus one entry")
}

func TestModel_ListKeysIgnoredWhileClosed(t *testing.T) {
	f := newFixture(t)
	f.add(notify.KindInfo, "one")

	f.press("a", "c", "enter")

	assert.Equal(t, 1, f.store.UnreadCount())
	assert.Len(t, f.store.Notifications(), 2)
}

func TestModel_ReadAllAndClear(t *testing.T) {
	f := newFixture(t)
	f.press("n")
	f.add(notify.KindInfo, "one")
	f.add(notify.KindInfo, "two")

	f.press("a")
	assert.Equal(t, 0, f.store.UnreadCount())

	f.press("down", "c")
	assert.Empty(t, f.store.Notifications())
	assert.Equal(t, 0, f.model.Cursor())
	assert.Contains(t, f.view(), "No notifications")
}

func TestModel_EscCloses(t *testing.T) {
	f := newFixture(t)
	f.press("n", "esc")
	assert.False(t, f.model.Open())
}

func TestModel_Quit(t *testing.T) {
	f := newFixture(t)
	cmd := f.press("q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_BadgeCaps(t *testing.T) {
	f := newFixture(t)
	for i := range 12 {
		f.add(notify.KindInfo, fmt.Sprintf("n%d", i))
	}

	assert.Contains(t, f.view(), "9+")
}

func TestModel_ToastsNewArrivals(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.model.Toasts(), "welcome entry is not toasted")

	f.add(notify.KindSuccess, "first")
	f.add(notify.KindError, "second")

	toasts := f.model.Toasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, "first", toasts[0].Title)
	assert.Equal(t, "second", toasts[1].Title)

	f.clock = f.clock.Add(toastTTL)
	f.model.Update(tickMsg(f.clock))
	assert.Empty(t, f.model.Toasts())
}

func TestModel_ToastsCapped(t *testing.T) {
	f := newFixture(t)
	for i := range maxToasts + 2 {
		f.add(notify.KindInfo, fmt.Sprintf("n%d", i))
	}

	toasts := f.model.Toasts()
	require.Len(t, toasts, maxToasts)
	assert.Equal(t, fmt.Sprintf("n%d", maxToasts+1), toasts[maxToasts-1].Title)
}

func TestModel_ReconnectFailedShowsBannerAndRetries(t *testing.T) {
	f := newFixture(t)
	f.conn.state = realtime.StateDisconnected

	assert.Nil(t, f.press("r"), "retry is inert while connected or retrying")

	f.model.Update(lifecycle(t, realtime.EventReconnectFailed, realtime.ReconnectFailedPayload{Attempts: 5}))
	require.True(t, f.model.Lost())
	assert.Contains(t, f.view(), "Connection lost")

	cmd := f.press("r")
	require.NotNil(t, cmd)
	assert.False(t, f.model.Lost())

	cmd()
	assert.Equal(t, 1, f.conn.reconnects)
}

func TestModel_LifecycleStatus(t *testing.T) {
	f := newFixture(t)
	f.conn.state = realtime.StateDisconnected

	f.model.Update(lifecycle(t, realtime.EventDisconnect, realtime.DisconnectPayload{Reason: realtime.ReasonTransportClose}))
	assert.False(t, f.model.Lost())
	assert.Contains(t, f.view(), "connection dropped")

	f.conn.state = realtime.StateConnecting
	f.model.Update(lifecycle(t, realtime.EventReconnectAttempt, realtime.ReconnectAttemptPayload{Attempt: 2, MaxAttempts: 5}))
	assert.Contains(t, f.view(), "reconnecting (2/5)")

	f.model.Update(lifecycle(t, realtime.EventDisconnect, realtime.DisconnectPayload{Reason: realtime.ReasonServerDisconnect}))
	assert.True(t, f.model.Lost())

	f.conn.state = realtime.StateConnected
	f.model.Update(lifecycle(t, realtime.EventConnection, realtime.ConnectionPayload{Connected: true}))
	assert.False(t, f.model.Lost())
	assert.Contains(t, f.view(), "connected")
}

func TestModel_TickReschedules(t *testing.T) {
	f := newFixture(t)
	_, cmd := f.model.Update(tickMsg(f.clock))
	assert.NotNil(t, cmd)
	assert.NotNil(t, f.model.Init())
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestBind(t *testing.T) {
	store := notify.NewStore(storage.NewMemory())
	reg := realtime.NewRegistry(zerolog.Nop())
	sender := &recordingSender{}

	unbind := Bind(sender, store, reg)

	reg.Notify(realtime.EventReconnectFailed, json.RawMessage(`{"attempts":5}`))
	store.Add(context.Background(), notify.Notification{Title: "x"})

	require.Eventually(t, func() bool { return sender.count() == 2 }, time.Second, 5*time.Millisecond)

	unbind()
	reg.Notify(realtime.EventReconnectFailed, json.RawMessage(`{"attempts":5}`))
	store.Add(context.Background(), notify.Notification{Title: "y"})

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, sender.count())
	assert.Zero(t, reg.Count(realtime.EventReconnectFailed))
}
