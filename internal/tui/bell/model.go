// Package bell is the terminal notification surface: an unread badge, a dropdown
// of recent notifications, short-lived toasts for new arrivals, and a banner
// offering a manual reconnect once the connection is given up on.
package bell

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/ecopulse/internal/core/notify"
	"github.com/colonyops/ecopulse/internal/core/realtime"
)

const (
	toastTTL     = 5 * time.Second
	tickInterval = time.Second
)

// Store is the part of notify.Store the bell reads and mutates.
type Store interface {
	Notifications() []notify.Notification
	UnreadCount() int
	MarkAsRead(ctx context.Context, id string) bool
	MarkAllAsRead(ctx context.Context)
	ClearAll(ctx context.Context)
}

// Connection is the part of realtime.Manager the bell drives.
type Connection interface {
	State() realtime.State
	Reconnect(ctx context.Context)
}

// StoreChangedMsg tells the model the notification list changed.
type StoreChangedMsg struct{}

// LifecycleMsg carries a connection lifecycle event into the model.
type LifecycleMsg struct {
	Event   string
	Payload json.RawMessage
}

type tickMsg time.Time

type toast struct {
	notification notify.Notification
	expires      time.Time
}

// Model is the bubbletea model for the bell.
type Model struct {
	ctx   context.Context
	store Store
	conn  Connection
	keys  KeyMap
	help  help.Model
	now   func() time.Time

	open   bool
	cursor int
	state  realtime.State
	lost   bool
	detail string
	toasts []toast
	seen   map[string]struct{}
	width  int
}

type Option func(*Model)

// WithClock overrides the time source used for labels and toast expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithKeyMap replaces the default bindings.
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) { m.keys = k }
}

// New creates a bell over store and conn. Notifications already in the store are
// not toasted.
func New(ctx context.Context, store Store, conn Connection, opts ...Option) *Model {
	m := &Model{
		ctx:   ctx,
		store: store,
		conn:  conn,
		keys:  DefaultKeyMap(),
		help:  help.New(),
		now:   time.Now,
		seen:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.state = conn.State()
	for _, n := range store.Notifications() {
		m.seen[n.ID] = struct{}{}
	}
	return m
}

// Open reports whether the dropdown is showing.
func (m *Model) Open() bool { return m.open }

// Lost reports whether the connection-lost banner is showing.
func (m *Model) Lost() bool { return m.lost }

// Cursor returns the index of the selected dropdown item.
func (m *Model) Cursor() int { return m.cursor }

// Toasts returns the notifications currently toasted, oldest first.
func (m *Model) Toasts() []notify.Notification {
	out := make([]notify.Notification, len(m.toasts))
	for i, t := range m.toasts {
		out[i] = t.notification
	}
	return out
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case StoreChangedMsg:
		m.refresh()
	case LifecycleMsg:
		m.handleLifecycle(msg)
	case tickMsg:
		m.expireToasts()
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		m.toggle()
	case key.Matches(msg, m.keys.Retry):
		return m.retry()
	case !m.open:
		return nil
	case key.Matches(msg, m.keys.Close):
		m.open = false
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.store.Notifications())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		items := m.store.Notifications()
		if m.cursor < len(items) {
			m.store.MarkAsRead(m.ctx, items[m.cursor].ID)
		}
	case key.Matches(msg, m.keys.ReadAll):
		m.store.MarkAllAsRead(m.ctx)
	case key.Matches(msg, m.keys.Clear):
		m.store.ClearAll(m.ctx)
		m.cursor = 0
	}
	return nil
}

// toggle opens or closes the dropdown. Opening it with unread items marks
// everything read.
func (m *Model) toggle() {
	if !m.open && m.store.UnreadCount() > 0 {
		m.store.MarkAllAsRead(m.ctx)
	}
	m.open = !m.open
	m.cursor = 0
}

func (m *Model) retry() tea.Cmd {
	if !m.lost {
		return nil
	}
	m.lost = false
	m.detail = "reconnecting"

	ctx, conn := m.ctx, m.conn
	return func() tea.Msg {
		conn.Reconnect(ctx)
		return nil
	}
}

// refresh toasts notifications that arrived since the last look.
func (m *Model) refresh() {
	items := m.store.Notifications()
	now := m.now()

	current := make(map[string]struct{}, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		n := items[i]
		current[n.ID] = struct{}{}
		if _, ok := m.seen[n.ID]; ok || n.Read {
			continue
		}
		m.toasts = append(m.toasts, toast{notification: n, expires: now.Add(toastTTL)})
	}
	m.seen = current

	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	if m.cursor >= len(items) {
		m.cursor = max(len(items)-1, 0)
	}
}

func (m *Model) expireToasts() {
	now := m.now()
	alive := m.toasts[:0]
	for _, t := range m.toasts {
		if now.Before(t.expires) {
			alive = append(alive, t)
		}
	}
	m.toasts = alive
}

func (m *Model) handleLifecycle(msg LifecycleMsg) {
	m.state = m.conn.State()

	switch msg.Event {
	case realtime.EventConnection:
		p, err := realtime.Decode[realtime.ConnectionPayload](msg.Payload)
		if err == nil && p.Connected {
			m.state = realtime.StateConnected
			m.lost = false
			m.detail = ""
		}
	case realtime.EventDisconnect:
		p, _ := realtime.Decode[realtime.DisconnectPayload](msg.Payload)
		if p.Reason == realtime.ReasonServerDisconnect {
			m.lost = true
			m.detail = "disconnected by server"
		} else {
			m.detail = "connection dropped"
		}
	case realtime.EventConnectError:
		p, _ := realtime.Decode[realtime.ConnectErrorPayload](msg.Payload)
		m.detail = p.Message
	case realtime.EventReconnectAttempt:
		p, _ := realtime.Decode[realtime.ReconnectAttemptPayload](msg.Payload)
		m.detail = fmt.Sprintf("reconnecting (%d/%d)", p.Attempt, p.MaxAttempts)
	case realtime.EventReconnectFailed:
		m.lost = true
		m.detail = "gave up reconnecting"
	}
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderBar())
	b.WriteString("\n")

	if m.lost {
		b.WriteString(bannerStyle.Render("Connection lost. Press r to retry."))
		b.WriteString("\n")
	}

	if m.open {
		b.WriteString(m.renderDropdown())
		b.WriteString("\n")
	}

	for _, t := range m.toasts {
		b.WriteString(renderToast(t.notification))
		b.WriteString("\n")
	}

	if m.open {
		b.WriteString(m.help.ShortHelpView(m.keys.dropdownHelp()))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m *Model) renderBar() string {
	bell := bellStyle.Render(iconBell)
	if badge := Badge(m.store.UnreadCount()); badge != "" {
		bell += " " + badgeStyle.Render(badge)
	}

	status := m.state.String()
	if m.detail != "" {
		status += ": " + m.detail
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, bell, "  ", statusStyle.Render(status))
}

func (m *Model) renderDropdown() string {
	items := m.store.Notifications()
	now := m.now()

	var b strings.Builder
	b.WriteString(headerStyle.Render("Notifications"))
	b.WriteString("\n")

	if len(items) == 0 {
		b.WriteString(emptyStyle.Render("No notifications"))
		return dropdownStyle.Render(b.String())
	}

	for i, n := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderItem(n, i == m.cursor, now))
	}
	return dropdownStyle.Render(b.String())
}

func (m *Model) renderItem(n notify.Notification, selected bool, now time.Time) string {
	title := kindDot(n.Kind) + " " + titleStyle.Render(n.Title)
	if !n.Read {
		title += " " + lipgloss.NewStyle().Foreground(colorPrimary).Render(iconDot)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		messageStyle.Render(n.Message),
		timeStyle.Render(iconClock+" "+FormatTimeAgo(now, n.CreatedAt)),
	)

	if !n.Read {
		body = unreadStyle.Render(body)
	}
	if selected {
		return selectedStyle.Render(body)
	}
	return itemStyle.Render(body)
}

func renderToast(n notify.Notification) string {
	color := kindColor(n.Kind)
	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Foreground(color).Render(n.Title),
		n.Message,
	)
	return toastStyle.BorderForeground(color).Render(content)
}
