package bell

import (
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/ecopulse/internal/core/realtime"
)

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// ChangeNotifier is satisfied by *notify.Store.
type ChangeNotifier interface {
	Subscribe(fn func()) (unsubscribe func())
}

// Subscriber is satisfied by *realtime.Manager.
type Subscriber interface {
	Subscribe(event string, fn realtime.Handler) (unsubscribe func())
}

var lifecycleEvents = []string{
	realtime.EventConnection,
	realtime.EventDisconnect,
	realtime.EventConnectError,
	realtime.EventReconnectAttempt,
	realtime.EventReconnectFailed,
}

// Bind forwards store changes and connection lifecycle events to p. The returned
// function removes every subscription.
func Bind(p Sender, store ChangeNotifier, sub Subscriber) (unbind func()) {
	unsubs := make([]func(), 0, len(lifecycleEvents)+1)

	// Store changes can originate inside Update, where a synchronous Send
	// would block the program loop.
	unsubs = append(unsubs, store.Subscribe(func() {
		go p.Send(StoreChangedMsg{})
	}))

	for _, event := range lifecycleEvents {
		unsubs = append(unsubs, sub.Subscribe(event, func(payload json.RawMessage) {
			p.Send(LifecycleMsg{Event: event, Payload: payload})
		}))
	}

	return func() {
		for _, fn := range unsubs {
			fn()
		}
	}
}
