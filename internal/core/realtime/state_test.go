package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Delay(t *testing.T) {
	p := Policy{MaxAttempts: 8, BaseDelay: time.Second, MaxDelay: 10 * time.Second}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, p.Delay(i+1), "attempt %d", i+1)
	}
}

func TestPolicy_Delay_LargeAttemptDoesNotOverflow(t *testing.T) {
	p := Policy{MaxAttempts: 1000, BaseDelay: time.Millisecond, MaxDelay: time.Hour}
	assert.Equal(t, time.Hour, p.Delay(500))
}

func TestPolicy_Delay_OddCap(t *testing.T) {
	p := Policy{BaseDelay: 1, MaxDelay: 3}
	assert.Equal(t, time.Duration(1), p.Delay(1))
	assert.Equal(t, time.Duration(2), p.Delay(2))
	assert.Equal(t, time.Duration(3), p.Delay(3))
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr string
	}{
		{name: "default", policy: DefaultPolicy()},
		{name: "zero attempts", policy: Policy{MaxAttempts: 0, BaseDelay: time.Second, MaxDelay: time.Second}},
		{name: "negative attempts", policy: Policy{MaxAttempts: -1, BaseDelay: time.Second, MaxDelay: time.Second}, wantErr: "negative"},
		{name: "zero base", policy: Policy{MaxAttempts: 1, MaxDelay: time.Second}, wantErr: "base delay"},
		{name: "max below base", policy: Policy{MaxAttempts: 1, BaseDelay: 2 * time.Second, MaxDelay: time.Second}, wantErr: "max delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "unknown", State(42).String())
}
