package logging

import (
	"context"
	"testing"
)

func TestWithClientID(t *testing.T) {
	ctx := WithClientID(context.Background(), "client-123")

	if got := GetClientID(ctx); got != "client-123" {
		t.Errorf("GetClientID() = %q, want %q", got, "client-123")
	}
}

func TestWithEvent(t *testing.T) {
	ctx := WithEvent(context.Background(), "request:create")

	if got := GetEvent(ctx); got != "request:create" {
		t.Errorf("GetEvent() = %q, want %q", got, "request:create")
	}
}

func TestGetters_NotPresent(t *testing.T) {
	ctx := context.Background()

	if got := GetClientID(ctx); got != "" {
		t.Errorf("GetClientID() = %q, want empty string", got)
	}
	if got := GetEvent(ctx); got != "" {
		t.Errorf("GetEvent() = %q, want empty string", got)
	}
}
