package tuitest

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestStripANSI(t *testing.T) {
	in := "\x1b[1mbold\x1b[0m   \n\x1b[31mred\x1b[0m\n\n"
	assert.Equal(t, "bold\nred", StripANSI(in))
}

func TestKeyMatchesBindings(t *testing.T) {
	for _, name := range []string{"a", "enter", "esc", "up", "down", "ctrl+c", " "} {
		t.Run(name, func(t *testing.T) {
			b := key.NewBinding(key.WithKeys(name))
			assert.True(t, key.Matches(Key(name), b), "got %q", Key(name).String())
		})
	}
}
