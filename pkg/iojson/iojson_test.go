package iojson

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteLine(&buf, map[string]any{"event": "request:created", "n": 1}))
	require.NoError(t, WriteLine(&buf, map[string]any{"event": "connection"}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"event":"request:created","n":1}`, lines[0])
}

func TestWriteLine_MarshalError(t *testing.T) {
	var buf bytes.Buffer
	err := WriteLine(&buf, map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, []int{1, 2}))
	assert.Equal(t, "[\n  1,\n  2\n]\n", out.String())

	require.NoError(t, WriteWith(&out, &errOut, make(chan int)))
	assert.Contains(t, errOut.String(), "json_error")
}

func TestMarshalError(t *testing.T) {
	var doc Error
	require.NoError(t, json.Unmarshal([]byte(MarshalError(`say "hi"`, nil)), &doc))
	assert.Equal(t, `say "hi"`, doc.Message)

	bad := MarshalError("oops", map[string]any{"f": func() {}})
	require.NoError(t, json.Unmarshal([]byte(bad), &doc))
	assert.Equal(t, "oops", doc.Message)
	assert.Contains(t, doc.Data, "json_error")
}

func TestFileReader(t *testing.T) {
	type payload struct {
		ID string `json:"id"`
	}

	t.Run("inline wins", func(t *testing.T) {
		fr := &FileReader[payload]{fileFlagValue: "/does/not/exist"}
		got, err := fr.Read(`{"id":"inline"}`)
		require.NoError(t, err)
		assert.Equal(t, "inline", got.ID)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "in.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"id":"file"}`), 0o644))

		fr := &FileReader[payload]{fileFlagValue: path}
		got, err := fr.Read("")
		require.NoError(t, err)
		assert.Equal(t, "file", got.ID)
	})

	t.Run("stdin", func(t *testing.T) {
		fr := &FileReader[payload]{stdin: strings.NewReader(`{"id":"pipe"}`), stdinIsTTY: func() bool { return false }}
		got, err := fr.Read("")
		require.NoError(t, err)
		assert.Equal(t, "pipe", got.ID)
	})

	t.Run("terminal stdin", func(t *testing.T) {
		fr := &FileReader[payload]{stdin: strings.NewReader(""), stdinIsTTY: func() bool { return true }}
		_, err := fr.Read("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stdin is a terminal")
	})

	t.Run("invalid json", func(t *testing.T) {
		fr := &FileReader[payload]{}
		_, err := fr.Read("{")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode JSON")
	})
}
