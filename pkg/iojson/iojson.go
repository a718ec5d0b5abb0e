// Package iojson writes and reads JSON for command line output and input.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Error is the error document written to stderr when a command fails in
// JSON mode.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func jsonError(msg string, jsonErr error) string {
	// json.Marshal escapes both strings
	msgBytes, _ := json.Marshal(msg)
	errBytes, _ := json.Marshal(jsonErr.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, msgBytes, errBytes)
}

// MarshalError builds an error document. If data cannot be marshalled the
// document records the marshalling failure instead.
func MarshalError(msg string, data map[string]any) string {
	bits, err := json.MarshalIndent(Error{Message: msg, Data: data}, "", "  ")
	if err != nil {
		return jsonError(msg, err)
	}
	return string(bits)
}

// WriteError writes an error document to stderr.
func WriteError(msg string, data map[string]any) error {
	_, err := fmt.Fprintln(os.Stderr, MarshalError(msg, data))
	return err
}

// WriteWith writes obj as indented JSON to w, reporting marshal failures on ew.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, err = fmt.Fprintln(ew, jsonError("error marshaling in iojson.Write", err))
		return err
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// Write calls WriteWith with [os.Stdout] and [os.Stderr].
func Write(obj any) error {
	return WriteWith(os.Stdout, os.Stderr, obj)
}

// WriteLine writes obj as a single line of compact JSON, for streaming output
// that is consumed line by line.
func WriteLine(w io.Writer, obj any) error {
	bits, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal line: %w", err)
	}
	bits = append(bits, '\n')
	_, err = w.Write(bits)
	return err
}
