package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// FileReader decodes command input from an inline argument, a file given with
// --file, or piped stdin, in that order of preference.
type FileReader[T any] struct {
	fileFlagValue string
	stdin         io.Reader
	stdinIsTTY    func() bool
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to JSON file (reads from stdin if not provided)",
		Destination: &fr.fileFlagValue,
	}
}

// Read decodes inline when it is non-empty, otherwise the file or stdin.
func (fr *FileReader[T]) Read(inline string) (T, error) {
	var input T

	reader, closer, err := fr.source(inline)
	if err != nil {
		return input, err
	}
	defer closer()

	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}

	return input, nil
}

func (fr *FileReader[T]) source(inline string) (io.Reader, func(), error) {
	noop := func() {}

	if inline != "" {
		return strings.NewReader(inline), noop, nil
	}

	if fr.fileFlagValue != "" {
		f, err := os.Open(fr.fileFlagValue)
		if err != nil {
			return nil, noop, fmt.Errorf("open file: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	}

	stdin := fr.stdin
	isTTY := fr.stdinIsTTY
	if stdin == nil {
		stdin = os.Stdin
		isTTY = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}
	if isTTY != nil && isTTY() {
		return nil, noop, fmt.Errorf("no input provided (stdin is a terminal); pass JSON, use -f, or pipe input")
	}
	return stdin, noop, nil
}
