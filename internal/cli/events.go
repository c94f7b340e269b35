package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/foldtable/internal/sanitize"
	"github.com/aretw0/foldtable/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Event file formats.
const (
	FormatAuto = ""
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ReadEvents reads events from path ("-" for stdin) and sanitizes them.
// With FormatAuto the format follows the file extension, defaulting to JSON.
func ReadEvents(path, format string, san *sanitize.Sanitizer) ([]domain.Record, error) {
	var r io.Reader
	if path == "" || path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open events: %w", err)
		}
		defer f.Close()
		r = f

		if format == FormatAuto {
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				format = FormatYAML
			}
		}
	}

	events, err := DecodeEvents(r, format)
	if err != nil {
		return nil, err
	}

	for i, evt := range events {
		clean, err := san.Record(evt)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events[i] = clean
	}
	return events, nil
}

// DecodeEvents decodes a YAML sequence, a JSON array or newline delimited JSON records.
func DecodeEvents(r io.Reader, format string) ([]domain.Record, error) {
	if format == FormatYAML {
		var events []domain.Record
		if err := yaml.NewDecoder(r).Decode(&events); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode YAML events: %w", err)
		}
		for i := range events {
			events[i].Payload = normalize(events[i].Payload)
		}
		return events, nil
	}

	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var events []domain.Record
		if err := dec.Decode(&events); err != nil {
			return nil, fmt.Errorf("failed to decode JSON events: %w", err)
		}
		return events, nil
	}

	var events []domain.Record
	for {
		var evt domain.Record
		err := dec.Decode(&evt)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", len(events), err)
		}
		events = append(events, evt)
	}
	return events, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsAny(b, " \t\r\n") {
			return b[0], nil
		}
		if _, err := br.ReadByte(); err != nil {
			return 0, err
		}
	}
}

// normalize converts YAML integers to float64 so payloads look the same as JSON ones.
func normalize(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	case map[string]any:
		return normalize(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
