// Package sanitize cleans event data arriving from untrusted surfaces (HTTP, MCP, files).
package sanitize

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/foldtable/pkg/domain"
)

// DefaultMaxInputSize is 4KB (conservative default)
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer enforces size limits, validates UTF-8 and strips dangerous control characters.
type Sanitizer struct {
	limit int
}

// New creates a Sanitizer. A non-positive limit falls back to DefaultMaxInputSize.
func New(limit int) *Sanitizer {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	return &Sanitizer{limit: limit}
}

// Limit returns the maximum accepted input size in bytes.
func (s *Sanitizer) Limit() int {
	return s.limit
}

// Input cleans a single string.
// Oversized input is rejected rather than truncated so the folded state stays deterministic.
func (s *Sanitizer) Input(input string) (string, error) {
	if len(input) > s.limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), s.limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// Record cleans the event type of rec and every string found in its payload.
// The discriminant must not contain any whitespace control either, since it is a lookup key.
func (s *Sanitizer) Record(rec domain.Record) (domain.Record, error) {
	eventType, err := s.Input(rec.Type)
	if err != nil {
		return domain.Record{}, fmt.Errorf("invalid event type: %w", err)
	}
	rec.Type = strings.Map(func(r rune) rune {
		if isSafeControl(r) {
			return -1
		}
		return r
	}, eventType)

	if rec.Payload != nil {
		payload, err := s.value(rec.Payload)
		if err != nil {
			return domain.Record{}, fmt.Errorf("invalid payload: %w", err)
		}
		rec.Payload = payload.(map[string]any)
	}
	return rec, nil
}

func (s *Sanitizer) value(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return s.Input(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			cleaned, err := s.value(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = cleaned
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			cleaned, err := s.value(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = cleaned
		}
		return out, nil
	default:
		return v, nil
	}
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
