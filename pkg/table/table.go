package table

import (
	"fmt"

	"github.com/aretw0/foldtable/pkg/domain"
)

// Table is a flat, read-only mapping from key to Handler.
// It is safe for concurrent lookups once built.
type Table[S any, E domain.Event] struct {
	glue     string
	keys     []string
	handlers map[string]Handler[S, E]
}

// Flatten builds a Table from a two-level list of entries.
//
// Leaves are stored under their own key. Every child of a group is stored under
// key + glue + childKey. Entries are processed in order; a later entry that maps
// to an existing key replaces it (keeping the original position in Keys) unless
// WithStrict is set. A top-level leaf with an empty key fails with
// domain.ErrEmptyKey.
//
// A group containing the key "undefined" triggers one diagnostic per group.
// The top-level list itself is not checked here; reducer.New does that.
func Flatten[S any, E domain.Event](entries []Entry[S, E], opts ...Option) (*Table[S, E], error) {
	cfg := newConfig(opts)
	t := &Table[S, E]{
		glue:     cfg.glue,
		handlers: make(map[string]Handler[S, E], len(entries)),
	}

	for _, entry := range entries {
		if !entry.group {
			if err := t.put(cfg, entry.key, entry.handler); err != nil {
				return nil, err
			}
			continue
		}

		if ContainsUndefined(entry.children) {
			cfg.warner.Warn(domain.UndefinedWarning)
		}

		for _, child := range entry.children {
			if child.group {
				return nil, fmt.Errorf("%w: %q inside %q", domain.ErrNestedGroup, child.key, entry.key)
			}
			if err := t.put(cfg, entry.key+cfg.glue+child.key, child.handler); err != nil {
				return nil, err
			}
		}
	}

	return t, nil
}

func (t *Table[S, E]) put(cfg *config, key string, h Handler[S, E]) error {
	if key == "" {
		return domain.ErrEmptyKey
	}
	if _, exists := t.handlers[key]; exists {
		if cfg.strict {
			return fmt.Errorf("%w: %q", domain.ErrKeyCollision, key)
		}
		cfg.logger.Debug("handler key overwritten", "key", key)
	} else {
		t.keys = append(t.keys, key)
	}
	t.handlers[key] = h
	return nil
}

// Lookup returns the handler stored under key.
// ok is true when the key exists, even if the stored handler is nil.
func (t *Table[S, E]) Lookup(key string) (Handler[S, E], bool) {
	h, ok := t.handlers[key]
	return h, ok
}

// Has reports whether key exists in the table.
func (t *Table[S, E]) Has(key string) bool {
	_, ok := t.handlers[key]
	return ok
}

// Keys returns the keys in first-insertion order.
func (t *Table[S, E]) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of keys.
func (t *Table[S, E]) Len() int {
	return len(t.keys)
}

// Glue returns the separator used to build composite keys.
func (t *Table[S, E]) Glue() string {
	return t.glue
}
