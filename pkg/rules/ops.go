package rules

import (
	"fmt"
	"strings"

	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/aretw0/foldtable/pkg/table"
)

// Operation names.
const (
	OpSet     = "set"
	OpUnset   = "unset"
	OpIncr    = "incr"
	OpDecr    = "decr"
	OpAppend  = "append"
	OpMerge   = "merge"
	OpReplace = "replace"
	OpFail    = "fail"
)

func (s Step) validate() error {
	switch s.Op {
	case OpSet, OpUnset, OpIncr, OpDecr, OpAppend:
		if s.Path == "" {
			return fmt.Errorf("%s requires a path", s.Op)
		}
	case OpMerge, OpReplace, OpFail:
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownOp, s.Op)
	}

	if s.From != "" && s.From != "type" && s.From != "payload" && !strings.HasPrefix(s.From, "payload.") {
		return fmt.Errorf("from must be \"type\", \"payload\" or \"payload.<path>\", got %q", s.From)
	}
	return nil
}

func compileSteps(steps []Step) table.Handler[domain.Document, domain.Record] {
	return func(state domain.Document, evt domain.Record) (domain.Document, error) {
		next := state.Clone()
		if next == nil {
			next = domain.Document{}
		}

		for i, step := range steps {
			var err error
			next, err = step.apply(next, evt)
			if err != nil {
				return state, fmt.Errorf("%s step %d (%s): %w", evt.Type, i, step.Op, err)
			}
		}
		return next, nil
	}
}

func (s Step) apply(doc domain.Document, evt domain.Record) (domain.Document, error) {
	switch s.Op {
	case OpSet:
		val, err := s.resolve(evt)
		if err != nil {
			return doc, err
		}
		return doc, setPath(doc, s.Path, val)

	case OpUnset:
		unsetPath(doc, s.Path)
		return doc, nil

	case OpIncr, OpDecr:
		amount, err := s.amount(evt)
		if err != nil {
			return doc, err
		}
		if s.Op == OpDecr {
			amount = -amount
		}
		current := 0.0
		if raw, ok := getPath(doc, s.Path); ok && raw != nil {
			n, ok := toFloat(raw)
			if !ok {
				return doc, fmt.Errorf("%q is not a number", s.Path)
			}
			current = n
		}
		return doc, setPath(doc, s.Path, current+amount)

	case OpAppend:
		val, err := s.resolve(evt)
		if err != nil {
			return doc, err
		}
		var list []any
		if raw, ok := getPath(doc, s.Path); ok && raw != nil {
			existing, ok := raw.([]any)
			if !ok {
				return doc, fmt.Errorf("%q is not a list", s.Path)
			}
			list = existing
		}
		return doc, setPath(doc, s.Path, append(list, val))

	case OpMerge:
		val, err := s.resolve(evt)
		if err != nil {
			return doc, err
		}
		fields, ok := asMap(val)
		if !ok {
			return doc, fmt.Errorf("merge needs an object value")
		}
		target := map[string]any(doc)
		if s.Path != "" {
			raw, _ := getPath(doc, s.Path)
			existing, ok := asMap(raw)
			if !ok {
				existing = map[string]any{}
			}
			if err := setPath(doc, s.Path, existing); err != nil {
				return doc, err
			}
			target = existing
		}
		for k, v := range fields {
			target[k] = v
		}
		return doc, nil

	case OpReplace:
		val, err := s.resolve(evt)
		if err != nil {
			return doc, err
		}
		fields, ok := asMap(val)
		if !ok {
			return doc, fmt.Errorf("replace needs an object value")
		}
		replaced := domain.Document(fields).Clone()
		if replaced == nil {
			replaced = domain.Document{}
		}
		return replaced, nil

	case OpFail:
		msg := s.Message
		if msg == "" {
			msg = evt.Type
		}
		return doc, fmt.Errorf("%w: %s", domain.ErrRejected, msg)
	}

	return doc, fmt.Errorf("%w: %q", domain.ErrUnknownOp, s.Op)
}

// resolve returns a private copy of the step value.
func (s Step) resolve(evt domain.Record) (any, error) {
	if s.From == "" {
		return cloneAny(s.Value), nil
	}
	if s.From == "type" {
		return evt.Type, nil
	}
	if s.From == "payload" {
		return cloneAny(map[string]any(evt.Payload)), nil
	}

	path := strings.TrimPrefix(s.From, "payload.")
	val, ok := getPath(evt.Payload, path)
	if !ok {
		return nil, fmt.Errorf("event has no %q", s.From)
	}
	return cloneAny(val), nil
}

func (s Step) amount(evt domain.Record) (float64, error) {
	if s.From == "" {
		if s.By == 0 {
			return 1, nil
		}
		return s.By, nil
	}
	raw, err := s.resolve(evt)
	if err != nil {
		return 0, err
	}
	n, ok := toFloat(raw)
	if !ok {
		return 0, fmt.Errorf("%q is not a number", s.From)
	}
	return n, nil
}

func cloneAny(v any) any {
	wrapped := domain.Document{"v": v}.Clone()
	return wrapped["v"]
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case domain.Document:
		return m, true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}
