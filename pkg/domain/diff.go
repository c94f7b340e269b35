package domain

import "reflect"

// Diff returns the top-level keys that differ between oldState and newState.
// Added and changed keys carry the new value; deleted keys carry nil.
// It returns nil when both documents are equal.
func Diff(oldState, newState Document) map[string]any {
	delta := make(map[string]any)

	for k, v := range newState {
		prev, ok := oldState[k]
		if !ok || !reflect.DeepEqual(prev, v) {
			delta[k] = v
		}
	}
	for k := range oldState {
		if _, ok := newState[k]; !ok {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}
