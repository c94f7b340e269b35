package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/foldtable/internal/config"
	"github.com/aretw0/foldtable/pkg/diagnostics"
	"github.com/aretw0/foldtable/pkg/reducer"
)

// Validate builds the reducer in strict mode with diagnostics on and reports the result to w.
// Warnings do not fail validation; collisions and nesting errors do.
func Validate(cfg *config.Config, opts Options, w io.Writer) error {
	recorder := diagnostics.NewRecorder()
	opts.Strict = true

	app, err := NewApp(cfg, opts,
		reducer.WithDiagnostics(true),
		reducer.WithWarner(recorder),
	)
	if err != nil {
		fmt.Fprintf(w, "✗ %s: %v\n", opts.RulesPath, err)
		return err
	}

	for _, msg := range recorder.Messages() {
		fmt.Fprintf(w, "! %s\n", msg)
	}
	fmt.Fprintf(w, "✓ %s: %d handlers %s\n", opts.RulesPath, app.Reducer.Table().Len(), marshalKeys(app.Keys()))
	return nil
}

func marshalKeys(keys []string) string {
	b, _ := json.Marshal(keys)
	return string(b)
}
