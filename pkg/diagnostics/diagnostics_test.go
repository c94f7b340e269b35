package diagnostics_test

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/aretw0/foldtable/pkg/diagnostics"
	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestFromEnviron(t *testing.T) {
	tests := []struct {
		name    string
		environ []string
		want    bool
	}{
		{"unset", []string{"HOME=/root"}, true},
		{"empty", []string{"FOLDTABLE_ENV="}, true},
		{"development", []string{"FOLDTABLE_ENV=development"}, true},
		{"test", []string{"FOLDTABLE_ENV=test"}, true},
		{"production", []string{"FOLDTABLE_ENV=production"}, false},
		{"nil environ", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, diagnostics.FromEnviron(tt.environ))
		})
	}
}

func TestEnabled_Stable(t *testing.T) {
	first := diagnostics.Enabled()
	t.Setenv(diagnostics.EnvVar, "something-else-entirely")
	assert.Equal(t, first, diagnostics.Enabled(), "mode must be read once per process")
}

func TestLogWarner(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	w := diagnostics.NewLogWarner(logger)
	w.Warn("careful")

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "careful")
}

func TestWriterWarner_FixedText(t *testing.T) {
	var buf bytes.Buffer

	diagnostics.NewWriterWarner(&buf).Warn(domain.UndefinedWarning)

	assert.Equal(t,
		`level=WARN msg="Reducer contains an 'undefined' action type. Have you misspelled a constant?"`+"\n",
		buf.String())
}

func TestForMode(t *testing.T) {
	assert.Equal(t, diagnostics.Nop(), diagnostics.ForMode(false))
	assert.NotEqual(t, diagnostics.Nop(), diagnostics.ForMode(true))
}

func TestRecorder_Concurrent(t *testing.T) {
	rec := diagnostics.NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Warn("msg")
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, rec.Count())
	assert.Len(t, rec.Messages(), 20)
}

func TestWarnFunc(t *testing.T) {
	var got string
	diagnostics.WarnFunc(func(msg string) { got = msg }).Warn("hello")
	assert.Equal(t, "hello", got)
}
