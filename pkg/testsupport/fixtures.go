package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-formstate/pkg/forms"
)

// Settle waits for every pending async check of e, failing the test after a
// generous deadline.
func Settle(t *testing.T, e *forms.Engine) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Wait(ctx); err != nil {
		t.Fatalf("wait for async checks: %v", err)
	}
}

// Recorder collects values delivered to a change sink.
type Recorder struct {
	values chan any
}

// NewRecorder returns a Recorder with room for n deliveries.
func NewRecorder(n int) *Recorder {
	return &Recorder{values: make(chan any, n)}
}

// Sink is suitable for forms.Engine.OnChange.
func (r *Recorder) Sink(value any) {
	r.values <- value
}

// Drain returns every value delivered so far.
func (r *Recorder) Drain() []any {
	var out []any
	for {
		select {
		case v := <-r.values:
			out = append(out, v)
		default:
			return out
		}
	}
}
