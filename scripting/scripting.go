// Package scripting runs user-supplied format scripts against field values
// before they are drawn. Scripts are JavaScript expressions evaluated with
// the field key and raw value in scope; whatever the script evaluates to
// becomes the drawn text.
package scripting

import (
	"context"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// Engine formats one field value. Implementations must be safe for
// sequential reuse across fields.
type Engine interface {
	Format(ctx context.Context, script, key, value string) (string, error)
}

// GojaEngine evaluates format scripts on an embedded JavaScript runtime.
// The runtime is reused between calls; a mutex serializes access because
// goja runtimes are not goroutine safe.
type GojaEngine struct {
	mu sync.Mutex
	vm *goja.Runtime
}

// NewGojaEngine returns a ready engine.
func NewGojaEngine() *GojaEngine {
	return &GojaEngine{vm: goja.New()}
}

// Format evaluates script with globals key and value bound. Cancelling ctx
// interrupts a running script.
func (e *GojaEngine) Format(ctx context.Context, script, key, value string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.vm.Set("key", key); err != nil {
		return "", fmt.Errorf("scripting: %w", err)
	}
	if err := e.vm.Set("value", value); err != nil {
		return "", fmt.Errorf("scripting: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interrupted, ok := err.(*goja.InterruptedError); ok {
			if cause := interrupted.Unwrap(); cause != nil {
				return "", cause
			}
			return "", context.Canceled
		}
		return "", fmt.Errorf("scripting: %q: %w", key, err)
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return value, nil
	}
	return val.String(), nil
}
