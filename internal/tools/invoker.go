package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/components/tool"
)

// Invoker executes registered tools by capability name and classifies
// their failures. All analyst tool calls go through here.
type Invoker struct {
	registry *Registry
	timeout  time.Duration
}

// NewInvoker creates an invoker over a registry. A zero timeout means
// calls run under the caller's context alone.
func NewInvoker(registry *Registry, timeout time.Duration) *Invoker {
	return &Invoker{registry: registry, timeout: timeout}
}

// Invoke runs a capability with JSON-encoded arguments and returns the
// JSON-encoded result. Failures come back as *ToolError.
func (iv *Invoker) Invoke(ctx context.Context, capability string, argsJSON string) (string, error) {
	t, ok := iv.registry.Lookup(capability)
	if !ok {
		return "", &ToolError{
			Capability: capability,
			Kind:       UnknownCapability,
			Err:        fmt.Errorf("capability not registered"),
		}
	}

	invokable, ok := t.(tool.InvokableTool)
	if !ok {
		return "", &ToolError{
			Capability: capability,
			Kind:       PermanentFailure,
			Err:        fmt.Errorf("tool is not invokable"),
		}
	}

	if iv.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, iv.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := invokable.InvokableRun(ctx, argsJSON)
	if err != nil {
		var toolErr *ToolError
		if !errors.As(err, &toolErr) {
			toolErr = Classify(capability, err)
		}
		log.Printf("[Tools] %s failed after %v: %v", capability, time.Since(start).Round(time.Millisecond), toolErr)
		return "", toolErr
	}

	log.Printf("[Tools] %s completed in %v", capability, time.Since(start).Round(time.Millisecond))
	return result, nil
}
