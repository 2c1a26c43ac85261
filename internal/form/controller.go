package form

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/replyhub/admin-gateway/internal/upstream"
)

// SubmitFunc performs the actual mutation with the current field values
type SubmitFunc func(ctx context.Context, values map[string]string) (json.RawMessage, *upstream.APIError)

// Controller holds the state of one dialog form: current values,
// per-field violations, and the in-flight submit guard. A controller is
// created when a dialog opens and discarded when it closes.
type Controller struct {
	mu         sync.Mutex
	defaults   map[string]string
	values     map[string]string
	errors     map[string]string
	topError   string
	submitting bool
	rules      []Rule
}

// New creates a controller seeded with the dialog's initial values
func New(initial map[string]string, rules ...Rule) *Controller {
	return &Controller{
		defaults: copyValues(initial),
		values:   copyValues(initial),
		errors:   make(map[string]string),
		rules:    rules,
	}
}

// SetField updates one field and drops its previous violation; the
// field is re-checked on the next Validate.
func (c *Controller) SetField(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = value
	delete(c.errors, name)
}

// Values returns a copy of the current field values
func (c *Controller) Values() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyValues(c.values)
}

// Errors returns a copy of the current per-field violations
func (c *Controller) Errors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyValues(c.errors)
}

// TopError returns the form-level error from the last failed submit
func (c *Controller) TopError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topError
}

// Submitting reports whether a submit is in flight
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Validate runs every rule and returns all violations at once. The
// first violation per field wins; later rules for that field are
// skipped.
func (c *Controller) Validate() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	violations := make(map[string]string)
	for _, rule := range c.rules {
		if _, seen := violations[rule.Field]; seen {
			continue
		}
		if msg := rule.Check(c.values); msg != "" {
			violations[rule.Field] = msg
		}
	}

	c.errors = copyValues(violations)
	return copyValues(violations)
}

// Submit runs the mutation with the current values. A second call while
// one is in flight is a no-op returning (nil, nil). On success the form
// resets to its defaults; on failure the values are kept so the user
// does not lose input, and the error lands in TopError.
func (c *Controller) Submit(ctx context.Context, fn SubmitFunc) (json.RawMessage, *upstream.APIError) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, nil
	}
	c.submitting = true
	c.topError = ""
	values := copyValues(c.values)
	c.mu.Unlock()

	data, apiErr := fn(ctx, values)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if apiErr != nil {
		c.topError = apiErr.Error()
		return nil, apiErr
	}

	c.values = copyValues(c.defaults)
	c.errors = make(map[string]string)
	return data, nil
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
