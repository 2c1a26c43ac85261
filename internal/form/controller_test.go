package form

import (
	"context"
	"encoding/json"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/replyhub/admin-gateway/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReportsAllViolationsAtOnce(t *testing.T) {
	fc := New(nil,
		Required("name"),
		Required("email"),
		Email("email"),
		Required("password"),
		MinLen("password", 8),
	)
	fc.SetField("email", "not-an-email")
	fc.SetField("password", "short")

	violations := fc.Validate()
	assert.Len(t, violations, 3)
	assert.Contains(t, violations, "name")
	assert.Contains(t, violations, "email")
	assert.Contains(t, violations, "password")
}

func TestValidateEmptyWhenRulesSatisfied(t *testing.T) {
	fc := New(nil,
		Required("name"),
		Required("email"),
		Email("email"),
		Required("password"),
		MinLen("password", 8),
		Required("confirm"),
		MatchesField("confirm", "password"),
	)
	fc.SetField("name", "Acme")
	fc.SetField("email", "owner@acme.test")
	fc.SetField("password", "hunter2hunter2")
	fc.SetField("confirm", "hunter2hunter2")

	assert.Empty(t, fc.Validate())
	assert.Empty(t, fc.Errors())
}

func TestMatchesField(t *testing.T) {
	fc := New(nil, MatchesField("confirm", "password"))
	fc.SetField("password", "abc12345")
	fc.SetField("confirm", "abc12346")

	violations := fc.Validate()
	assert.Contains(t, violations, "confirm")
}

func TestPatternRule(t *testing.T) {
	fc := New(nil, Pattern("sku", regexp.MustCompile(`^[A-Z0-9-]+$`), "Invalid SKU"))
	fc.SetField("sku", "bad sku!")
	assert.Equal(t, map[string]string{"sku": "Invalid SKU"}, fc.Validate())

	fc.SetField("sku", "GOOD-SKU-1")
	assert.Empty(t, fc.Validate())
}

func TestFirstViolationPerFieldWins(t *testing.T) {
	fc := New(nil, Required("email"), Email("email"))
	violations := fc.Validate()
	assert.Equal(t, "This field is required", violations["email"])
}

func TestSetFieldClearsPreviousViolation(t *testing.T) {
	fc := New(nil, Required("name"))
	fc.Validate()
	assert.Contains(t, fc.Errors(), "name")

	fc.SetField("name", "Acme")
	assert.NotContains(t, fc.Errors(), "name")
}

func TestSubmitSuccessResetsToDefaults(t *testing.T) {
	fc := New(map[string]string{"name": "", "stock": "0"})
	fc.SetField("name", "Widget")
	fc.SetField("stock", "5")

	data, apiErr := fc.Submit(context.Background(), func(ctx context.Context, values map[string]string) (json.RawMessage, *upstream.APIError) {
		assert.Equal(t, "Widget", values["name"])
		return json.RawMessage(`{"id":"1"}`), nil
	})
	require.Nil(t, apiErr)
	assert.JSONEq(t, `{"id":"1"}`, string(data))

	assert.Equal(t, map[string]string{"name": "", "stock": "0"}, fc.Values())
	assert.Empty(t, fc.Errors())
	assert.Empty(t, fc.TopError())
}

func TestSubmitFailureKeepsValues(t *testing.T) {
	fc := New(map[string]string{"name": ""})
	fc.SetField("name", "Widget")

	_, apiErr := fc.Submit(context.Background(), func(ctx context.Context, values map[string]string) (json.RawMessage, *upstream.APIError) {
		return nil, &upstream.APIError{Kind: upstream.KindBusiness, Message: "sku already exists"}
	})
	require.NotNil(t, apiErr)

	// The user's input survives a failed submit
	assert.Equal(t, "Widget", fc.Values()["name"])
	assert.Contains(t, fc.TopError(), "sku already exists")
	assert.False(t, fc.Submitting())
}

func TestDoubleSubmitGuard(t *testing.T) {
	fc := New(nil)

	var calls int64
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = fc.Submit(context.Background(), func(ctx context.Context, values map[string]string) (json.RawMessage, *upstream.APIError) {
			atomic.AddInt64(&calls, 1)
			<-release
			return json.RawMessage(`{}`), nil
		})
	}()

	require.Eventually(t, fc.Submitting, time.Second, time.Millisecond)

	// Second submit while one is in flight is a no-op
	data, apiErr := fc.Submit(context.Background(), func(ctx context.Context, values map[string]string) (json.RawMessage, *upstream.APIError) {
		atomic.AddInt64(&calls, 1)
		return json.RawMessage(`{}`), nil
	})
	assert.Nil(t, data)
	assert.Nil(t, apiErr)

	close(release)
	<-done

	assert.EqualValues(t, 1, atomic.LoadInt64(&calls), "exactly one call may reach the network")
	assert.False(t, fc.Submitting())
}
