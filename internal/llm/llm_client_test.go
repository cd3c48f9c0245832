package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced without language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose wrapped", `Here is the result: {"a":1}. Hope that helps!`, `{"a":1}`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.JSONEq(t, c.want, extractJSON(c.in))
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	assert.True(t, IsPermanent(classifyStatus(400)))
	assert.True(t, IsPermanent(classifyStatus(401)))
	assert.True(t, IsPermanent(classifyStatus(403)))
	assert.True(t, IsPermanent(classifyStatus(404)))
	assert.False(t, IsPermanent(classifyStatus(429)))
	assert.False(t, IsPermanent(classifyStatus(500)))
	assert.False(t, IsPermanent(classifyStatus(503)))
}

func TestWithRetry_StopsOnPermanent(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, func() error {
		calls++
		return ErrOraclePermanent
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "permanent failures must not be retried")
}

func TestWithRetry_RetriesTransient(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, func() error {
		calls++
		if calls < 3 {
			return ErrOracleUnavailable
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, func() error {
		calls++
		return ErrOracleUnavailable
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOracleUnavailable))
	assert.Equal(t, 2, calls)
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, 3, func() error {
		return ErrOracleUnavailable
	})
	assert.True(t, errors.Is(err, context.Canceled))
}
