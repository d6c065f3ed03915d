package testutil

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// Puller is anything with a context-aware Next returning io.EOF at the end.
type Puller[T any] interface {
	Next(ctx context.Context) (T, error)
}

// ReadAll drains p and fails the test on any error other than io.EOF.
func ReadAll[T any](t testing.TB, p Puller[T]) []T {
	t.Helper()
	var out []T
	for {
		v, err := p.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, v)
	}
}
