package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func TestLocalProvider(t *testing.T) {
	p := NewLocalProvider(256)
	ctx := context.Background()

	a, err := p.Generate(ctx, "Rust borrow checker explained", TaskRetrievalDocument)
	require.NoError(t, err)
	again, err := p.Generate(ctx, "rust BORROW checker, explained!", TaskRetrievalQuery)
	require.NoError(t, err)
	other, err := p.Generate(ctx, "banana bread recipe", TaskRetrievalDocument)
	require.NoError(t, err)

	assert.Len(t, a.Embedding.Values, 256)
	assert.Equal(t, a.Embedding.Values, again.Embedding.Values)
	assert.InDelta(t, 1.0, dot(a.Embedding.Values, a.Embedding.Values), 1e-5)
	assert.Greater(t, dot(a.Embedding.Values, again.Embedding.Values), dot(a.Embedding.Values, other.Embedding.Values))
}

func TestLocalProviderEmptyText(t *testing.T) {
	res, err := NewLocalProvider(8).Generate(context.Background(), "   ", "")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), res.Embedding.Values)
}
