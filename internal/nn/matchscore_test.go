package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

func TestParseMatchScore(t *testing.T) {
	score, err := ParseMatchScore("euclidean")
	require.NoError(t, err)
	assert.Equal(t, Euclidean, score)

	score, err = ParseMatchScore("cosine")
	require.NoError(t, err)
	assert.Equal(t, Cosine, score)

	_, err = ParseMatchScore("manhattan")
	require.Error(t, err)
}

func TestEuclideanMatrix_KnownValues(t *testing.T) {
	// a = [(0,0), (3,4)], b = [(0,0), (3,4)].
	a := seq(t, []float32{0, 0, 3, 4}, tensor.Shape{1, 2, 2})
	b := seq(t, []float32{0, 0, 3, 4}, tensor.Shape{1, 2, 2})

	m := attentionMatrix(Euclidean, a, b)
	assert.True(t, m.Shape().Equal(tensor.Shape{1, 2, 2}))

	// Identical positions score 1; distance 5 scores 1/6.
	closeTo(t, []float32{1, 1.0 / 6, 1.0 / 6, 1}, m.Data(), 1e-6)
}

func TestEuclideanMatrix_ScoresInUnitInterval(t *testing.T) {
	a := seq(t, []float32{1, -2, 0.5, 3, -1, 0}, tensor.Shape{1, 3, 2})
	b := seq(t, []float32{0, 0, 2, 2, -3, 1}, tensor.Shape{1, 3, 2})

	for _, v := range attentionMatrix(Euclidean, a, b).Data() {
		assert.Greater(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestCosineMatrix_KnownValues(t *testing.T) {
	// Parallel, orthogonal and anti-parallel vectors.
	a := seq(t, []float32{1, 0, 0, 1}, tensor.Shape{1, 2, 2})
	b := seq(t, []float32{2, 0, -1, 0}, tensor.Shape{1, 2, 2})

	m := attentionMatrix(Cosine, a, b)
	closeTo(t, []float32{1, -1, 0, 0}, m.Data(), 1e-5)
}

func TestCosineMatrix_ZeroRowsScoreZero(t *testing.T) {
	// Padding rows are zero vectors; the floored norm keeps the score 0
	// instead of NaN.
	a := seq(t, []float32{0, 0, 1, 1}, tensor.Shape{1, 2, 2})
	b := seq(t, []float32{1, 2, 0, 0}, tensor.Shape{1, 2, 2})

	m := attentionMatrix(Cosine, a, b)
	data := m.Data()
	assert.False(t, math.IsNaN(float64(data[0])))
	assert.Zero(t, data[0]) // zero row of a vs real row of b
	assert.Zero(t, data[3]) // real row of a vs zero row of b
}

func TestAttentionMatrix_SwapTransposes(t *testing.T) {
	a := seq(t, []float32{1, 2, -1, 0.5, 3, 1}, tensor.Shape{1, 3, 2})
	b := seq(t, []float32{0.5, 1, 2, -2, 1, 1}, tensor.Shape{1, 3, 2})

	for _, score := range []MatchScore{Euclidean, Cosine} {
		ab := attentionMatrix(score, a, b)
		ba := attentionMatrix(score, b, a)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				assert.InDelta(t, ab.At(0, i, j), ba.At(0, j, i), 1e-6,
					"%v entry (%d, %d)", score, i, j)
			}
		}
	}
}

func TestAttentionMatrix_IdenticalSequencesDiagonalMaximal(t *testing.T) {
	x := seq(t, []float32{1, 0.5, -2, 1, 0.25, 3}, tensor.Shape{1, 3, 2})

	m := attentionMatrix(Euclidean, x, x)
	for i := 0; i < 3; i++ {
		diag := m.At(0, i, i)
		assert.InDelta(t, 1, diag, 1e-6)
		for j := 0; j < 3; j++ {
			assert.LessOrEqual(t, m.At(0, i, j), diag+1e-6, "row %d, col %d", i, j)
		}
	}
}

func TestAttentionMatrix_ShapeMismatchPanics(t *testing.T) {
	a := seq(t, []float32{1, 2}, tensor.Shape{1, 2, 1})
	b := seq(t, []float32{1, 2, 3}, tensor.Shape{1, 3, 1})
	assert.Panics(t, func() { attentionMatrix(Euclidean, a, b) })
}
