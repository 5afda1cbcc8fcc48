package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestNewBoard(t *testing.T) {
	b := NewBoard("a * and a *", []string{"cat", "dog", "bird"})
	assert.Equal(t, []string{"", ""}, b.Blanks)
	assert.Equal(t, []string{"cat", "dog", "bird"}, b.Pool)
}

func TestApplyPoolToEmptyBlank(t *testing.T) {
	b := NewBoard("* *", []string{"cat", "dog"})

	next, err := b.Apply(Move{Token: "cat", ToBlank: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", ""}, next.Blanks)
	assert.Equal(t, []string{"dog"}, next.Pool)

	// Original board is untouched.
	assert.Equal(t, []string{"", ""}, b.Blanks)
}

func TestApplyPoolToOccupiedBlankDisplaces(t *testing.T) {
	b := NewBoard("*", []string{"cat", "dog"})
	b, err := b.Apply(Move{Token: "cat", ToBlank: 0})
	require.NoError(t, err)

	next, err := b.Apply(Move{Token: "dog", ToBlank: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"dog"}, next.Blanks)
	assert.Equal(t, []string{"cat"}, next.Pool)
}

func TestApplyBlankToBlankSwaps(t *testing.T) {
	b := NewBoard("* *", []string{"cat", "dog"})
	b, err := b.Apply(Move{Token: "cat", ToBlank: 0})
	require.NoError(t, err)
	b, err = b.Apply(Move{Token: "dog", ToBlank: 1})
	require.NoError(t, err)

	// Swapping never loses a token.
	next, err := b.Apply(Move{Token: "cat", FromBlank: intPtr(0), ToBlank: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"dog", "cat"}, next.Blanks)
	assert.Empty(t, next.Pool)
}

func TestApplySwapWithEmptyBlank(t *testing.T) {
	b := NewBoard("* *", []string{"cat"})
	b, err := b.Apply(Move{Token: "cat", ToBlank: 0})
	require.NoError(t, err)

	next, err := b.Apply(Move{Token: "cat", FromBlank: intPtr(0), ToBlank: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "cat"}, next.Blanks)
}

func TestApplySameBlankNoOp(t *testing.T) {
	b := NewBoard("*", []string{"cat"})
	b, err := b.Apply(Move{Token: "cat", ToBlank: 0})
	require.NoError(t, err)

	next, err := b.Apply(Move{Token: "cat", FromBlank: intPtr(0), ToBlank: 0})
	require.NoError(t, err)
	assert.Equal(t, b.Blanks, next.Blanks)
}

func TestApplyValidation(t *testing.T) {
	b := NewBoard("*", []string{"cat"})

	_, err := b.Apply(Move{Token: "cat", ToBlank: 5})
	assert.Error(t, err)

	_, err = b.Apply(Move{Token: "missing", ToBlank: 0})
	assert.Error(t, err)

	_, err = b.Apply(Move{Token: "cat", FromBlank: intPtr(0), ToBlank: 0})
	assert.Error(t, err) // blank 0 does not hold "cat" yet
}

func TestRemoveReturnsTokenToPool(t *testing.T) {
	b := NewBoard("*", []string{"cat"})
	b, err := b.Apply(Move{Token: "cat", ToBlank: 0})
	require.NoError(t, err)

	next, err := b.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, next.Blanks)
	assert.Equal(t, []string{"cat"}, next.Pool)

	// Removing an empty blank is a no-op.
	again, err := next.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, next.Blanks, again.Blanks)
}
