package cfi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaleelElias/YA/internal/errs"
)

func TestParse(t *testing.T) {
	c, err := Parse("epubcfi(/6/4[chap01ref]!/4[body01]/10[para05]/3:10)")
	require.NoError(t, err)
	assert.Equal(t, []Step{{6, false}, {4, false}, {4, true}, {10, false}, {3, false}}, c.Steps)
	assert.True(t, c.HasOffset)
	assert.Equal(t, 10, c.Offset)
	assert.Equal(t, "epubcfi(/6/4[chap01ref]!/4[body01]/10[para05]/3:10)", c.String())
}

func TestParse_BareAndRange(t *testing.T) {
	bare, err := Parse("/6/4[chap01]")
	require.NoError(t, err)
	assert.Len(t, bare.Steps, 2)

	rng, err := Parse("epubcfi(/6/4!/2,/1:0,/3:5)")
	require.NoError(t, err)
	assert.Equal(t, []Step{{6, false}, {4, false}, {2, true}, {1, false}}, rng.Steps)
	assert.Equal(t, 0, rng.Offset)
}

func TestParse_EscapedAssertion(t *testing.T) {
	c, err := Parse("/6/4[a^]b]/2")
	require.NoError(t, err)
	assert.Len(t, c.Steps, 3)
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "chapter-3", "/x", "/6/4[open", "/6:abc", "epubcfi()"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"/6/4[chap01]", "/6/4[chap01]!/2", -1},
		{"/6/2", "/6/10", -1},
		{"/6/10", "/6/2", 1},
		{"/6/4!/2:5", "/6/4!/2:12", -1},
		{"/6/4[x]!/2", "epubcfi(/6/4!/2)", 0},
		{"/6/8", "/6/4!/100", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			a, err := Parse(tt.a)
			require.NoError(t, err)
			b, err := Parse(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Compare(a, b))
		})
	}
}
