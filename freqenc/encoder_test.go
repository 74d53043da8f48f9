package freqenc

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfraud/fraudpipe/elements"
)

func TestFit(t *testing.T) {

	testCases := []struct {
		caseName string
		values   []string
		expEnc   Encoding
	}{
		{
			caseName: "normalized-cumulative-counts",
			values:   []string{"a", "b", "a", "c", "b", "a"},
			expEnc:   Encoding{"a": 3.0 / 6.0, "b": 5.0 / 6.0, "c": 1.0},
		},
		{
			caseName: "single-category",
			values:   []string{"x", "x", "x"},
			expEnc:   Encoding{"x": 1.0},
		},
		{
			caseName: "equal-counts-break-ties-lexically",
			values:   []string{"b", "a", "c", "b", "a", "c"},
			expEnc:   Encoding{"a": 1.0 / 3.0, "b": 2.0 / 3.0, "c": 1.0},
		},
		{
			caseName: "null-label-is-an-ordinary-category",
			values:   []string{elements.NullCategory, "05", elements.NullCategory},
			expEnc:   Encoding{elements.NullCategory: 2.0 / 3.0, "05": 1.0},
		},
		{
			caseName: "no-values",
			values:   nil,
			expEnc:   Encoding{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.caseName, func(t *testing.T) {
			encoding := Fit(tc.values)
			require.Len(t, encoding, len(tc.expEnc))
			for value, expEncoded := range tc.expEnc {
				assert.InDeltaf(t, expEncoded, encoding[value], 1e-9, "value %q", value)
			}
		})
	}
}

func TestFitMonotonicityAndRange(t *testing.T) {

	// counts: e=5, d=4, c=3, b=2, a=1
	var values []string
	for i, value := range []string{"a", "b", "c", "d", "e"} {
		for j := 0; j <= i; j++ {
			values = append(values, value)
		}
	}

	encoding := Fit(values)

	previous := 0.0
	for _, value := range []string{"e", "d", "c", "b", "a"} {
		encoded := encoding[value]
		assert.Greaterf(t, encoded, 0.0, "value %q", value)
		assert.LessOrEqualf(t, encoded, 1.0, "value %q", value)
		assert.GreaterOrEqualf(t, encoded, previous, "value %q breaks monotonicity", value)
		previous = encoded
	}

	// the rarest category always maps to exactly 1.0
	assert.Equal(t, 1.0, encoding["a"])
}

func TestApply(t *testing.T) {

	encoding := Fit([]string{"a", "b", "a", "c", "b", "a"})

	encoded, err := Apply("posEntryMode", []string{"c", "a", "a", "b"}, encoding)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, encoded[0], 1e-9)
	assert.InDelta(t, 0.5, encoded[1], 1e-9)
	assert.InDelta(t, 0.5, encoded[2], 1e-9)
	assert.InDelta(t, 5.0/6.0, encoded[3], 1e-9)
}

func TestApplyUnseenCategoryFailsLoud(t *testing.T) {

	encoding := Fit([]string{"a", "b"})

	_, err := Apply("merchantCountry", []string{"a", "zz"}, encoding)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnseenCategory))
	assert.True(t, errors.Is(err, elements.ErrSchema))
	// the error must name the field and the missing value
	assert.True(t, strings.Contains(err.Error(), "merchantCountry"))
	assert.True(t, strings.Contains(err.Error(), "zz"))
}
