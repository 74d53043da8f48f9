// Package freqenc converts unbounded-cardinality categorical values
// into stable numeric values by frequency encoding: each category maps
// to the normalized cumulative count of its rank in the reference
// population, ordered by descending count.
//
// For the values ['a','b','a','c','b','a'] the encoding is
// {a: 3/6, b: (3+2)/6, c: (3+2+1)/6}. The most frequent category lands
// closest to zero and the rarest maps to exactly 1.0.
//
// An encoding is fit once on the training population and then reused
// unmodified for every population it is applied to; that consistency is
// what keeps train and serving features comparable.
package freqenc

import (
	"fmt"
	"sort"

	"github.com/alekLukanen/errs"
)

// Encoding maps a raw category value to its cumulative normalized
// frequency in (0,1].
type Encoding map[string]float64

// Fit counts the occurrences of each distinct value and builds the
// encoding. Callers coerce missing values to elements.NullCategory
// before fitting. Categories with equal counts are ordered by ascending
// lexicographic value so the mapping is reproducible across re-runs.
// Counts and cumulative sums accumulate in int64/float64, which holds
// up for populations far past the 2^53 rows a float alone could track.
func Fit(values []string) Encoding {

	counts := make(map[string]int64, 64)
	for _, value := range values {
		counts[value]++
	}

	ordered := make([]string, 0, len(counts))
	for value := range counts {
		ordered = append(ordered, value)
	}
	sort.Slice(ordered, func(a, b int) bool {
		if counts[ordered[a]] != counts[ordered[b]] {
			return counts[ordered[a]] > counts[ordered[b]]
		}
		return ordered[a] < ordered[b]
	})

	total := int64(len(values))
	encoding := make(Encoding, len(ordered))
	var cumulative int64
	for _, value := range ordered {
		cumulative += counts[value]
		encoding[value] = float64(cumulative) / float64(total)
	}
	return encoding
}

// Apply maps every value through the encoding. A value absent from the
// encoding aborts with a schema error naming the field and the value;
// there is no silent default, missing categories mean the target
// population drifted from the population the encoding was fit on.
func Apply(field string, values []string, encoding Encoding) ([]float64, error) {

	encoded := make([]float64, len(values))
	for i, value := range values {
		mapped, found := encoding[value]
		if !found {
			return nil, errs.NewStackError(fmt.Errorf(
				"%w: field %s, value %q", ErrUnseenCategory, field, value,
			))
		}
		encoded[i] = mapped
	}
	return encoded, nil
}
