package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashParams returns a canonical, order-independent digest of a parameter
// mapping. The mapping is encoded as JSON with sorted keys and hashed with
// xxhash64, so the same parameters produce the same digest in any key order,
// across runs and across processes.
func HashParams(params map[string]float64) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(CanonicalParams(params)))
}

// CanonicalParams encodes a parameter mapping as JSON with keys in sorted
// order. Integral values are rendered without a fractional part so that
// {"period": 14} and {"period": 14.0} encode identically.
func CanonicalParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(k))
		b.WriteString(": ")
		b.WriteString(formatParamValue(params[k]))
	}
	b.WriteByte('}')
	return b.String()
}

func formatParamValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
