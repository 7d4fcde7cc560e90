package record

import (
	"fmt"
	"strconv"
)

// toString renders a scalar leaf value (bool, int64, float64, or anything
// else via fmt-style fallback) for the embedding text serialization.
func toString(v Value) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
