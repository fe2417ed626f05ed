package conversation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParsePrice validates a price entered by an admin: a positive decimal
// number, accepting comma or dot as the decimal separator. Returns the
// normalized form (comma replaced by dot, whitespace trimmed) so stored
// prices parse uniformly later.
func ParsePrice(input string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	if s == "" {
		return "", fmt.Errorf("conversation: empty price")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("conversation: price %q is not a number", input)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("conversation: price %q is not a number", input)
	}
	if v <= 0 {
		return "", fmt.Errorf("conversation: price must be positive, got %v", v)
	}
	return s, nil
}
