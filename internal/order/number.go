package order

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewNumber builds the human-readable display number ORD-<unix-ms>-<0..9999>.
// It is not an identifier and carries no uniqueness guarantee; the order's
// UUID is the real key.
func NewNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%04d", now.UnixMilli(), rand.IntN(10000))
}
