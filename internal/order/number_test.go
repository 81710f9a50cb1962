package order

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewNumber(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	n := NewNumber(now)

	assert.Regexp(t, `^ORD-\d{13}-\d{4}$`, n)
	assert.True(t, strings.HasPrefix(n, fmt.Sprintf("ORD-%d-", now.UnixMilli())))
}
