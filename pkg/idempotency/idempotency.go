// Package idempotency reads the Idempotency-Key request header. Replay is
// best effort: a matching key returns the previously created order, but no
// exactly-once guarantee is made under concurrent duplicates.
package idempotency

import (
	"net/http"
	"strings"
)

const Header = "Idempotency-Key"

func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}
