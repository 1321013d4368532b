// Package requestid mints correlation ids for requests that arrive
// without one.
package requestid

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// 15 random bytes encode to 24 base32 characters with no padding.
const rawLen = 15

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// New returns a fresh correlation id. Ids are random rather than
// sequential so a restart cannot reissue an id that is still in flight
// somewhere downstream.
func New() (string, error) {
	var raw [rawLen]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("read random id bytes: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(raw[:])), nil
}
