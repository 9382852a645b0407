// Package reference mints externally displayable booking references.
//
// A reference looks like BKMCK3QZ81A7F2B9C: the "BK" prefix, the creation
// time in milliseconds encoded base36, and a random suffix drawn from a
// UUID. The timestamp part keeps references roughly sortable for operators;
// uniqueness is ultimately enforced by the storage layer's unique index, and
// a duplicate-key insert is retried with a fresh reference.
package reference

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	prefix       = "BK"
	suffixLength = 9
)

// New returns a fresh booking reference. Collisions are possible in theory
// and must be handled at insert time.
func New() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)

	id := uuid.New()
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))[:suffixLength]

	return prefix + strings.ToUpper(ts) + suffix
}

// IsWellFormed reports whether s looks like a reference this package could
// have produced. Lookup handlers use it to reject garbage before hitting
// storage.
func IsWellFormed(s string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	if len(s) < len(prefix)+suffixLength+1 || len(s) > 40 {
		return false
	}
	for _, r := range s[len(prefix):] {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
