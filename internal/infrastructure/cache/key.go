package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Key builds a deterministic cache key from a provider id and its request
// parameters. Params are serialized with sorted keys before hashing so that
// logically identical requests collide regardless of field ordering.
func Key(providerID string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(providerID)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.ToLower(strings.TrimSpace(params[k])))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("results:%s:%s", providerID, hex.EncodeToString(sum[:]))
}
