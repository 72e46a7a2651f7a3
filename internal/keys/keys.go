// Package keys derives the lookup keys shared by the storage engine and
// its DynamoDB export.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// TemplateSignature returns the cache key for a set of field names.
// Order and duplicates do not matter; two name sets produce the same key
// only when they are equal as sets.
func TemplateSignature(names []string) string {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	sorted := make([]string, 0, len(set))
	for n := range set {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	h := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return hex.EncodeToString(h[:16])
}

// RelationshipPK computes the sharded partition key for a parent/child
// record. With numShards<=1 every child of a parent lands in shard "00".
func RelationshipPK(parentRef, childRef string, numShards int) string {
	if numShards <= 1 {
		return fmt.Sprintf("%s#00", parentRef)
	}
	h := fnv.New32a()
	h.Write([]byte(childRef))
	return fmt.Sprintf("%s#%02x", parentRef, h.Sum32()%uint32(numShards))
}

// ShardPK returns the partition key of one shard of a parent.
func ShardPK(parentRef string, shard int) string {
	return fmt.Sprintf("%s#%02x", parentRef, shard)
}
