package job

import (
	"fmt"
	"hash/fnv"
)

// ShardLabel hashes an event key to a stable small cardinality label (0-31)
// for metrics.
func ShardLabel(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("%d", h.Sum32()%32)
}
