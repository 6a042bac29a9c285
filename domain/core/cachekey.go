package core

import (
	"fmt"
	"strings"
)

// ProjectionCacheKey identifies one dimension-reduction run. Two invocations
// with the same feature selection, location-id selection, neighbor count and
// input-table hash are cache-equivalent.
func ProjectionCacheKey(features, locIDs []string, nNeighbors int, hash ContentHash) string {
	parts := []string{
		fmt.Sprintf("%v", features),
		fmt.Sprintf("%v", locIDs),
		fmt.Sprintf("%d", nNeighbors),
		hash.String(),
	}
	return strings.Join(parts, "_")
}
