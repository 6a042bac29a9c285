package core

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"time"

	"geolens/domain/table"
)

// ContentHash is an order-independent fingerprint of a table's cell values.
// It is a cache key and a cheap cross-session equality check, not a security
// boundary, so a 128-bit digest is enough.
type ContentHash string

// String returns the hex digest.
func (h ContentHash) String() string { return string(h) }

// IsEmpty checks if the hash is empty.
func (h ContentHash) IsEmpty() bool { return h == "" }

// Equals checks if two hashes are equal.
func (h ContentHash) Equals(other ContentHash) bool { return h == other }

// HashTable fingerprints a table. Columns are visited in name order and rows
// in a canonical sort over all column values, so
// HashTable(t) == HashTable(permuteRows(permuteCols(t))) for any permutation,
// while any cell change flips the digest.
func HashTable(t table.Table) ContentHash {
	cols := append([]string(nil), t.Columns...)
	sort.Strings(cols)

	// Canonical matrix: rows rendered in sorted-column order.
	canon := make([][]string, len(t.Rows))
	for r := range t.Rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			v, _ := t.Cell(r, c)
			cells[i] = CanonicalCell(v)
		}
		canon[r] = cells
	}
	sort.SliceStable(canon, func(a, b int) bool {
		for i := range canon[a] {
			if canon[a][i] != canon[b][i] {
				return canon[a][i] < canon[b][i]
			}
		}
		return false
	})

	h := md5.New()
	for _, c := range cols {
		h.Write([]byte(c))
		h.Write([]byte{0x1f})
	}
	for _, row := range canon {
		for _, cell := range row {
			h.Write([]byte(cell))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	return ContentHash(hex.EncodeToString(h.Sum(nil)))
}

// CanonicalCell renders a cell value into the stable string form used for
// hashing and row ordering.
func CanonicalCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	case time.Time:
		return c.Format(table.DateLayout)
	default:
		return fmt.Sprintf("%v", c)
	}
}
