package fsops

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/tabfm/tabfm/internal/models"
)

// SortKey selects the attribute a directory listing is ordered by.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortBySize     SortKey = "size"
	SortByModified SortKey = "modified"
	SortByType     SortKey = "type"
)

// SortOrder selects ascending or descending order.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// ListOptions controls filtering and ordering of a directory listing.
// The zero value lists visible entries by name, ascending.
type ListOptions struct {
	Sort       SortKey
	Order      SortOrder
	ShowHidden bool
}

// IsHidden reports whether an entry name is hidden by dotfile convention.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// SortEntries orders entries in place. Directories always sort before
// files; Order applies within each group. Names compare case-insensitively
// with digit runs compared as numbers, so file2 sorts before file10.
func SortEntries(entries []models.Entry, opts ListOptions) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		aDir := a.Kind == models.EntryDirectory
		bDir := b.Kind == models.EntryDirectory
		if aDir != bDir {
			return aDir
		}
		c := compareEntries(a, b, opts.Sort)
		if opts.Order == SortDescending {
			c = -c
		}
		return c < 0
	})
}

// compareEntries orders two entries by key, falling back to name so ties
// stay deterministic.
func compareEntries(a, b models.Entry, key SortKey) int {
	switch key {
	case SortBySize:
		if a.Size != b.Size {
			if a.Size < b.Size {
				return -1
			}
			return 1
		}
	case SortByModified:
		if !a.Modified.Equal(b.Modified) {
			if a.Modified.Before(b.Modified) {
				return -1
			}
			return 1
		}
	case SortByType:
		aExt := strings.ToLower(filepath.Ext(a.Name))
		bExt := strings.ToLower(filepath.Ext(b.Name))
		if c := strings.Compare(aExt, bExt); c != 0 {
			return c
		}
	}
	return compareNatural(a.Name, b.Name)
}

func compareNatural(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			ie, je := i, j
			for ie < len(a) && isDigit(a[ie]) {
				ie++
			}
			for je < len(b) && isDigit(b[je]) {
				je++
			}
			na := strings.TrimLeft(a[i:ie], "0")
			nb := strings.TrimLeft(b[j:je], "0")
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			i, j = ie, je
			continue
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	}
	return 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
