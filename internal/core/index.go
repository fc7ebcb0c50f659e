package core

import (
	"strings"

	"github.com/JonMunkholm/spregistry/internal/store/table"
)

// ListingIndex is the set of identifiers already present in the listing.
// It covers persisted rows and rows accepted earlier in the same run.
type ListingIndex map[string]struct{}

// NewListingIndex indexes the sp_id column of listing rows. Stored cells
// keep their whitespace, so ids are trimmed for the lookup only.
func NewListingIndex(rows []table.Row) ListingIndex {
	idx := make(ListingIndex, len(rows))
	for _, r := range rows {
		if id := strings.TrimSpace(r.Get("sp_id")); id != "" {
			idx[id] = struct{}{}
		}
	}
	return idx
}

// Contains reports whether id is listed.
func (l ListingIndex) Contains(id string) bool {
	_, ok := l[id]
	return ok
}

// Add marks id as listed.
func (l ListingIndex) Add(id string) {
	l[id] = struct{}{}
}

// OrganizationKey normalizes an organization name for lookups.
func OrganizationKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
