// Package rank orders seller lists by permission tier, degrading to
// alphabetical ordering when the permission oracle is unavailable.
package rank

import (
	"context"
	"sort"
	"strings"

	"auctionhouse-api/internal/collab"
	"auctionhouse-api/internal/model"
)

// DefaultPriority is the tier used when the oracle is absent, errors,
// or the seller has no recognized group.
const DefaultPriority = 3

// tierPriorities maps group names to sort priority; lower sorts first.
var tierPriorities = map[string]int{
	"deluxe":  1,
	"premium": 2,
	"default": DefaultPriority,
}

// Sorter orders sellers by (tier priority, name case-insensitive).
// A nil oracle is a valid configuration meaning "unavailable".
type Sorter struct {
	oracle collab.PermissionOracle
}

// NewSorter creates a sorter over the given oracle, which may be nil.
func NewSorter(oracle collab.PermissionOracle) *Sorter {
	return &Sorter{oracle: oracle}
}

// Sort orders sellers in place and returns them. Without an oracle the
// ordering is purely alphabetical, case-insensitive.
func (s *Sorter) Sort(ctx context.Context, sellers []model.SellerInfo) []model.SellerInfo {
	if s.oracle == nil {
		sort.SliceStable(sellers, func(i, j int) bool {
			return strings.ToLower(sellers[i].Name) < strings.ToLower(sellers[j].Name)
		})
		return sellers
	}

	priorities := make(map[string]int, len(sellers))
	for _, seller := range sellers {
		priorities[seller.ID] = s.priorityOf(ctx, seller.ID)
	}

	sort.SliceStable(sellers, func(i, j int) bool {
		pi, pj := priorities[sellers[i].ID], priorities[sellers[j].ID]
		if pi != pj {
			return pi < pj
		}
		return strings.ToLower(sellers[i].Name) < strings.ToLower(sellers[j].Name)
	})
	return sellers
}

// priorityOf resolves the first recognized group tier in oracle order.
func (s *Sorter) priorityOf(ctx context.Context, id string) int {
	groups, err := s.oracle.GroupsOf(ctx, id)
	if err != nil {
		return DefaultPriority
	}

	for _, group := range groups {
		if p, ok := tierPriorities[strings.ToLower(group)]; ok {
			return p
		}
	}
	return DefaultPriority
}
