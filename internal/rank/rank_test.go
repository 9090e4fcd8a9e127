package rank

import (
	"context"
	"testing"

	"auctionhouse-api/internal/collab"
	"auctionhouse-api/internal/model"

	"github.com/stretchr/testify/assert"
)

func sellers(names ...string) []model.SellerInfo {
	out := make([]model.SellerInfo, len(names))
	for i, n := range names {
		out[i] = model.SellerInfo{ID: n, Name: n}
	}
	return out
}

func names(s []model.SellerInfo) []string {
	out := make([]string, len(s))
	for i := range s {
		out[i] = s[i].Name
	}
	return out
}

func TestSortWithoutOracleIsAlphabetical(t *testing.T) {
	sorter := NewSorter(nil)

	got := sorter.Sort(context.Background(), sellers("charlie", "Alice", "bob"))
	assert.Equal(t, []string{"Alice", "bob", "charlie"}, names(got))
}

func TestSortByTierThenName(t *testing.T) {
	sorter := NewSorter(&collab.StaticOracle{Groups: map[string][]string{
		"zoe": {"deluxe"},
		"mia": {"premium"},
		"ann": {"premium"},
		"bob": {"default"},
		"eve": {},
		"gus": {"unknown_group"},
	}})

	got := sorter.Sort(context.Background(),
		sellers("gus", "bob", "zoe", "mia", "eve", "ann"))

	// deluxe < premium < everything else; names break ties. Unrecognized
	// or missing groups land on the default tier.
	assert.Equal(t, []string{"zoe", "ann", "mia", "bob", "eve", "gus"}, names(got))
}

func TestSortFirstRecognizedGroupWins(t *testing.T) {
	sorter := NewSorter(&collab.StaticOracle{Groups: map[string][]string{
		"mixed": {"unranked", "premium", "deluxe"},
		"plain": {"default"},
	}})

	got := sorter.Sort(context.Background(), sellers("plain", "mixed"))
	assert.Equal(t, []string{"mixed", "plain"}, names(got))
}

func TestSortOracleErrorFallsBackToDefaultTier(t *testing.T) {
	sorter := NewSorter(failingOracle{})

	got := sorter.Sort(context.Background(), sellers("bob", "alice"))
	assert.Equal(t, []string{"alice", "bob"}, names(got))
}

type failingOracle struct{}

func (failingOracle) GroupsOf(ctx context.Context, id string) ([]string, error) {
	return nil, collab.ErrOracleUnavailable
}
