package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeItem(t *testing.T) {
	item := &Item{Type: "iron_ingot", DisplayName: "Iron Ingot", Amount: 3}
	payload, err := item.Encode()
	require.NoError(t, err)

	got, err := DecodeItem(payload)
	require.NoError(t, err)
	assert.Equal(t, item.Type, got.Type)
	assert.Equal(t, 3, got.Amount)

	for _, bad := range [][]byte{nil, {}, []byte("not json"), []byte(`{"amount":1}`)} {
		_, err := DecodeItem(bad)
		assert.ErrorIs(t, err, ErrInvalidItem)
	}
}

func TestWithAmountCopiesMeta(t *testing.T) {
	item := &Item{Type: "sword", Amount: 1, Meta: map[string]string{"ench": "sharpness"}}

	scaled := item.WithAmount(5)
	assert.Equal(t, 5, scaled.Amount)
	assert.Equal(t, 1, item.Amount)

	scaled.Meta["ench"] = "fire"
	assert.Equal(t, "sharpness", item.Meta["ench"])
}

func TestSearchKey(t *testing.T) {
	tests := []struct {
		name string
		item *Item
		want string
	}{
		{"plain name", &Item{Type: "iron_ingot", DisplayName: "Iron Ingot"}, "iron ingot"},
		{"color codes stripped", &Item{Type: "sword", DisplayName: "§6Golden §lSword"}, "golden sword"},
		{"non-ascii dropped", &Item{Type: "sword", DisplayName: "Épée ☆ Sword"}, "pe  sword"},
		{"falls back to type", &Item{Type: "mystery_box", DisplayName: "☆☆☆"}, "mystery_box"},
		{"no display name", &Item{Type: "stone"}, "stone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SearchKey(tt.item))
		})
	}
}

func TestSanitizeSourceInfo(t *testing.T) {
	assert.Equal(t, "Sold: Golden Sword x2", SanitizeSourceInfo("Sold: §6Golden §lSword x2"))
	assert.Equal(t, "Purchased from Bjrn", SanitizeSourceInfo("Purchased from Björn"))
	assert.Equal(t, "Canceled auction", SanitizeSourceInfo("Canceled auction"))
}
