package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidItem indicates an item payload that does not decode.
var ErrInvalidItem = errors.New("invalid item payload")

// Item is the tradable good carried by listings and mailbox entries.
// The stores treat it as an opaque serialized blob; the coordinator
// decodes it only to rescale the amount or to hand it to the inventory
// collaborator.
type Item struct {
	Type        string            `json:"type"`
	DisplayName string            `json:"display_name,omitempty"`
	Amount      int               `json:"amount"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// Name returns the display name, falling back to the type.
func (i *Item) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Type
}

// WithAmount returns a copy of the item scaled to the given quantity.
func (i *Item) WithAmount(amount int) *Item {
	c := *i
	c.Amount = amount
	if i.Meta != nil {
		c.Meta = make(map[string]string, len(i.Meta))
		for k, v := range i.Meta {
			c.Meta[k] = v
		}
	}
	return &c
}

// Encode serializes the item for storage.
func (i *Item) Encode() ([]byte, error) {
	return json.Marshal(i)
}

// DecodeItem deserializes a stored item payload. A payload that fails to
// decode is treated as an absent item by callers, never as a fatal
// condition.
func DecodeItem(payload []byte) (*Item, error) {
	if len(payload) == 0 {
		return nil, ErrInvalidItem
	}
	var it Item
	if err := json.Unmarshal(payload, &it); err != nil {
		return nil, ErrInvalidItem
	}
	if it.Type == "" {
		return nil, ErrInvalidItem
	}
	return &it, nil
}

// SearchKey derives the sanitized lowercase search key stored alongside a
// listing: markup stripped, ASCII letters/digits/spaces only. Falls back
// to the item type name when sanitization leaves nothing.
func SearchKey(it *Item) string {
	name := stripMarkup(it.Name())

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}

	key := strings.TrimSpace(b.String())
	if key == "" {
		key = it.Type
	}
	return strings.ToLower(key)
}

// SanitizeSourceInfo strips markup color codes and non-ASCII characters
// from a mailbox provenance string before storage.
func SanitizeSourceInfo(s string) string {
	s = stripMarkup(s)
	var b strings.Builder
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripMarkup removes two-character color codes of the form '§x'.
func stripMarkup(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '§' && i+1 < len(runes) {
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}
