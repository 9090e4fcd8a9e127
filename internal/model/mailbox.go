package model

import "time"

// MailboxKind distinguishes the two mutually exclusive mailbox payloads.
type MailboxKind string

const (
	MailboxItem  MailboxKind = "ITEM"
	MailboxMoney MailboxKind = "MONEY"
)

// MailboxEntry is a deferred delivery (item or money) awaiting claim by
// one recipient. ItemPayload is nil for MONEY entries; MoneyAmount is
// zero for ITEM entries.
type MailboxEntry struct {
	ID          int64       `json:"id"`
	OwnerID     string      `json:"owner_id"`
	Kind        MailboxKind `json:"kind"`
	ItemPayload []byte      `json:"item_payload,omitempty"`
	MoneyAmount int64       `json:"money_amount"`
	SourceInfo  string      `json:"source_info"`
	AddedAt     time.Time   `json:"added_at"`
}

// IsMoney reports whether the entry carries money.
func (e *MailboxEntry) IsMoney() bool {
	return e.Kind == MailboxMoney
}

// IsItem reports whether the entry carries an item.
func (e *MailboxEntry) IsItem() bool {
	return e.Kind == MailboxItem
}
