// Package session owns per-viewer transient state: the current screen,
// pagination cursors over enumeration snapshots, and any pending
// purchase awaiting quantity input. A session lives exactly as long as
// the viewer's connection; ending it discards everything.
package session

import (
	"sync"

	"auctionhouse-api/internal/model"
	"auctionhouse-api/pkg/pager"
)

// ScreenKind identifies which view a session is on.
type ScreenKind int

const (
	ScreenMainBrowse ScreenKind = iota
	ScreenSellerListings
	ScreenMailbox
	ScreenPurchaseConfirm
)

// Screen is the tagged variant describing the current view plus the
// data needed to act on it.
type Screen struct {
	Kind ScreenKind

	// SellerID is set for ScreenSellerListings.
	SellerID string

	// ListingID is set for ScreenPurchaseConfirm.
	ListingID int64

	// SearchTerm carries the active filter, if any.
	SearchTerm string
}

// PendingPurchase tracks a purchase awaiting quantity input.
type PendingPurchase struct {
	ListingID   int64
	MaxQuantity int
}

// Session is a single viewer's transient state. It is owned by exactly
// one connection; the manager never hands the same session to two
// concurrent viewers.
type Session struct {
	ViewerID string
	Screen   Screen

	ListingPager *pager.Pager[model.Listing]
	SellerPager  *pager.Pager[model.SellerInfo]
	MailboxPager *pager.Pager[model.MailboxEntry]

	Pending       *PendingPurchase
	AwaitingInput bool
}

// ClearPending drops any pending purchase and input expectation.
func (s *Session) ClearPending() {
	s.Pending = nil
	s.AwaitingInput = false
}

// Manager tracks live sessions by viewer id.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Start returns the viewer's session, creating it if absent. A fresh
// enumeration supersedes whatever the previous screen held.
func (m *Manager) Start(viewerID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[viewerID]; ok {
		return s
	}
	s := &Session{ViewerID: viewerID}
	m.sessions[viewerID] = s
	return s
}

// Get returns the viewer's session, or nil if none is live.
func (m *Manager) Get(viewerID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[viewerID]
}

// End discards the viewer's session and all its transient state. Must
// be called when the viewer's connection closes.
func (m *Manager) End(viewerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, viewerID)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
