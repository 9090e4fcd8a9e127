package handler

import (
	"encoding/json"
	"net/http"

	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/service"
	"auctionhouse-api/internal/session"
	"auctionhouse-api/pkg/apierror"
	"auctionhouse-api/pkg/pager"
	"auctionhouse-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// SessionHandler drives stateful browse sessions: one screen and one
// pagination cursor per viewer, with a pending-purchase confirm step.
type SessionHandler struct {
	sessions *session.Manager
	market   *service.MarketService
	pageSize int
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *session.Manager, market *service.MarketService, pageSize int) *SessionHandler {
	if pageSize < 1 {
		pageSize = 45
	}
	return &SessionHandler{sessions: sessions, market: market, pageSize: pageSize}
}

// ScreenRequest selects the screen a session shows.
type ScreenRequest struct {
	Screen   string `json:"screen"` // browse, seller or mailbox
	SellerID string `json:"seller_id,omitempty"`
	Search   string `json:"search,omitempty"`
}

// SessionView is one rendered page of a session's current screen.
type SessionView struct {
	Screen     string      `json:"screen"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	Total      int         `json:"total"`
	Items      interface{} `json:"items"`

	Pending *session.PendingPurchase `json:"pending,omitempty"`
}

// OpenScreen handles POST /api/v1/sessions/{viewer_id}
// It starts the viewer's session if absent and switches it to the
// requested screen with a fresh enumeration snapshot.
func (h *SessionHandler) OpenScreen(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewer_id")
	if viewerID == "" {
		response.Error(w, apierror.BadRequest("viewer_id is required"))
		return
	}

	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	s := h.sessions.Start(viewerID)
	s.ClearPending()

	switch req.Screen {
	case "", "browse":
		s.Screen = session.Screen{Kind: session.ScreenMainBrowse, SearchTerm: req.Search}
	case "seller":
		if req.SellerID == "" {
			response.Error(w, apierror.BadRequest("seller_id is required for the seller screen"))
			return
		}
		s.Screen = session.Screen{Kind: session.ScreenSellerListings, SellerID: req.SellerID}
	case "mailbox":
		s.Screen = session.Screen{Kind: session.ScreenMailbox}
	default:
		response.Error(w, apierror.BadRequest("unknown screen"))
		return
	}

	if err := h.enumerate(r, s, true); err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	response.OK(w, h.view(s))
}

// CurrentPage handles GET /api/v1/sessions/{viewer_id}
// It re-enumerates the current screen so a shrunken snapshot self-heals
// onto the last valid page.
func (h *SessionHandler) CurrentPage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.liveSession(w, r)
	if !ok {
		return
	}

	if err := h.enumerate(r, s, false); err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	response.OK(w, h.view(s))
}

// Next handles POST /api/v1/sessions/{viewer_id}/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(s *session.Session) {
		switch s.Screen.Kind {
		case session.ScreenMainBrowse:
			s.SellerPager.Next()
		case session.ScreenSellerListings:
			s.ListingPager.Next()
		case session.ScreenMailbox:
			s.MailboxPager.Next()
		}
	})
}

// Previous handles POST /api/v1/sessions/{viewer_id}/previous
func (h *SessionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(s *session.Session) {
		switch s.Screen.Kind {
		case session.ScreenMainBrowse:
			s.SellerPager.Previous()
		case session.ScreenSellerListings:
			s.ListingPager.Previous()
		case session.ScreenMailbox:
			s.MailboxPager.Previous()
		}
	})
}

// StartPurchaseRequest selects the listing a confirm step is for.
type StartPurchaseRequest struct {
	ListingID int64 `json:"listing_id"`
}

// StartPurchase handles POST /api/v1/sessions/{viewer_id}/purchase
// It moves the session to the confirm screen and records the pending
// purchase awaiting a quantity.
func (h *SessionHandler) StartPurchase(w http.ResponseWriter, r *http.Request) {
	s, ok := h.liveSession(w, r)
	if !ok {
		return
	}

	var req StartPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	listing, err := h.market.Listing(r.Context(), req.ListingID)
	if err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	s.Screen = session.Screen{Kind: session.ScreenPurchaseConfirm, ListingID: listing.ID}
	s.Pending = &session.PendingPurchase{
		ListingID:   listing.ID,
		MaxQuantity: listing.QuantityRemaining,
	}
	s.AwaitingInput = true

	response.OK(w, h.view(s))
}

// ConfirmPurchaseRequest carries the quantity for a pending purchase.
type ConfirmPurchaseRequest struct {
	Quantity int `json:"quantity"`
}

// ConfirmPurchase handles POST /api/v1/sessions/{viewer_id}/confirm
// It executes the pending purchase with the viewer as buyer and returns
// the session to the main browse screen.
func (h *SessionHandler) ConfirmPurchase(w http.ResponseWriter, r *http.Request) {
	s, ok := h.liveSession(w, r)
	if !ok {
		return
	}
	if s.Pending == nil {
		response.Error(w, apierror.Conflict("no purchase awaiting confirmation"))
		return
	}

	var req ConfirmPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	receipt, err := h.market.Purchase(r.Context(), s.ViewerID, s.Pending.ListingID, req.Quantity)
	if err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	s.ClearPending()
	s.Screen = session.Screen{Kind: session.ScreenMainBrowse}

	response.OK(w, receipt)
}

// Close handles DELETE /api/v1/sessions/{viewer_id}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewer_id")
	if viewerID == "" {
		response.Error(w, apierror.BadRequest("viewer_id is required"))
		return
	}

	h.sessions.End(viewerID)
	response.OK(w, map[string]interface{}{"closed": viewerID})
}

func (h *SessionHandler) liveSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	viewerID := chi.URLParam(r, "viewer_id")
	if viewerID == "" {
		response.Error(w, apierror.BadRequest("viewer_id is required"))
		return nil, false
	}

	s := h.sessions.Get(viewerID)
	if s == nil {
		response.Error(w, apierror.NotFound("no live session"))
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) navigate(w http.ResponseWriter, r *http.Request, move func(*session.Session)) {
	s, ok := h.liveSession(w, r)
	if !ok {
		return
	}

	if err := h.enumerate(r, s, false); err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	move(s)
	response.OK(w, h.view(s))
}

// enumerate loads the current screen's records. A fresh screen gets a
// new pager at the first page; otherwise the existing cursor keeps its
// position and clamps if the snapshot shrank.
func (h *SessionHandler) enumerate(r *http.Request, s *session.Session, fresh bool) error {
	ctx := r.Context()

	switch s.Screen.Kind {
	case session.ScreenMainBrowse:
		var (
			sellers []model.SellerInfo
			err     error
		)
		if s.Screen.SearchTerm != "" {
			sellers, err = h.market.SellersMatching(ctx, s.Screen.SearchTerm)
		} else {
			sellers, err = h.market.Sellers(ctx)
		}
		if err != nil {
			return err
		}
		if fresh || s.SellerPager == nil {
			s.SellerPager = pager.New(sellers, h.pageSize)
		} else {
			s.SellerPager.Reset(sellers)
		}

	case session.ScreenSellerListings:
		listings, err := h.market.ListingsFor(ctx, s.Screen.SellerID)
		if err != nil {
			return err
		}
		if fresh || s.ListingPager == nil {
			s.ListingPager = pager.New(listings, h.pageSize)
		} else {
			s.ListingPager.Reset(listings)
		}

	case session.ScreenMailbox:
		entries, err := h.market.MailboxFor(ctx, s.ViewerID)
		if err != nil {
			return err
		}
		if fresh || s.MailboxPager == nil {
			s.MailboxPager = pager.New(entries, h.pageSize)
		} else {
			s.MailboxPager.Reset(entries)
		}
	}
	return nil
}

func (h *SessionHandler) view(s *session.Session) *SessionView {
	switch s.Screen.Kind {
	case session.ScreenSellerListings:
		return pagedView("seller", s.ListingPager)
	case session.ScreenMailbox:
		return pagedView("mailbox", s.MailboxPager)
	case session.ScreenPurchaseConfirm:
		return &SessionView{Screen: "confirm", Pending: s.Pending}
	default:
		return pagedView("browse", s.SellerPager)
	}
}

func pagedView[T any](screen string, p *pager.Pager[T]) *SessionView {
	// CurrentPageItems clamps the cursor first, so the reported page is
	// always the one actually shown.
	items := p.CurrentPageItems()
	return &SessionView{
		Screen:     screen,
		Page:       p.CurrentPage() + 1,
		TotalPages: p.TotalPages(),
		Total:      p.TotalItems(),
		Items:      items,
	}
}
