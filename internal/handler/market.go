package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/service"
	"auctionhouse-api/pkg/apierror"
	"auctionhouse-api/pkg/pager"
	"auctionhouse-api/pkg/price"
	"auctionhouse-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// MarketHandler handles marketplace HTTP requests.
type MarketHandler struct {
	market   *service.MarketService
	pageSize int
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(market *service.MarketService, pageSize int) *MarketHandler {
	if pageSize < 1 {
		pageSize = 45
	}
	return &MarketHandler{market: market, pageSize: pageSize}
}

// ListRequest is the body for creating a listing. Price accepts plain
// integers and k/m/b shorthand ("1.5k").
type ListRequest struct {
	SellerID   string      `json:"seller_id"`
	SellerName string      `json:"seller_name"`
	Item       *model.Item `json:"item"`
	Price      string      `json:"price"`
}

// CreateListing handles POST /api/v1/listings
func (h *MarketHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.SellerID == "" {
		response.Error(w, apierror.BadRequest("seller_id is required"))
		return
	}

	priceTotal, err := price.Parse(req.Price)
	if err != nil {
		if errors.Is(err, price.ErrOverflow) {
			response.Error(w, apierror.BadRequest("price is too large"))
			return
		}
		response.Error(w, apierror.BadRequest("invalid price"))
		return
	}

	listing, err := h.market.List(r.Context(), req.SellerID, req.SellerName, req.Item, priceTotal)
	if err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	response.Created(w, listing)
}

// GetListings handles GET /api/v1/listings
// Optional query params: search (substring filter), page (1-based).
func (h *MarketHandler) GetListings(w http.ResponseWriter, r *http.Request) {
	var (
		listings []model.Listing
		err      error
	)
	if term := r.URL.Query().Get("search"); term != "" {
		listings, err = h.market.ListingsMatching(r.Context(), term)
	} else {
		listings, err = h.market.Listings(r.Context())
	}
	if err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	paginated(w, r, listings, h.pageSize)
}

// GetListing handles GET /api/v1/listings/{id}
func (h *MarketHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}

	listing, err := h.market.Listing(r.Context(), id)
	if err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"listing":             listing,
		"price_per_unit":      listing.PricePerUnit(),
		"price_for_remaining": listing.PriceForRemaining(),
	})
}

// PurchaseRequest is the body for buying from a listing.
type PurchaseRequest struct {
	BuyerID  string `json:"buyer_id"`
	Quantity int    `json:"quantity"`
}

// Purchase handles POST /api/v1/listings/{id}/purchase
func (h *MarketHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.BuyerID == "" {
		response.Error(w, apierror.BadRequest("buyer_id is required"))
		return
	}

	receipt, err := h.market.Purchase(r.Context(), req.BuyerID, id, req.Quantity)
	if err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	response.OK(w, receipt)
}

// CancelListing handles DELETE /api/v1/listings/{id}?owner_id=...
func (h *MarketHandler) CancelListing(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}

	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		response.Error(w, apierror.BadRequest("owner_id is required"))
		return
	}

	if err := h.market.Cancel(r.Context(), ownerID, id); err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	response.OK(w, map[string]interface{}{"canceled": id})
}

// GetSellers handles GET /api/v1/sellers
// Optional query params: search (substring filter), page (1-based).
func (h *MarketHandler) GetSellers(w http.ResponseWriter, r *http.Request) {
	var (
		sellers []model.SellerInfo
		err     error
	)
	if term := r.URL.Query().Get("search"); term != "" {
		sellers, err = h.market.SellersMatching(r.Context(), term)
	} else {
		sellers, err = h.market.Sellers(r.Context())
	}
	if err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	paginated(w, r, sellers, h.pageSize)
}

// GetSellerListings handles GET /api/v1/sellers/{seller_id}/listings
func (h *MarketHandler) GetSellerListings(w http.ResponseWriter, r *http.Request) {
	sellerID := chi.URLParam(r, "seller_id")
	if sellerID == "" {
		response.Error(w, apierror.BadRequest("seller_id is required"))
		return
	}

	listings, err := h.market.ListingsFor(r.Context(), sellerID)
	if err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	paginated(w, r, listings, h.pageSize)
}

// GetMailbox handles GET /api/v1/mailbox/{owner_id}
func (h *MarketHandler) GetMailbox(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "owner_id")
	if ownerID == "" {
		response.Error(w, apierror.BadRequest("owner_id is required"))
		return
	}

	entries, err := h.market.MailboxFor(r.Context(), ownerID)
	if err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	paginated(w, r, entries, h.pageSize)
}

// Claim handles POST /api/v1/mailbox/{owner_id}/claim/{entry_id}
func (h *MarketHandler) Claim(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "owner_id")
	if ownerID == "" {
		response.Error(w, apierror.BadRequest("owner_id is required"))
		return
	}

	entryID, err := strconv.ParseInt(chi.URLParam(r, "entry_id"), 10, 64)
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid entry id"))
		return
	}

	entry, err := h.market.Claim(r.Context(), ownerID, entryID)
	if err != nil {
		response.Error(w, mapMarketError(err))
		return
	}

	response.OK(w, entry)
}

// ParsePrice handles GET /api/v1/price?input=1.5k
func (h *MarketHandler) ParsePrice(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("input")

	value, err := price.Parse(input)
	if err != nil {
		if errors.Is(err, price.ErrOverflow) {
			response.Error(w, apierror.BadRequest("price is too large"))
			return
		}
		response.Error(w, apierror.BadRequest("invalid price"))
		return
	}

	response.OK(w, map[string]interface{}{"input": input, "value": value})
}

// paginated writes one page of items with pagination metadata. The page
// query param is 1-based; an out-of-range page clamps to the last one.
func paginated[T any](w http.ResponseWriter, r *http.Request, items []T, pageSize int) {
	p := pager.New(items, pageSize)

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			response.Error(w, apierror.BadRequest("invalid page"))
			return
		}
		if !p.GoTo(page - 1) {
			p.GoToLast()
		}
	}

	response.JSONWithMeta(w, http.StatusOK,
		p.CurrentPageItems(), p.CurrentPage()+1, p.TotalPages(), p.TotalItems())
}

func listingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid listing id"))
		return 0, false
	}
	return id, true
}

// mapMarketError translates coordinator sentinel errors into API errors.
func mapMarketError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return apierror.NotFound("auction not found")
	case errors.Is(err, service.ErrAlreadyClaimed):
		return apierror.Conflict("already claimed")
	case errors.Is(err, service.ErrEmptyItem),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrListingLimit),
		errors.Is(err, service.ErrSelfPurchase),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrNoSpace),
		errors.Is(err, model.ErrInvalidItem):
		return apierror.Rejected(err.Error())
	default:
		return apierror.InternalError("")
	}
}
