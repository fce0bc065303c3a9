package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dulif-backend/internal/domain"
	"dulif-backend/internal/service"
)

type listingCreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Price       float64  `json:"price"`
	Firm        bool     `json:"firm"`
	ImageURLs   []string `json:"image_urls"`
}

func createListingHandler(listings *service.ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req listingCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		listing, err := listings.Create(r.Context(), service.ListingCreateInput{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Subcategory: req.Subcategory,
			Price:       req.Price,
			Firm:        req.Firm,
			ImageURLs:   req.ImageURLs,
		}, CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, listing)
	}
}

func browseListingsHandler(listings *service.ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := domain.ListingFilter{
			Category: q.Get("category"),
			Search:   q.Get("q"),
			Status:   q.Get("status"),
			SellerID: q.Get("seller_id"),
		}
		if v := q.Get("min_price"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				filter.MinPrice = &f
			}
		}
		if v := q.Get("max_price"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				filter.MaxPrice = &f
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				filter.Offset = n
			}
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				filter.Limit = n
			}
		}
		result, err := listings.Browse(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func getListingHandler(listings *service.ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := listings.Get(r.Context(), chi.URLParam(r, "listingID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	}
}

type listingUpdateRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Firm        *bool    `json:"firm"`
	Status      *string  `json:"status"`
	BuyerID     *string  `json:"buyer_id"`
	Boosted     *bool    `json:"boosted"`
}

func updateListingHandler(listings *service.ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req listingUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		listing, err := listings.Update(r.Context(), chi.URLParam(r, "listingID"), CurrentUser(r).ID, service.ListingUpdateInput{
			Title:       req.Title,
			Description: req.Description,
			Price:       req.Price,
			Firm:        req.Firm,
			Status:      req.Status,
			BuyerID:     req.BuyerID,
			Boosted:     req.Boosted,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	}
}
