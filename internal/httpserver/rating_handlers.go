package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dulif-backend/internal/service"
)

type submitRatingRequest struct {
	SellerID  string `json:"seller_id"`
	ListingID string `json:"listing_id"`
	Stars     int    `json:"stars"`
	Comment   string `json:"comment"`
}

func submitRatingHandler(ratings *service.RatingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRatingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		rating, err := ratings.SubmitRating(r.Context(), service.SubmitRatingInput{
			SellerID:  req.SellerID,
			BuyerID:   CurrentUser(r).ID,
			ListingID: req.ListingID,
			Stars:     req.Stars,
			Comment:   req.Comment,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rating)
	}
}

func canRateHandler(ratings *service.RatingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		sellerID := q.Get("seller_id")
		listingID := q.Get("listing_id")
		if sellerID == "" || listingID == "" {
			http.Error(w, "seller_id and listing_id are required", http.StatusBadRequest)
			return
		}
		ok, err := ratings.CanRate(r.Context(), sellerID, CurrentUser(r).ID, listingID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"can_rate": ok})
	}
}

func pendingRatingsHandler(ratings *service.RatingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := ratings.PendingForBuyer(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pending)
	}
}

func sellerRatingsHandler(ratings *service.RatingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID := chi.URLParam(r, "sellerID")
		list, err := ratings.SellerRatings(r.Context(), sellerID)
		if err != nil {
			writeError(w, err)
			return
		}
		stats, err := ratings.Stats(r.Context(), sellerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ratings": list,
			"stats":   stats,
		})
	}
}
