package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dulif-backend/internal/service"
)

type startConversationRequest struct {
	ListingID string `json:"listing_id"`
	SellerID  string `json:"seller_id"`
}

func startConversationHandler(conversations *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		conv, err := conversations.GetOrCreate(r.Context(), req.ListingID, req.SellerID, CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func listConversationsHandler(conversations *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := conversations.ListForUser(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func getConversationHandler(conversations *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, err := conversations.Get(r.Context(), chi.URLParam(r, "conversationID"), CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func listMessagesHandler(messages *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		list, err := messages.ListRecent(r.Context(), chi.URLParam(r, "conversationID"), CurrentUser(r).ID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

func sendMessageHandler(messages *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		msg, err := messages.Send(r.Context(), chi.URLParam(r, "conversationID"), CurrentUser(r).ID, req.Body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

func unreadCountHandler(messages *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := messages.UnreadCount(r.Context(), chi.URLParam(r, "conversationID"), CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"unread": n})
	}
}

func markReadHandler(messages *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := messages.MarkRead(r.Context(), chi.URLParam(r, "conversationID"), CurrentUser(r).ID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
