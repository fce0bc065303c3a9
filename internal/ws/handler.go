package ws

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dulif-backend/internal/domain"
	"dulif-backend/internal/security"
	"dulif-backend/internal/service"
)

type wsAuthError struct {
	status int
	msg    string
}

func (e wsAuthError) Error() string {
	return e.msg
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractTokenFromWSRequest(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token, nil
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			token := parts[1]
			if token != "" {
				return token, nil
			}
		}
	}

	return "", wsAuthError{status: http.StatusUnauthorized, msg: "missing bearer token"}
}

// conn wraps a websocket connection with a write lock. Snapshot callbacks
// fire from whichever goroutine published the change, and gorilla/websocket
// forbids concurrent writers.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *conn) sendError(msg string) {
	_ = c.writeJSON(map[string]any{
		"type":    "error",
		"message": msg,
	})
}

// MakeHandler returns an HTTP handler for the /ws endpoint.
// Authenticates via Bearer token (Authorization header or Sec-WebSocket-Protocol),
// pushes the caller's inbox snapshot on connect and after every change, then
// dispatches events:
//   - subscribe    -> stream message snapshots for one conversation
//   - unsubscribe  -> stop the message stream
//   - message      -> send a message to the subscribed-or-named conversation
//   - mark_read    -> mark the other member's messages read
func MakeHandler(
	tokens *security.TokenService,
	users domain.UserRepository,
	msgSvc *service.MessageService,
	allowedOrigins []string,
	log *zap.Logger,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
		Subprotocols: []string{
			"bearer",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr, err := extractTokenFromWSRequest(r)
		if err != nil {
			if authErr, ok := err.(wsAuthError); ok {
				http.Error(w, authErr.msg, authErr.status)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		sub := security.Subject(claims)
		if sub == "" {
			http.Error(w, "invalid token subject", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		user, err := users.GetByID(ctx, sub)
		if err != nil || user == nil || !user.IsActive {
			http.Error(w, "user not found or inactive", http.StatusUnauthorized)
			return
		}

		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer wsConn.Close()
		c := &conn{ws: wsConn}

		cancelInbox, err := msgSvc.SubscribeToInbox(ctx, user.ID, func(convs []*domain.Conversation) {
			if err := c.writeJSON(map[string]any{
				"type":          "inbox",
				"conversations": convs,
			}); err != nil {
				log.Debug("ws inbox write", zap.String("user_id", user.ID), zap.Error(err))
			}
		})
		if err != nil {
			log.Warn("ws subscribe inbox", zap.String("user_id", user.ID), zap.Error(err))
			return
		}
		defer cancelInbox()

		// At most one conversation stream per socket; a new subscribe
		// replaces the old one.
		var cancelMessages func()
		subscribedID := ""
		defer func() {
			if cancelMessages != nil {
				cancelMessages()
			}
		}()

		for {
			var payload map[string]any
			if err := c.ws.ReadJSON(&payload); err != nil {
				break
			}
			msgType, _ := payload["type"].(string)
			convID, _ := payload["conversation_id"].(string)

			switch msgType {

			case "subscribe":
				if convID == "" {
					c.sendError("subscribe requires conversation_id")
					continue
				}
				cancel, err := msgSvc.SubscribeToMessages(ctx, convID, user.ID, func(msgs []*domain.Message) {
					if err := c.writeJSON(map[string]any{
						"type":            "messages",
						"conversation_id": convID,
						"messages":        msgs,
					}); err != nil {
						log.Debug("ws messages write", zap.String("conversation_id", convID), zap.Error(err))
					}
				})
				if err != nil {
					log.Warn("ws subscribe messages", zap.String("conversation_id", convID), zap.Error(err))
					c.sendError("failed to subscribe to conversation")
					continue
				}
				if cancelMessages != nil {
					cancelMessages()
				}
				cancelMessages = cancel
				subscribedID = convID

			case "unsubscribe":
				if cancelMessages != nil {
					cancelMessages()
					cancelMessages = nil
					subscribedID = ""
				}

			case "message":
				if convID == "" {
					convID = subscribedID
				}
				body, _ := payload["body"].(string)
				if convID == "" || strings.TrimSpace(body) == "" {
					c.sendError("message requires conversation_id and non-empty body")
					continue
				}
				if _, err := msgSvc.Send(ctx, convID, user.ID, body); err != nil {
					log.Warn("ws send message", zap.String("conversation_id", convID), zap.Error(err))
					c.sendError("failed to send message")
					continue
				}

			case "mark_read":
				if convID == "" {
					convID = subscribedID
				}
				if convID == "" {
					continue
				}
				if err := msgSvc.MarkRead(ctx, convID, user.ID); err != nil {
					log.Warn("ws mark_read", zap.String("conversation_id", convID), zap.Error(err))
					c.sendError("failed to mark messages as read")
				}

			default:
				c.sendError("unknown event type")
			}
		}
	}
}
