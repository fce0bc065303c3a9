package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dulif-backend/internal/domain"
	"dulif-backend/internal/live"
)

// MessageService appends messages in order, tracks read state, and feeds the
// live broker with full snapshots after every change.
type MessageService struct {
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	broker        *live.Broker
	log           *zap.Logger

	MaxMessageLength int
	MessageWindow    int
}

func NewMessageService(
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	broker *live.Broker,
	log *zap.Logger,
	maxMessageLength int,
	messageWindow int,
) *MessageService {
	return &MessageService{
		conversations:    conversations,
		messages:         messages,
		broker:           broker,
		log:              log,
		MaxMessageLength: maxMessageLength,
		MessageWindow:    messageWindow,
	}
}

// Send appends a message and mirrors it onto the parent conversation's
// summary, then pushes fresh snapshots to message and inbox subscribers.
func (s *MessageService) Send(ctx context.Context, conversationID, senderID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is empty", domain.ErrInvalidInput)
	}
	if len([]rune(body)) > s.MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", domain.ErrInvalidInput, s.MaxMessageLength)
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	if !conv.HasMember(senderID) {
		return nil, domain.ErrForbidden
	}

	msg := &domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		Read:           false,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.publish(ctx, conv)
	return msg, nil
}

// ListRecent returns the bounded most-recent window in ascending created_at
// order for a conversation the user participates in.
func (s *MessageService) ListRecent(ctx context.Context, conversationID, userID string, limit int) ([]*domain.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	if !conv.HasMember(userID) {
		return nil, domain.ErrForbidden
	}
	if limit <= 0 || limit > s.MessageWindow {
		limit = s.MessageWindow
	}
	return s.messages.ListRecent(ctx, conversationID, limit)
}

// MarkRead flips read=true on every unread message the reader did not send.
// Read state is advisory: update failures are logged and swallowed rather
// than surfaced, and there is no rollback.
func (s *MessageService) MarkRead(ctx context.Context, conversationID, readerID string) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	if !conv.HasMember(readerID) {
		return domain.ErrForbidden
	}

	n, err := s.messages.MarkRead(ctx, conversationID, readerID)
	if err != nil {
		s.log.Warn("mark messages read",
			zap.String("conversation_id", conversationID),
			zap.String("reader_id", readerID),
			zap.Error(err))
		return nil
	}
	if n > 0 {
		s.publish(ctx, conv)
	}
	return nil
}

// UnreadCount reports how many messages in the conversation the user has not
// read yet (their counterpart's unread sends).
func (s *MessageService) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return 0, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return 0, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	if !conv.HasMember(userID) {
		return 0, domain.ErrForbidden
	}
	return s.messages.CountUnread(ctx, conversationID, userID)
}

// SubscribeToMessages delivers the current snapshot immediately and the full
// updated window after every change. The returned cancel must be called to
// stop delivery; an abandoned subscription lives for the rest of the process.
func (s *MessageService) SubscribeToMessages(ctx context.Context, conversationID, userID string, fn live.MessagesFunc) (func(), error) {
	msgs, err := s.ListRecent(ctx, conversationID, userID, 0)
	if err != nil {
		return nil, err
	}
	cancel := s.broker.SubscribeMessages(conversationID, fn)
	fn(msgs)
	return cancel, nil
}

// SubscribeToInbox mirrors SubscribeToMessages for the user's conversation
// list, ordered by last activity descending.
func (s *MessageService) SubscribeToInbox(ctx context.Context, userID string, fn live.InboxFunc) (func(), error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	cancel := s.broker.SubscribeInbox(userID, fn)
	fn(convs)
	return cancel, nil
}

// publish pushes fresh snapshots for the conversation and both members'
// inboxes. Best-effort: a failed reload is logged, not propagated, since the
// write that triggered it already succeeded.
func (s *MessageService) publish(ctx context.Context, conv *domain.Conversation) {
	msgs, err := s.messages.ListRecent(ctx, conv.ID, s.MessageWindow)
	if err != nil {
		s.log.Warn("reload messages for publish", zap.String("conversation_id", conv.ID), zap.Error(err))
	} else {
		s.broker.PublishMessages(conv.ID, msgs)
	}

	for _, uid := range conv.Members() {
		convs, err := s.conversations.ListForUser(ctx, uid)
		if err != nil {
			s.log.Warn("reload inbox for publish", zap.String("user_id", uid), zap.Error(err))
			continue
		}
		s.broker.PublishInbox(uid, convs)
	}
}
