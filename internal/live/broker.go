// Package live implements the in-process subscription broker backing the
// chat's push updates: subscribers receive the full current snapshot on
// subscribe and the full updated snapshot after every change, until they
// cancel.
package live

import (
	"sync"

	"dulif-backend/internal/domain"
)

// MessagesFunc receives the ordered recent-message window for a conversation.
type MessagesFunc func(msgs []*domain.Message)

// InboxFunc receives a user's conversation list, newest activity first.
type InboxFunc func(convs []*domain.Conversation)

// Broker manages active subscriptions keyed by conversation ID (message
// snapshots) and user ID (inbox snapshots). It is mutex-driven; publishing
// copies the subscriber set and invokes callbacks outside the lock, so a
// callback may unsubscribe without deadlocking.
type Broker struct {
	mu        sync.RWMutex
	nextID    uint64
	msgSubs   map[string]map[uint64]MessagesFunc
	inboxSubs map[string]map[uint64]InboxFunc
}

func NewBroker() *Broker {
	return &Broker{
		msgSubs:   make(map[string]map[uint64]MessagesFunc),
		inboxSubs: make(map[string]map[uint64]InboxFunc),
	}
}

// SubscribeMessages registers fn for a conversation's message snapshots and
// returns the cancel handle. The caller must invoke it eventually or the
// subscription lives for the rest of the process.
func (b *Broker) SubscribeMessages(conversationID string, fn MessagesFunc) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.msgSubs[conversationID] == nil {
		b.msgSubs[conversationID] = make(map[uint64]MessagesFunc)
	}
	b.msgSubs[conversationID][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.msgSubs[conversationID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.msgSubs, conversationID)
			}
		}
	}
}

// SubscribeInbox registers fn for a user's conversation-list snapshots.
func (b *Broker) SubscribeInbox(userID string, fn InboxFunc) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.inboxSubs[userID] == nil {
		b.inboxSubs[userID] = make(map[uint64]InboxFunc)
	}
	b.inboxSubs[userID][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.inboxSubs[userID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.inboxSubs, userID)
			}
		}
	}
}

// PublishMessages delivers the snapshot to every current subscriber of the
// conversation.
func (b *Broker) PublishMessages(conversationID string, msgs []*domain.Message) {
	b.mu.RLock()
	fns := make([]MessagesFunc, 0, len(b.msgSubs[conversationID]))
	for _, fn := range b.msgSubs[conversationID] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(msgs)
	}
}

// PublishInbox delivers the conversation-list snapshot to every subscriber of
// the user.
func (b *Broker) PublishInbox(userID string, convs []*domain.Conversation) {
	b.mu.RLock()
	fns := make([]InboxFunc, 0, len(b.inboxSubs[userID]))
	for _, fn := range b.inboxSubs[userID] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(convs)
	}
}
