package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"dulif-backend/internal/domain"
	"dulif-backend/internal/live"
	"dulif-backend/internal/service"
)

const (
	testMaxMessageLength = 500
	testMessageWindow    = 100
)

func newMessageService(convs *MockConversationRepo, msgs *MockMessageRepo) (*service.MessageService, *live.Broker) {
	broker := live.NewBroker()
	svc := service.NewMessageService(convs, msgs, broker, zap.NewNop(), testMaxMessageLength, testMessageWindow)
	return svc, broker
}

func testConversation() *domain.Conversation {
	return &domain.Conversation{
		ID:        "conv-1",
		ListingID: "listing-1",
		SellerID:  "seller-1",
		BuyerID:   "buyer-1",
	}
}

func TestSendMessage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		convs := new(MockConversationRepo)
		msgs := new(MockMessageRepo)
		svc, _ := newMessageService(convs, msgs)

		convs.On("GetByID", mock.Anything, "conv-1").Return(testConversation(), nil)
		msgs.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.ConversationID == "conv-1" && m.SenderID == "buyer-1" && m.Body == "still available?" && !m.Read
		})).Return(nil)
		msgs.On("ListRecent", mock.Anything, "conv-1", testMessageWindow).Return([]*domain.Message{}, nil)
		convs.On("ListForUser", mock.Anything, "seller-1").Return([]*domain.Conversation{}, nil)
		convs.On("ListForUser", mock.Anything, "buyer-1").Return([]*domain.Conversation{}, nil)

		msg, err := svc.Send(context.Background(), "conv-1", "buyer-1", "  still available?  ")
		assert.NoError(t, err)
		assert.Equal(t, "still available?", msg.Body)
	})

	t.Run("EmptyBody", func(t *testing.T) {
		svc, _ := newMessageService(new(MockConversationRepo), new(MockMessageRepo))
		_, err := svc.Send(context.Background(), "conv-1", "buyer-1", "   ")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("BodyTooLong", func(t *testing.T) {
		svc, _ := newMessageService(new(MockConversationRepo), new(MockMessageRepo))
		_, err := svc.Send(context.Background(), "conv-1", "buyer-1", strings.Repeat("x", testMaxMessageLength+1))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("NonMember", func(t *testing.T) {
		convs := new(MockConversationRepo)
		svc, _ := newMessageService(convs, new(MockMessageRepo))

		convs.On("GetByID", mock.Anything, "conv-1").Return(testConversation(), nil)

		_, err := svc.Send(context.Background(), "conv-1", "stranger", "hi")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("UnknownConversation", func(t *testing.T) {
		convs := new(MockConversationRepo)
		svc, _ := newMessageService(convs, new(MockMessageRepo))

		convs.On("GetByID", mock.Anything, "ghost").Return(nil, nil)

		_, err := svc.Send(context.Background(), "ghost", "buyer-1", "hi")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("PublishesSnapshots", func(t *testing.T) {
		convs := new(MockConversationRepo)
		msgs := new(MockMessageRepo)
		svc, broker := newMessageService(convs, msgs)

		window := []*domain.Message{{ID: "m1", Body: "hi"}}
		convs.On("GetByID", mock.Anything, "conv-1").Return(testConversation(), nil)
		msgs.On("Create", mock.Anything, mock.Anything).Return(nil)
		msgs.On("ListRecent", mock.Anything, "conv-1", testMessageWindow).Return(window, nil)
		convs.On("ListForUser", mock.Anything, mock.Anything).Return([]*domain.Conversation{}, nil)

		var got []*domain.Message
		cancel := broker.SubscribeMessages("conv-1", func(m []*domain.Message) { got = m })
		defer cancel()

		_, err := svc.Send(context.Background(), "conv-1", "buyer-1", "hi")
		assert.NoError(t, err)
		assert.Equal(t, window, got)
	})
}

func TestListRecent(t *testing.T) {
	convs := new(MockConversationRepo)
	msgs := new(MockMessageRepo)
	svc, _ := newMessageService(convs, msgs)

	convs.On("GetByID", mock.Anything, "conv-1").Return(testConversation(), nil)

	t.Run("ClampsLimitToWindow", func(t *testing.T) {
		msgs.On("ListRecent", mock.Anything, "conv-1", testMessageWindow).Return([]*domain.Message{}, nil).Twice()

		_, err := svc.ListRecent(context.Background(), "conv-1", "seller-1", 0)
		assert.NoError(t, err)
		_, err = svc.ListRecent(context.Background(), "conv-1", "seller-1", 5000)
		assert.NoError(t, err)
		msgs.AssertExpectations(t)
	})

	t.Run("NonMember", func(t *testing.T) {
		_, err := svc.ListRecent(context.Background(), "conv-1", "stranger", 10)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestMarkRead(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		convs := new(MockConversationRepo)
		msgs := new(MockMessageRepo)
		svc, _ := newMessageService(convs, msgs)

		convs.On("GetByID", mock.Anything, "conv-1").Return(testConversation(), nil)
		msgs.On("MarkRead", mock.Anything, "conv-1", "buyer-1").Return(int64(2), nil)
		msgs.On("ListRecent", mock.Anything, "conv-1", testMessageWindow).Return([]*domain.Message{}, nil)
		convs.On("ListForUser", mock.Anything, mock.Anything).Return([]*domain.Conversation{}, nil)

		err := svc.MarkRead(context.Background(), "conv-1", "buyer-1")
		assert.NoError(t, err)
	})

	t.Run("RepoFailureIsSwallowed", func(t *testing.T) {
		convs := new(MockConversationRepo)
		msgs := new(MockMessageRepo)
		svc, _ := newMessageService(convs, msgs)

		convs.On("GetByID", mock.Anything, "conv-1").Return(testConversation(), nil)
		msgs.On("MarkRead", mock.Anything, "conv-1", "buyer-1").Return(int64(0), assert.AnError)

		err := svc.MarkRead(context.Background(), "conv-1", "buyer-1")
		assert.NoError(t, err)
	})

	t.Run("NothingUnreadSkipsPublish", func(t *testing.T) {
		convs := new(MockConversationRepo)
		msgs := new(MockMessageRepo)
		svc, _ := newMessageService(convs, msgs)

		convs.On("GetByID", mock.Anything, "conv-1").Return(testConversation(), nil)
		msgs.On("MarkRead", mock.Anything, "conv-1", "seller-1").Return(int64(0), nil)

		err := svc.MarkRead(context.Background(), "conv-1", "seller-1")
		assert.NoError(t, err)
		msgs.AssertNotCalled(t, "ListRecent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NonMember", func(t *testing.T) {
		convs := new(MockConversationRepo)
		svc, _ := newMessageService(convs, new(MockMessageRepo))

		convs.On("GetByID", mock.Anything, "conv-1").Return(testConversation(), nil)

		err := svc.MarkRead(context.Background(), "conv-1", "stranger")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestUnreadCount(t *testing.T) {
	convs := new(MockConversationRepo)
	msgs := new(MockMessageRepo)
	svc, _ := newMessageService(convs, msgs)

	convs.On("GetByID", mock.Anything, "conv-1").Return(testConversation(), nil)
	msgs.On("CountUnread", mock.Anything, "conv-1", "seller-1").Return(2, nil)

	n, err := svc.UnreadCount(context.Background(), "conv-1", "seller-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.UnreadCount(context.Background(), "conv-1", "stranger")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSubscribeToMessages(t *testing.T) {
	convs := new(MockConversationRepo)
	msgs := new(MockMessageRepo)
	svc, _ := newMessageService(convs, msgs)

	snapshot := []*domain.Message{{ID: "m1"}, {ID: "m2"}}
	convs.On("GetByID", mock.Anything, "conv-1").Return(testConversation(), nil)
	msgs.On("ListRecent", mock.Anything, "conv-1", testMessageWindow).Return(snapshot, nil)

	t.Run("DeliversInitialSnapshot", func(t *testing.T) {
		var got []*domain.Message
		cancel, err := svc.SubscribeToMessages(context.Background(), "conv-1", "buyer-1", func(m []*domain.Message) {
			got = m
		})
		assert.NoError(t, err)
		defer cancel()
		assert.Equal(t, snapshot, got)
	})

	t.Run("NonMemberCannotSubscribe", func(t *testing.T) {
		_, err := svc.SubscribeToMessages(context.Background(), "conv-1", "stranger", func([]*domain.Message) {})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}
