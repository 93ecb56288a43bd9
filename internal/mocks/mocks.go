package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"community-chat-service/internal/models"
	"community-chat-service/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Insert(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	args := m.Called(ctx, msg)
	var stored models.ChatMessage
	if val := args.Get(0); val != nil {
		stored = val.(models.ChatMessage)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) RecentHistory(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, limit)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Delete(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ClearAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type ModerationRepositoryMock struct {
	mock.Mock
}

func (m *ModerationRepositoryMock) GetState(ctx context.Context, participantID string) (models.ModerationState, error) {
	args := m.Called(ctx, participantID)
	var state models.ModerationState
	if val := args.Get(0); val != nil {
		state = val.(models.ModerationState)
	}
	return state, args.Error(1)
}

func (m *ModerationRepositoryMock) SetBanned(ctx context.Context, participantID string, banned bool) (models.ModerationState, error) {
	args := m.Called(ctx, participantID, banned)
	var state models.ModerationState
	if val := args.Get(0); val != nil {
		state = val.(models.ModerationState)
	}
	return state, args.Error(1)
}

func (m *ModerationRepositoryMock) SetTimeout(ctx context.Context, participantID string, until int64) (models.ModerationState, error) {
	args := m.Called(ctx, participantID, until)
	var state models.ModerationState
	if val := args.Get(0); val != nil {
		state = val.(models.ModerationState)
	}
	return state, args.Error(1)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) BroadcastMessage(msg models.ChatMessage) {
	m.Called(msg)
}

func (m *BroadcasterMock) BroadcastPresence(list []models.Identity) {
	m.Called(list)
}

func (m *BroadcasterMock) BroadcastStatusChange(state models.ModerationState) {
	m.Called(state)
}

func (m *BroadcasterMock) BroadcastHistoryCleared() {
	m.Called()
}

func (m *BroadcasterMock) BroadcastMessageDeleted(messageID string) {
	m.Called(messageID)
}

type HistoryFetcherMock struct {
	mock.Mock
}

func (m *HistoryFetcherMock) RecentHistory(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, limit)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ModerationRepository = (*ModerationRepositoryMock)(nil)
