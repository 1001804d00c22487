package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	grpcclient "gathering-service/internal/grpc"
	"gathering-service/internal/models"
	"gathering-service/internal/repositories"
	profilepb "gathering-service/pb/profile"
)

type EventRepositoryMock struct {
	mock.Mock
}

func (m *EventRepositoryMock) CreateEvent(ctx context.Context, creatorID int, title string, capacity int, mode models.AccessMode) (models.Event, error) {
	args := m.Called(ctx, creatorID, title, capacity, mode)
	var ev models.Event
	if val := args.Get(0); val != nil {
		ev = val.(models.Event)
	}
	return ev, args.Error(1)
}

func (m *EventRepositoryMock) GetEvent(ctx context.Context, eventID int) (models.Event, error) {
	args := m.Called(ctx, eventID)
	var ev models.Event
	if val := args.Get(0); val != nil {
		ev = val.(models.Event)
	}
	return ev, args.Error(1)
}

func (m *EventRepositoryMock) ListManagedEvents(ctx context.Context, creatorID int) ([]models.Event, error) {
	args := m.Called(ctx, creatorID)
	var events []models.Event
	if val := args.Get(0); val != nil {
		events = val.([]models.Event)
	}
	return events, args.Error(1)
}

func (m *EventRepositoryMock) EventTitles(ctx context.Context, eventIDs []int) (map[int]string, error) {
	args := m.Called(ctx, eventIDs)
	var titles map[int]string
	if val := args.Get(0); val != nil {
		titles = val.(map[int]string)
	}
	return titles, args.Error(1)
}

func (m *EventRepositoryMock) CanAccessGroupChat(ctx context.Context, eventID int, userID int) (bool, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Bool(0), args.Error(1)
}

type ParticipationRepositoryMock struct {
	mock.Mock
}

func (m *ParticipationRepositoryMock) Join(ctx context.Context, eventID int, userID int) (models.Event, error) {
	args := m.Called(ctx, eventID, userID)
	var ev models.Event
	if val := args.Get(0); val != nil {
		ev = val.(models.Event)
	}
	return ev, args.Error(1)
}

func (m *ParticipationRepositoryMock) Leave(ctx context.Context, eventID int, userID int) (models.Event, error) {
	args := m.Called(ctx, eventID, userID)
	var ev models.Event
	if val := args.Get(0); val != nil {
		ev = val.(models.Event)
	}
	return ev, args.Error(1)
}

func (m *ParticipationRepositoryMock) SetStatus(ctx context.Context, eventID int, actorID int, targetID int, status models.ParticipationStatus) (models.Event, error) {
	args := m.Called(ctx, eventID, actorID, targetID, status)
	var ev models.Event
	if val := args.Get(0); val != nil {
		ev = val.(models.Event)
	}
	return ev, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) ListOneToOneMessages(ctx context.Context, userID int, otherID int) ([]models.Message, error) {
	args := m.Called(ctx, userID, otherID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListGroupMessages(ctx context.Context, eventID int) ([]models.Message, error) {
	args := m.Called(ctx, eventID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, messageIDs []int, userID int) error {
	args := m.Called(ctx, messageIDs, userID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListChats(ctx context.Context, userID int) ([]models.ChatPreview, error) {
	args := m.Called(ctx, userID)
	var previews []models.ChatPreview
	if val := args.Get(0); val != nil {
		previews = val.([]models.ChatPreview)
	}
	return previews, args.Error(1)
}

type ProfileDirectoryMock struct {
	mock.Mock
}

func (m *ProfileDirectoryMock) GetUser(ctx context.Context, userID int) (*profilepb.GetUserResponse, error) {
	args := m.Called(ctx, userID)
	var user *profilepb.GetUserResponse
	if val := args.Get(0); val != nil {
		user = val.(*profilepb.GetUserResponse)
	}
	return user, args.Error(1)
}

func (m *ProfileDirectoryMock) BulkUsers(ctx context.Context, ids []int) ([]*profilepb.GetUserResponse, error) {
	args := m.Called(ctx, ids)
	var users []*profilepb.GetUserResponse
	if val := args.Get(0); val != nil {
		users = val.([]*profilepb.GetUserResponse)
	}
	return users, args.Error(1)
}

type TokenValidatorMock struct {
	mock.Mock
}

func (m *TokenValidatorMock) ValidateToken(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

var _ repositories.EventRepository = (*EventRepositoryMock)(nil)
var _ repositories.ParticipationRepository = (*ParticipationRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ grpcclient.ProfileDirectory = (*ProfileDirectoryMock)(nil)
