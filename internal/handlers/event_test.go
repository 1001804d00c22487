package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gathering-service/internal/mocks"
	"gathering-service/internal/models"
	"gathering-service/internal/repositories"
	profilepb "gathering-service/pb/profile"
)

type pusherSpy struct {
	userIDs  []int
	payloads [][]byte
}

func (p *pusherSpy) SendToUser(userID int, payload []byte) bool {
	p.userIDs = append(p.userIDs, userID)
	p.payloads = append(p.payloads, payload)
	return true
}

func setupEventRouter(handler *EventHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/events", handler.CreateEvent)
	r.GET("/events/managed", handler.ListManagedEvents)
	r.GET("/events/:event_id", handler.GetEvent)
	r.POST("/events/:event_id/join", handler.JoinEvent)
	r.POST("/events/:event_id/leave", handler.LeaveEvent)
	r.POST("/events/:event_id/accept-request", handler.AcceptRequest)
	r.POST("/events/:event_id/reject-request", handler.RejectRequest)
	return r
}

func TestCreateEventSuccess(t *testing.T) {
	eventRepo := new(mocks.EventRepositoryMock)
	handler := NewEventHandler(eventRepo, nil, nil, nil, nil)
	router := setupEventRouter(handler)

	eventRepo.On("CreateEvent", mock.Anything, 1, "picnic", 10, models.AccessOpen).
		Return(models.Event{ID: 3, CreatorID: 1, Title: "picnic", Capacity: 10, AccessMode: models.AccessOpen}, nil).Once()

	body := bytes.NewBufferString(`{"title":"picnic","capacity":10}`)
	req := httptest.NewRequest(http.MethodPost, "/events", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	eventRepo.AssertExpectations(t)
}

func TestCreateEventInvalidCapacity(t *testing.T) {
	handler := NewEventHandler(new(mocks.EventRepositoryMock), nil, nil, nil, nil)
	router := setupEventRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(`{"title":"x","capacity":-1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEventUnknownAccessMode(t *testing.T) {
	handler := NewEventHandler(new(mocks.EventRepositoryMock), nil, nil, nil, nil)
	router := setupEventRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(`{"title":"x","capacity":5,"access_mode":"invite_only"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinEventSuccess(t *testing.T) {
	participation := new(mocks.ParticipationRepositoryMock)
	publisher := new(mocks.PublisherMock)
	handler := NewEventHandler(new(mocks.EventRepositoryMock), participation, nil, nil, publisher)
	router := setupEventRouter(handler)

	participation.On("Join", mock.Anything, 5, 1).
		Return(models.Event{ID: 5, CreatorID: 2, Participants: []models.Participation{{EventID: 5, UserID: 1, Status: models.StatusApproved}}}, nil).Once()
	publisher.On("Publish", mock.Anything, "participation.events", mock.Anything, mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/events/5/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	participation.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestJoinEventCapacityExceeded(t *testing.T) {
	participation := new(mocks.ParticipationRepositoryMock)
	handler := NewEventHandler(new(mocks.EventRepositoryMock), participation, nil, nil, nil)
	router := setupEventRouter(handler)

	participation.On("Join", mock.Anything, 5, 1).Return(models.Event{}, repositories.ErrEventFull).Once()

	req := httptest.NewRequest(http.MethodPost, "/events/5/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	participation.AssertExpectations(t)
}

func TestJoinEventSelfJoin(t *testing.T) {
	participation := new(mocks.ParticipationRepositoryMock)
	handler := NewEventHandler(new(mocks.EventRepositoryMock), participation, nil, nil, nil)
	router := setupEventRouter(handler)

	participation.On("Join", mock.Anything, 5, 1).Return(models.Event{}, repositories.ErrSelfJoin).Once()

	req := httptest.NewRequest(http.MethodPost, "/events/5/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinEventNotFound(t *testing.T) {
	participation := new(mocks.ParticipationRepositoryMock)
	handler := NewEventHandler(new(mocks.EventRepositoryMock), participation, nil, nil, nil)
	router := setupEventRouter(handler)

	participation.On("Join", mock.Anything, 99, 1).Return(models.Event{}, repositories.ErrEventNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/events/99/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinEventInvalidID(t *testing.T) {
	handler := NewEventHandler(new(mocks.EventRepositoryMock), new(mocks.ParticipationRepositoryMock), nil, nil, nil)
	router := setupEventRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/events/abc/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaveEventSuccess(t *testing.T) {
	participation := new(mocks.ParticipationRepositoryMock)
	handler := NewEventHandler(new(mocks.EventRepositoryMock), participation, nil, nil, nil)
	router := setupEventRouter(handler)

	// Leave is idempotent: the repository succeeds whether or not a
	// participation existed.
	participation.On("Leave", mock.Anything, 5, 1).Return(models.Event{ID: 5, Participants: []models.Participation{}}, nil).Twice()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/events/5/leave", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	participation.AssertExpectations(t)
}

func TestAcceptRequestSuccess(t *testing.T) {
	participation := new(mocks.ParticipationRepositoryMock)
	pusher := new(pusherSpy)
	handler := NewEventHandler(new(mocks.EventRepositoryMock), participation, nil, pusher, nil)
	router := setupEventRouter(handler)

	participation.On("SetStatus", mock.Anything, 5, 1, 2, models.StatusApproved).
		Return(models.Event{ID: 5, CreatorID: 1, Participants: []models.Participation{{EventID: 5, UserID: 2, Status: models.StatusApproved}}}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/events/5/accept-request", bytes.NewBufferString(`{"user_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	participation.AssertExpectations(t)

	// The decision is pushed to the target over the live channel.
	require.Len(t, pusher.userIDs, 1)
	assert.Equal(t, 2, pusher.userIDs[0])
	var env struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(pusher.payloads[0], &env))
	assert.Equal(t, "participation", env.Type)
}

func TestRejectRequestNotCreator(t *testing.T) {
	participation := new(mocks.ParticipationRepositoryMock)
	handler := NewEventHandler(new(mocks.EventRepositoryMock), participation, nil, nil, nil)
	router := setupEventRouter(handler)

	participation.On("SetStatus", mock.Anything, 5, 1, 2, models.StatusRejected).
		Return(models.Event{}, repositories.ErrNotCreator).Once()

	req := httptest.NewRequest(http.MethodPost, "/events/5/reject-request", bytes.NewBufferString(`{"user_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAcceptRequestParticipantMissing(t *testing.T) {
	participation := new(mocks.ParticipationRepositoryMock)
	handler := NewEventHandler(new(mocks.EventRepositoryMock), participation, nil, nil, nil)
	router := setupEventRouter(handler)

	participation.On("SetStatus", mock.Anything, 5, 1, 2, models.StatusApproved).
		Return(models.Event{}, repositories.ErrParticipantNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/events/5/accept-request", bytes.NewBufferString(`{"user_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEventNotFound(t *testing.T) {
	eventRepo := new(mocks.EventRepositoryMock)
	handler := NewEventHandler(eventRepo, nil, nil, nil, nil)
	router := setupEventRouter(handler)

	eventRepo.On("GetEvent", mock.Anything, 9).Return(models.Event{}, repositories.ErrEventNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/events/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListManagedEventsAnnotatesProfiles(t *testing.T) {
	eventRepo := new(mocks.EventRepositoryMock)
	profiles := new(mocks.ProfileDirectoryMock)
	handler := NewEventHandler(eventRepo, nil, profiles, nil, nil)
	router := setupEventRouter(handler)

	eventRepo.On("ListManagedEvents", mock.Anything, 1).Return([]models.Event{
		{ID: 5, CreatorID: 1, Participants: []models.Participation{{EventID: 5, UserID: 2, Status: models.StatusPending}}},
	}, nil).Once()
	profiles.On("BulkUsers", mock.Anything, []int{2}).
		Return([]*profilepb.GetUserResponse{{Id: 2, Username: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/events/managed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []models.Event `json:"events"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Events, 1)
	require.Len(t, resp.Events[0].Participants, 1)
	assert.Equal(t, "bob", resp.Events[0].Participants[0].Username)

	eventRepo.AssertExpectations(t)
	profiles.AssertExpectations(t)
}
