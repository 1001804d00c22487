package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gathering-service/internal/models"
)

func TestParseClientEventJoin(t *testing.T) {
	event, err := ParseClientEvent([]byte(`{"type":"join","payload":{"userId":7}}`))
	require.NoError(t, err)

	cmd, ok := event.(JoinCommand)
	require.True(t, ok)
	assert.Equal(t, 7, cmd.UserID)
}

func TestParseClientEventJoinEvent(t *testing.T) {
	event, err := ParseClientEvent([]byte(`{"type":"joinEvent","payload":{"eventId":42}}`))
	require.NoError(t, err)

	cmd, ok := event.(JoinEventCommand)
	require.True(t, ok)
	assert.Equal(t, 42, cmd.EventID)
}

func TestParseClientEventSendMessage(t *testing.T) {
	raw := `{"type":"sendMessage","payload":{"sender":1,"content":"hi","chatType":"one_to_one","recipient":2}}`
	event, err := ParseClientEvent([]byte(raw))
	require.NoError(t, err)

	cmd, ok := event.(SendMessageCommand)
	require.True(t, ok)
	assert.Equal(t, 1, cmd.Sender)
	assert.Equal(t, "hi", cmd.Content)
	assert.Equal(t, models.ChatOneToOne, cmd.ChatType)
	assert.Equal(t, 2, cmd.Recipient)
	assert.Zero(t, cmd.EventID)
}

func TestParseClientEventMarkAsRead(t *testing.T) {
	event, err := ParseClientEvent([]byte(`{"type":"markAsRead","payload":{"messageIds":[1,2,3],"userId":9}}`))
	require.NoError(t, err)

	cmd, ok := event.(MarkAsReadCommand)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, cmd.MessageIDs)
	assert.Equal(t, 9, cmd.UserID)
}

func TestParseClientEventUnknownType(t *testing.T) {
	_, err := ParseClientEvent([]byte(`{"type":"shout","payload":{}}`))
	assert.Error(t, err)
}

func TestParseClientEventMalformed(t *testing.T) {
	_, err := ParseClientEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseClientEvent([]byte(`{"type":"join","payload":"nope"}`))
	assert.Error(t, err)
}

func TestServerEventFraming(t *testing.T) {
	msg := models.Message{ID: 5, SenderID: 1, RecipientID: 2, ChatType: models.ChatOneToOne, Content: "hi"}

	var env Envelope
	require.NoError(t, json.Unmarshal(NewMessageEvent(msg), &env))
	assert.Equal(t, KindNewMessage, env.Type)

	var decoded models.Message
	require.NoError(t, json.Unmarshal(env.Payload, &decoded))
	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, msg.Content, decoded.Content)

	require.NoError(t, json.Unmarshal(MessageSentEvent(msg), &env))
	assert.Equal(t, KindMessageSent, env.Type)

	require.NoError(t, json.Unmarshal(MessagesReadEvent([]int{1, 2}), &env))
	assert.Equal(t, KindMessagesRead, env.Type)

	require.NoError(t, json.Unmarshal(ParticipationEvent(7, models.StatusApproved), &env))
	assert.Equal(t, KindParticipation, env.Type)

	require.NoError(t, json.Unmarshal(ErrorEvent("boom"), &env))
	assert.Equal(t, KindError, env.Type)
}
