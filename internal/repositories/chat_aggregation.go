package repositories

import (
	"sort"

	"gathering-service/internal/models"
)

// chatScanRow is one message from the viewer's log together with whether
// the viewer has read it.
type chatScanRow struct {
	models.Message
	ReadByViewer bool `db:"read_by_viewer"`
}

// buildChatPreviews folds the viewer's message log into one preview per
// conversation. Rows must arrive in ascending creation order so the last
// row seen for a key is the conversation's latest message.
//
// The conversation key is the counterpart user for one-to-one chats and
// the event for group chats. Unread counts exclude the viewer's own
// messages. Previews come back sorted by last-message time, newest first.
func buildChatPreviews(rows []chatScanRow, viewerID int) []models.ChatPreview {
	type key struct {
		chatType models.ChatType
		id       int
	}

	order := make([]key, 0)
	previews := map[key]*models.ChatPreview{}

	for _, row := range rows {
		var k key
		switch row.ChatType {
		case models.ChatOneToOne:
			counterpart := row.SenderID
			if counterpart == viewerID {
				counterpart = row.RecipientID
			}
			// A self-addressed message has no counterpart.
			if counterpart == viewerID {
				continue
			}
			k = key{chatType: models.ChatOneToOne, id: counterpart}
		case models.ChatGroup:
			k = key{chatType: models.ChatGroup, id: row.EventID}
		default:
			continue
		}

		p, ok := previews[k]
		if !ok {
			p = &models.ChatPreview{ChatID: k.id, Type: k.chatType}
			previews[k] = p
			order = append(order, k)
		}
		p.LastMessage = row.Message
		if row.SenderID != viewerID && !row.ReadByViewer {
			p.UnreadCount++
		}
	}

	result := make([]models.ChatPreview, 0, len(previews))
	for _, k := range order {
		result = append(result, *previews[k])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastMessage.CreatedAt.After(result[j].LastMessage.CreatedAt)
	})
	return result
}
