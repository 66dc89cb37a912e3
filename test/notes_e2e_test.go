//go:build e2e

package test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotesE2E(t *testing.T) {
	env := SetupTestEnvironment(t)
	authToken := setupTestUser(t, env, "noteuser", "noteuser@example.com", "Password123")
	headers := map[string]string{"Authorization": "Bearer " + authToken}

	var noteAID string

	t.Run("create_note_A", func(t *testing.T) {
		noteAID = createAndVerifyNote(t, env, headers, "A", "Note A content", "#FF0000")
	})

	t.Run("list_notes_expect_one", func(t *testing.T) {
		verifyNotesList(t, env, headers, 1, noteAID, "A")
	})

	t.Run("update_reconciles_tags_and_color", func(t *testing.T) {
		payload := map[string]any{
			"title":     "A",
			"content":   "Note A content",
			"color":     "#00ff00",
			"is_pinned": true,
			"tags":      []map[string]any{{"name": "todo"}, {"name": "work"}},
		}
		resp := makeHTTPRequest(t, "PUT", env.BaseURL+notesEndpoint+"/"+noteAID, payload, headers, http.StatusOK)

		note := resp["note"].(map[string]any)
		// Colors are normalized to uppercase on the way in.
		assert.Equal(t, "#00FF00", note["color"])
		assert.Equal(t, true, note["is_pinned"])

		tags := note["tags"].([]any)
		require.Len(t, tags, 2)
		names := make([]string, 0, 2)
		for _, raw := range tags {
			names = append(names, raw.(map[string]any)["name"].(string))
		}
		assert.ElementsMatch(t, []string{"todo", "work"}, names)
	})

	t.Run("update_drops_removed_tag", func(t *testing.T) {
		payload := map[string]any{
			"title":   "A",
			"content": "Note A content",
			"color":   "#00FF00",
			"tags":    []map[string]any{{"name": "todo"}},
		}
		resp := makeHTTPRequest(t, "PUT", env.BaseURL+notesEndpoint+"/"+noteAID, payload, headers, http.StatusOK)

		note := resp["note"].(map[string]any)
		tags := note["tags"].([]any)
		require.Len(t, tags, 1)
		assert.Equal(t, "todo", tags[0].(map[string]any)["name"])
	})

	t.Run("title_markup_is_stripped", func(t *testing.T) {
		payload := map[string]any{"title": "<b>Bold</b> plan", "content": "x"}
		resp := makeHTTPRequest(t, "POST", env.BaseURL+notesEndpoint, payload, headers, http.StatusCreated)

		note := resp["note"].(map[string]any)
		assert.NotContains(t, note["title"], "<b>")

		noteID := note["id"].(string)
		makeHTTPRequest(t, "DELETE", env.BaseURL+notesEndpoint+"/"+noteID, nil, headers, http.StatusNoContent)
	})

	t.Run("websocket_and_crud_operations", func(t *testing.T) {
		testWebSocketCRUDOperations(t, env, authToken, headers, noteAID)
	})

	t.Run("note_not_found_cross_user", func(t *testing.T) {
		testCrossUserAuthorization(t, env, noteAID)
	})
}

// createAndVerifyNote creates a note and returns its ID
func createAndVerifyNote(t *testing.T, env *TestEnvironment, headers map[string]string, title, content, color string) string {
	payload := map[string]any{"title": title, "content": content, "color": color}
	noteResp := makeHTTPRequest(t, "POST", env.BaseURL+notesEndpoint, payload, headers, http.StatusCreated)

	note := noteResp["note"].(map[string]any)
	assert.Equal(t, title, note["title"])
	assert.Equal(t, content, note["content"])
	assert.Equal(t, color, note["color"])
	assert.Contains(t, note, "id")
	assert.Contains(t, note, "tags")
	assert.Contains(t, note, "attachments")

	noteID := note["id"].(string)
	require.NotEmpty(t, noteID)
	return noteID
}

// verifyNotesList verifies the notes list response
func verifyNotesList(t *testing.T, env *TestEnvironment, headers map[string]string, expectedCount int, expectedID, expectedTitle string) {
	listResp := makeHTTPRequest(t, "GET", env.BaseURL+notesEndpoint, nil, headers, http.StatusOK)

	notes := listResp["notes"].([]any)
	assert.Len(t, notes, expectedCount)

	note := notes[0].(map[string]any)
	assert.Equal(t, expectedTitle, note["title"])
	assert.Equal(t, expectedID, note["id"])
}

// testWebSocketCRUDOperations tests WebSocket functionality with CRUD operations
func testWebSocketCRUDOperations(t *testing.T, env *TestEnvironment, authToken string, headers map[string]string, noteAID string) {
	ws := setupWebSocket(t, env, authToken)
	defer ws.Close()

	messages := make(chan map[string]any, 10)
	startWebSocketListener(ws, messages)
	time.Sleep(100 * time.Millisecond) // Allow connection to establish

	// Create note B and verify WebSocket event
	payload := map[string]any{"title": "B", "content": "Note B content", "color": "#0000FF"}
	noteResp := makeHTTPRequest(t, "POST", env.BaseURL+notesEndpoint, payload, headers, http.StatusCreated)
	noteBID := noteResp["note"].(map[string]any)["id"].(string)

	msg := waitForEvent(t, messages, "created")
	assert.Equal(t, noteBID, msg["note"].(map[string]any)["id"])

	// Update note A and verify WebSocket event
	updatePayload := map[string]any{"title": "A Updated", "content": "Updated content", "color": "#00FF00"}
	makeHTTPRequest(t, "PUT", env.BaseURL+notesEndpoint+"/"+noteAID, updatePayload, headers, http.StatusOK)

	msg = waitForEvent(t, messages, "updated")
	assert.Equal(t, "A Updated", msg["note"].(map[string]any)["title"])

	// Delete note B and verify the slimmed-down deleted event
	makeHTTPRequest(t, "DELETE", env.BaseURL+notesEndpoint+"/"+noteBID, nil, headers, http.StatusNoContent)

	msg = waitForEvent(t, messages, "deleted")
	deleted := msg["note"].(map[string]any)
	assert.Equal(t, noteBID, deleted["id"])
	assert.NotContains(t, deleted, "title")
}

// setupWebSocket creates and returns a WebSocket connection
func setupWebSocket(t *testing.T, env *TestEnvironment, authToken string) *websocket.Conn {
	wsURL := "ws://localhost" + env.BaseURL[len("http://localhost"):] + "/ws/notes/stream?token=" + authToken
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return c
}

// startWebSocketListener starts a goroutine to read WebSocket messages
func startWebSocketListener(c *websocket.Conn, messages chan map[string]any) {
	go func() {
		for {
			var msg map[string]any
			if c.ReadJSON(&msg) != nil {
				return
			}
			messages <- msg
		}
	}()
}

// waitForEvent blocks until an event of the wanted type arrives
func waitForEvent(t *testing.T, messages chan map[string]any, eventType string) map[string]any {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-messages:
			if msg["type"] == eventType {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", eventType)
			return nil
		}
	}
}

// testCrossUserAuthorization verifies another user cannot see or touch the note
func testCrossUserAuthorization(t *testing.T, env *TestEnvironment, noteAID string) {
	otherToken := setupTestUser(t, env, "intruder", "intruder@example.com", "Password123")
	otherHeaders := map[string]string{"Authorization": "Bearer " + otherToken}

	url := fmt.Sprintf("%s%s/%s", env.BaseURL, notesEndpoint, noteAID)
	makeHTTPRequest(t, "GET", url, nil, otherHeaders, http.StatusNotFound)
	makeHTTPRequest(t, "DELETE", url, nil, otherHeaders, http.StatusNotFound)
}
