package main

import (
	"encoding/json"
	"testing"

	"github.com/dom/study-buddy/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_EndToEnd(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := NewAPIClient(ts.Server.URL)

	status, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, "memory", status.Backend)
	assert.True(t, status.AuthRequired)

	id, err := client.Register("cliuser", "cli@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = client.Register("cliuser", "cli@example.com", "secret1")
	assert.EqualError(t, err, "register: status 400: Username or email already exists")

	user, err := client.Login("cliuser", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, user.SessionToken)
	assert.Equal(t, id, user.UserID)

	result, err := client.Generate(user.SessionToken, "One fact. Two facts. Three facts.", "Trivia", 3)
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Source)
	assert.Len(t, result.CardIDs, 3)

	sessionID, err := client.SaveSession(user.SessionToken, "Week 1", result.CardIDs)
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)

	list, err := client.Flashcards(user.SessionToken)
	require.NoError(t, err)
	require.Len(t, list.Flashcards, 3)
	assert.Equal(t, "Trivia", list.Flashcards[0].Subject)

	data, err := client.Export(user.SessionToken, "json")
	require.NoError(t, err)
	var exported FlashcardList
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Len(t, exported.Flashcards, 3)

	_, err = client.Export(user.SessionToken, "xml")
	assert.EqualError(t, err, "export: status 400: Unsupported format")

	_, err = client.Flashcards("")
	assert.EqualError(t, err, "list flashcards: status 401: Authentication required")
}
