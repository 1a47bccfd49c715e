package websocket_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/dom/study-buddy/internal/testutil"
	"github.com/dom/study-buddy/internal/websocket"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wsTimeout = 2 * time.Second

func connect(t *testing.T, ts *testutil.TestServer, username string) (*testutil.WSClient, uuid.UUID, string) {
	t.Helper()

	user, token := testutil.NewUserBuilder().WithUsername(username).BuildAndAuthenticate(t, ts)
	client := testutil.NewWSClient(t, ts.WebSocketURL(token))

	greeting := client.ExpectConnected(wsTimeout)
	require.Equal(t, user.ID.String(), greeting.UserID)
	require.Equal(t, username, greeting.Username)

	require.Eventually(t, func() bool {
		return ts.Hub.ClientCount(user.ID) == 1
	}, wsTimeout, 10*time.Millisecond)

	return client, user.ID, token
}

func TestWebSocket_RejectsMissingOrBadToken(t *testing.T) {
	ts := testutil.NewTestServer(t)
	url := "ws" + ts.Server.URL[len("http"):] + "/ws"

	_, resp, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = gorillaWS.DefaultDialer.Dial(ts.WebSocketURL("bogus"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocket_PingPong(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client, _, _ := connect(t, ts, "pinger")

	client.Ping()
	client.ExpectMessage(websocket.MessageTypePong, wsTimeout)
}

func TestWebSocket_InvalidMessages(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client, _, _ := connect(t, ts, "noisy")

	client.SendRaw([]byte("not json"))
	errPayload := client.ExpectError(wsTimeout)
	assert.Equal(t, "INVALID_MESSAGE", errPayload.Code)

	client.SendRaw([]byte(`{"type":"subscribe"}`))
	errPayload = client.ExpectError(wsTimeout)
	assert.Equal(t, "UNKNOWN_TYPE", errPayload.Code)

	// the connection survives bad input
	client.Ping()
	client.ExpectMessage(websocket.MessageTypePong, wsTimeout)
}

func TestWebSocket_FlashcardsCreatedReachesOwnerOnly(t *testing.T) {
	ts := testutil.NewTestServer(t)
	alice, _, aliceToken := connect(t, ts, "alice")
	bob, _, _ := connect(t, ts, "bob")

	resp := testutil.PostJSON(t, ts.URL("/generate"), map[string]interface{}{
		"notes":     "Mitochondria make ATP. Ribosomes build proteins. The nucleus stores DNA.",
		"subject":   "Biology",
		"num_cards": 3,
	}, aliceToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	event := alice.ExpectFlashcardsCreated(wsTimeout)
	assert.Equal(t, 3, event.Count)
	assert.Len(t, event.FlashcardIDs, 3)
	assert.Equal(t, "Biology", event.Subject)

	bob.ExpectNoMessage(200 * time.Millisecond)
}

func TestWebSocket_MultipleConnectionsPerUser(t *testing.T) {
	ts := testutil.NewTestServer(t)
	first, userID, token := connect(t, ts, "twotabs")

	second := testutil.NewWSClient(t, ts.WebSocketURL(token))
	second.ExpectConnected(wsTimeout)
	require.Eventually(t, func() bool {
		return ts.Hub.ClientCount(userID) == 2
	}, wsTimeout, 10*time.Millisecond)

	ts.Hub.PublishFlashcardsCreated(userID, []string{"x"}, "General")
	assert.Equal(t, 1, first.ExpectFlashcardsCreated(wsTimeout).Count)
	assert.Equal(t, 1, second.ExpectFlashcardsCreated(wsTimeout).Count)

	first.Close()
	require.Eventually(t, func() bool {
		return ts.Hub.ClientCount(userID) == 1
	}, wsTimeout, 10*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client, userID, _ := connect(t, ts, "stopper")

	ts.Hub.Stop()

	client.ExpectClosed(wsTimeout)
	assert.Equal(t, 0, ts.Hub.ClientCount(userID))

	// publishing after shutdown must not block
	done := make(chan struct{})
	go func() {
		ts.Hub.PublishFlashcardsCreated(userID, []string{"a"}, "General")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(wsTimeout):
		t.Fatal("publish blocked after hub stopped")
	}

	// stopping twice is harmless
	ts.Hub.Stop()
}

func TestHub_PublishWithoutListeners(t *testing.T) {
	hub := websocket.NewHub(nil, sl.Discard())
	go hub.Run()
	defer hub.Stop()

	for i := 0; i < 1000; i++ {
		hub.PublishFlashcardsCreated(uuid.New(), []string{"a", "b"}, "General")
	}
	assert.Equal(t, 0, hub.ClientCount(uuid.New()))
}
