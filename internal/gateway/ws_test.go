package gateway

import (
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenproj/haven/internal/llm"
)

func dialWS(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	if f.token != "" {
		url += "?token=" + f.token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketChat(t *testing.T) {
	f := newFixture(t, llm.NewScripted(
		llm.Decision{Text: "Thanks for telling me. How long has this been going on?"},
	), "")
	conn := dialWS(t, f)

	require.NoError(t, conn.WriteJSON(wsFrame{
		Type:     "chat",
		UserID:   f.user.ID,
		ThreadID: "th-ws",
		Message:  "I haven't been sleeping",
	}))

	var reply wsReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "turn", reply.Type)
	require.NotNil(t, reply.Result)
	assert.Equal(t, "th-ws", reply.Result.ThreadID)
	assert.Contains(t, reply.Result.Response, "How long")
}

func TestWebSocketInvalidFrames(t *testing.T) {
	f := newFixture(t, llm.NewScripted(), "")
	conn := dialWS(t, f)

	require.NoError(t, conn.WriteJSON(wsFrame{Type: "bogus"}))
	var reply wsReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
	require.NotNil(t, reply.Error)
	assert.Equal(t, "unknown_type", reply.Error.Code)

	require.NoError(t, conn.WriteJSON(wsFrame{Type: "chat", Message: "hi"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, "invalid_params", reply.Error.Code)
}

func TestWebSocketAuthToken(t *testing.T) {
	f := newFixture(t, llm.NewScripted(), "ws-secret")

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)

	conn := dialWS(t, f)
	require.NoError(t, conn.WriteJSON(wsFrame{Type: "bogus"}))
	var reply wsReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
}
