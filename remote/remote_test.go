package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rapidmidiex/gopiano/music"
	"github.com/rapidmidiex/gopiano/notemsg"
	"github.com/rapidmidiex/gopiano/remote"
)

type fakePlayer struct {
	mu   sync.Mutex
	ons  []string
	offs []string
}

func (p *fakePlayer) NoteOn(n music.Note) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ons = append(p.ons, n.String())
	return nil
}

func (p *fakePlayer) NoteOff(n music.Note) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offs = append(p.offs, n.String())
}

// sessionServer upgrades one connection, sends the given envelopes, then
// closes normally.
func sessionServer(t *testing.T, envelopes []notemsg.Envelope) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		for _, env := range envelopes {
			require.NoError(t, ws.WriteJSON(env))
		}
		require.NoError(t, ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		))
		// Give the client a moment to read the close frame.
		ws.ReadMessage()
	}))
}

func noteEnvelope(t *testing.T, state notemsg.NoteState, number int) notemsg.Envelope {
	t.Helper()
	env := notemsg.Envelope{ID: uuid.New(), Typ: notemsg.NOTE}
	require.NoError(t, env.SetPayload(notemsg.NoteMsg{State: state, Number: number, Velocity: 100}))
	return env
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestListen(t *testing.T) {
	hello := notemsg.Envelope{ID: uuid.New(), Typ: notemsg.HELLO}
	require.NoError(t, hello.SetPayload(notemsg.HelloMsg{UserID: uuid.New(), UserName: "8bitpusher"}))

	srv := sessionServer(t, []notemsg.Envelope{
		hello,
		noteEnvelope(t, notemsg.NOTE_ON, 60),
		noteEnvelope(t, notemsg.NOTE_OFF, 60),
		noteEnvelope(t, notemsg.NOTE_ON, 69),
	})
	defer srv.Close()

	player := &fakePlayer{}
	client, err := remote.Dial(wsURL(srv), player, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Listen(context.Background()))
	require.Equal(t, []string{"C-4", "A-4"}, player.ons)
	require.Equal(t, []string{"C-4"}, player.offs)
}

func TestListenContextCancel(t *testing.T) {
	// A server that never sends anything.
	upgrader := websocket.Upgrader{}
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client, err := remote.Dial(wsURL(srv), &fakePlayer{}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	require.ErrorIs(t, client.Listen(ctx), context.Canceled)
}

func TestSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/session", r.URL.Path)
		w.Write([]byte(`{"sessions": [
			{"name": "late night keys", "playerCount": 2}
		]}`))
	}))
	defer srv.Close()

	sessions, err := remote.Sessions(srv.URL + "/api/v1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "late night keys", sessions[0].Name)
	require.Equal(t, 2, sessions[0].PlayerCount)
}

func TestSessionsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := remote.Sessions(srv.URL + "/api/v1")
	require.Error(t, err)
}

func TestSend(t *testing.T) {
	upgrader := websocket.Upgrader{}
	got := make(chan notemsg.Envelope, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		var env notemsg.Envelope
		require.NoError(t, ws.ReadJSON(&env))
		got <- env
	}))
	defer srv.Close()

	client, err := remote.Dial(wsURL(srv), &fakePlayer{}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Send(notemsg.NOTE_ON, music.MustNote("E-3")))

	env := <-got
	require.Equal(t, notemsg.NOTE, env.Typ)

	var note notemsg.NoteMsg
	require.NoError(t, env.Unwrap(&note))
	require.Equal(t, notemsg.NOTE_ON, note.State)
	require.Equal(t, 52, note.Number)
	require.Equal(t, music.DefaultVelocity, note.Velocity)
}
