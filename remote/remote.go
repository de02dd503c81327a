// Package remote feeds notes from a shared session into a local piano over a
// websocket.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hyphengolang/prelude/types/suid"
	"go.uber.org/zap"

	"github.com/rapidmidiex/gopiano/music"
	"github.com/rapidmidiex/gopiano/notemsg"
)

type (
	// Session is a shared piano session on the server.
	Session struct {
		Id   suid.UUID `json:"id"`
		Name string    `json:"name"`
		// Number of pianos currently in the session.
		PlayerCount int `json:"playerCount"`
	}

	sessionsResp struct {
		Sessions []Session `json:"sessions"`
	}

	// Player sounds notes as they arrive. *gopiano.Piano is one.
	Player interface {
		NoteOn(n music.Note) error
		NoteOff(n music.Note)
	}

	// Client is one piano's connection to a session.
	Client struct {
		ws     *websocket.Conn
		player Player
		userID uuid.UUID
		log    *zap.Logger
	}
)

// Sessions lists the sessions open on a server.
func Sessions(apiURL string) ([]Session, error) {
	c := &http.Client{Timeout: 10 * time.Second}
	res, err := c.Get(apiURL + "/session")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("could not get sessions: %d", res.StatusCode)
	}

	var resp sessionsResp
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return resp.Sessions, nil
}

// Dial joins a session and returns a connected client.
func Dial(rawURL string, player Player, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("dial session: %w", err)
	}
	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial session: %v\n%w", u, err)
	}
	return &Client{
		ws:     ws,
		player: player,
		userID: uuid.New(),
		log:    log,
	}, nil
}

// Listen reads envelopes and sounds their notes until the connection closes
// or the context is done.
func (c *Client) Listen(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.ws.Close()
	}()

	for {
		var message notemsg.Envelope
		if err := c.ws.ReadJSON(&message); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("readJSON: %w", err)
		}

		switch message.Typ {
		case notemsg.NOTE:
			var note notemsg.NoteMsg
			if err := message.Unwrap(&note); err != nil {
				return fmt.Errorf("unmarshal NoteMsg: %+v\n%w", message, err)
			}
			c.dispatch(note)

		case notemsg.HELLO:
			var hello notemsg.HelloMsg
			if err := message.Unwrap(&hello); err != nil {
				return fmt.Errorf("unmarshal HelloMsg: %+v\n%w", message, err)
			}
			c.log.Info("player joined the session",
				zap.String("userName", hello.UserName),
				zap.String("userId", hello.UserID.String()))

		default:
			return fmt.Errorf("unknown message type: %+v", message)
		}
	}
}

func (c *Client) dispatch(msg notemsg.NoteMsg) {
	n, err := music.FromMIDI(msg.Number)
	if err != nil {
		c.log.Warn("ignoring note off the MIDI range", zap.Int("number", msg.Number))
		return
	}
	n.Velocity = msg.Velocity

	switch msg.State {
	case notemsg.NOTE_ON:
		if err := c.player.NoteOn(n); err != nil {
			c.log.Warn("note refused", zap.String("note", n.String()), zap.Error(err))
		}
	case notemsg.NOTE_OFF:
		c.player.NoteOff(n)
	}
}

// Send publishes a local note to the session.
func (c *Client) Send(state notemsg.NoteState, n music.Note) error {
	key, err := n.MIDI()
	if err != nil {
		return err
	}
	velocity := n.Velocity
	if velocity == 0 {
		velocity = music.DefaultVelocity
	}

	envelope := notemsg.Envelope{
		ID:     uuid.New(),
		Typ:    notemsg.NOTE,
		UserID: c.userID,
	}
	if err := envelope.SetPayload(notemsg.NoteMsg{
		State:    state,
		Number:   key,
		Velocity: velocity,
	}); err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := c.ws.WriteJSON(envelope); err != nil {
		return fmt.Errorf("writeJSON: %w", err)
	}
	return nil
}

// Close tells the session the piano is leaving and drops the connection.
func (c *Client) Close() error {
	err := c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second*10),
	)
	if closeErr := c.ws.Close(); err == nil {
		err = closeErr
	}
	return err
}
