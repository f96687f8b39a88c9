package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"floodguard/internal/chat"
	"floodguard/internal/logging"
	"floodguard/internal/perception"
)

// maxFrameBytes bounds one inbound chat frame.
const maxFrameBytes = 64 << 10

// inboundFrame is one client turn. Keys are supplied by the caller on every
// turn and never stored.
type inboundFrame struct {
	Message      string `json:"message"`
	SessionID    string `json:"session_id"`
	AnthropicKey string `json:"anthropic_key"`
	OpenAIKey    string `json:"openai_key"`
	GeminiKey    string `json:"gemini_key"`
}

func (f inboundFrame) turn(defaultSession string) chat.Turn {
	sid := f.SessionID
	if sid == "" {
		sid = defaultSession
	}
	return chat.Turn{
		Message:   f.Message,
		SessionID: sid,
		Credentials: perception.Credentials{
			AnthropicKey: f.AnthropicKey,
			OpenAIKey:    f.OpenAIKey,
			GeminiKey:    f.GeminiKey,
		},
	}
}

// handleChat upgrades to a websocket and processes turns one at a time until
// the client goes away.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.TransportWarn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	connSession := uuid.NewString()
	logging.Transport("chat connected: remote=%s session=%s", r.RemoteAddr, connSession)

	emit := func(ev chat.Event) error {
		if s.cfg.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}
		return conn.WriteJSON(ev)
	}

	// Hijacked connections outlive Shutdown; close them when the server stops.
	ctx := r.Context()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				logging.TransportDebug("chat disconnected: session=%s", connSession)
			} else if !errors.Is(err, net.ErrClosed) {
				logging.TransportWarn("chat read failed: %v", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			if err := emit(chat.Event{Type: chat.EventError, Content: "Invalid message format"}); err != nil {
				return
			}
			continue
		}

		if err := s.deps.Chat.HandleTurn(ctx, frame.turn(connSession), emit); err != nil {
			logging.TransportWarn("chat write failed: %v", err)
			return
		}
	}
}
