package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"commons.ai/internal/protocol"
	"commons.ai/internal/sim/world"
	"commons.ai/internal/sim/world/feature/actions"
)

// Server attaches one websocket session to one agent. The client sends HELLO,
// receives WELCOME, then sends ACT frames and receives OBS after every tick.
type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		agentID, out := s.handshake(conn)
		if agentID == "" {
			return
		}
		s.logf("session %s attached to %s", r.RemoteAddr, agentID)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Errors are written by the writer goroutine so the connection has a single writer.
		errOut := make(chan []byte, 4)

		// Writer goroutine.
		go func() {
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case b = <-errOut:
				case next, ok := <-out:
					if !ok {
						return
					}
					b = next
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					_ = conn.Close()
					return
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			env, code, detail := s.decodeAct(agentID, msg)
			if code != "" {
				if b, err := json.Marshal(protocol.NewError(code, detail)); err == nil {
					select {
					case errOut <- b:
					default:
					}
				}
				continue
			}
			select {
			case s.world.Inbox() <- env:
			default:
				s.logf("inbox full, dropping action from %s", agentID)
			}
		}

		// Cleanup.
		s.world.Leave() <- agentID
		s.logf("session for %s closed", agentID)
	}
}

// decodeAct validates one client frame. A non-empty code means the frame was rejected.
func (s *Server) decodeAct(agentID string, msg []byte) (env world.ActionEnvelope, code, detail string) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return env, protocol.ErrProtoBadRequest, "malformed json"
	}
	if base.Type != protocol.TypeAct {
		return env, protocol.ErrProtoBadRequest, fmt.Sprintf("unexpected message type %q", base.Type)
	}
	if err := protocol.ValidateAct(msg); err != nil {
		return env, protocol.ErrProtoBadRequest, err.Error()
	}
	var act protocol.ActMsg
	if err := json.Unmarshal(msg, &act); err != nil {
		return env, protocol.ErrProtoBadRequest, err.Error()
	}
	if act.ProtocolVersion != protocol.Version {
		return env, protocol.ErrProtoBadRequest, "bad protocol_version"
	}
	if _, err := actions.Parse(act.Action); err != nil {
		return env, protocol.ErrInvalidAction, err.Error()
	}
	if act.Tick != 0 && act.Tick+1 < s.world.CurrentTick() {
		return env, protocol.ErrStale, fmt.Sprintf("act for tick %d, world at %d", act.Tick, s.world.CurrentTick())
	}
	return world.ActionEnvelope{AgentID: agentID, Action: act.Action}, "", ""
}

func (s *Server) handshake(conn *websocket.Conn) (agentID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}
	if err := protocol.ValidateHello(msg); err != nil {
		_ = writeJSON(conn, protocol.NewError(protocol.ErrProtoBadRequest, err.Error()))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)

	respCh := make(chan world.JoinResponse, 1)
	select {
	case s.world.Join() <- world.JoinRequest{AgentID: hello.AgentID, Out: out, Resp: respCh}:
	case <-time.After(2 * time.Second):
		_ = writeJSON(conn, protocol.NewError(protocol.ErrInternal, "world not accepting joins"))
		return "", nil
	}
	var resp world.JoinResponse
	select {
	case resp = <-respCh:
	case <-time.After(5 * time.Second):
		_ = writeJSON(conn, protocol.NewError(protocol.ErrInternal, "join timed out"))
		return "", nil
	}
	if resp.Err != "" {
		_ = writeJSON(conn, protocol.NewError(resp.Err, "join refused"))
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.world.Leave() <- resp.Welcome.AgentID
		return "", nil
	}
	return resp.Welcome.AgentID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
