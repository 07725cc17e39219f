package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/actonlabs/acton/internal/orchestrator"
)

// WSRequest is the JSON structure clients send over the action socket.
type WSRequest struct {
	Type      string          `json:"type"` // "invoke", "ping"
	RequestID string          `json:"request_id,omitempty"`
	Action    string          `json:"action,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// WSResponse is the JSON structure sent back to clients.
type WSResponse struct {
	Type      string               `json:"type"` // "result", "error", "pong"
	RequestID string               `json:"request_id,omitempty"`
	Result    *orchestrator.Result `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// handleWS upgrades the connection and drives the action socket protocol.
//
// Flow:
//  1. Accept the WebSocket upgrade (auth already ran in middleware).
//  2. Read loop: wsjson.Read, dispatch by type.
//     - "ping"   pong immediately.
//     - "invoke" dispatch the command synchronously, send the result frame.
//     - unknown  send an error frame.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // accept any Origin for dev convenience
	})
	if err != nil {
		s.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "session ended")

	s.logger.Info("action socket connected", "remote", r.RemoteAddr)

	for {
		var req WSRequest
		if err := wsjson.Read(r.Context(), conn, &req); err != nil {
			// Client disconnected or context cancelled, normal exit.
			s.logger.Debug("ws read ended", "error", err)
			return
		}

		switch req.Type {
		case "ping":
			s.wsSend(r.Context(), conn, WSResponse{
				Type:      "pong",
				RequestID: req.RequestID,
			})

		case "invoke":
			s.handleWSInvoke(r.Context(), conn, &req)

		default:
			s.wsSend(r.Context(), conn, WSResponse{
				Type:      "error",
				RequestID: req.RequestID,
				Error:     "unknown message type: " + req.Type,
			})
		}
	}
}

// handleWSInvoke dispatches one command and streams the result back.
func (s *Server) handleWSInvoke(ctx context.Context, conn *websocket.Conn, req *WSRequest) {
	if req.Action == "" {
		s.wsSend(ctx, conn, WSResponse{
			Type:      "error",
			RequestID: req.RequestID,
			Error:     "action required",
		})
		return
	}

	cmd := orchestrator.Command{
		ID:      req.RequestID,
		Action:  req.Action,
		Payload: req.Payload,
		Source:  "ws",
	}
	results := s.orch.Dispatch(ctx, []orchestrator.Command{cmd})

	s.wsSend(ctx, conn, WSResponse{
		Type:      "result",
		RequestID: req.RequestID,
		Result:    &results[0],
	})
}

// wsSend writes one response frame, logging failures.
func (s *Server) wsSend(ctx context.Context, conn *websocket.Conn, resp WSResponse) {
	if err := wsjson.Write(ctx, conn, resp); err != nil {
		s.logger.Debug("ws write failed", "error", err)
	}
}
