package server

import (
	"net/http"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/hannes/medvoice-private/pii"
)

// Message types on the transcript socket
const (
	msgTranscript = "transcript"
	msgRedacted   = "redacted"
	msgPing       = "ping"
	msgPong       = "pong"
	msgError      = "error"
)

// transcriptInbound is a client message on /ws/transcript
type transcriptInbound struct {
	Type  string `json:"type"` // "transcript", "ping"
	Text  string `json:"text,omitempty"`
	Final bool   `json:"final,omitempty"`
}

// transcriptOutbound is a server message on /ws/transcript
type transcriptOutbound struct {
	Type     string       `json:"type"` // "redacted", "pong", "error"
	Text     string       `json:"text,omitempty"`
	Final    bool         `json:"final,omitempty"`
	Entities []pii.Entity `json:"entities,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// handleTranscriptSocket redacts live speech-recognition results as they arrive.
// Interim and final results are both redacted; only final ones are audited.
func (s *Server) handleTranscriptSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		s.serveTranscript(conn, r)
	}).ServeHTTP(w, r)
}

func (s *Server) serveTranscript(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	s.logger.Debug("transcript: connection opened")

	for {
		var msg transcriptInbound
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			s.logger.Debug("transcript: connection closed", "error", err)
			return
		}

		var reply transcriptOutbound
		switch msg.Type {
		case msgPing:
			reply = transcriptOutbound{Type: msgPong}
		case msgTranscript:
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			if s.textTooLong(msg.Text) {
				reply = transcriptOutbound{Type: msgError, Error: s.textTooLongMessage()}
				break
			}
			// Only final results reach the audit log.
			var result pii.MaskedResult
			if msg.Final {
				result = s.masker.MaskText(ctx, msg.Text, pii.DirectionTranscript)
			} else {
				result = s.masker.MaskInterim(ctx, msg.Text)
			}
			reply = transcriptOutbound{
				Type:     msgRedacted,
				Text:     result.MaskedText,
				Final:    msg.Final,
				Entities: result.Entities,
			}
		default:
			reply = transcriptOutbound{Type: msgError, Error: "unknown message type"}
		}

		if err := websocket.JSON.Send(conn, reply); err != nil {
			s.logger.Debug("transcript: send failed", "error", err)
			return
		}
	}
}
