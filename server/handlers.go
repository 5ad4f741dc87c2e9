package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/hannes/medvoice-private/pii"
	"github.com/hannes/medvoice-private/providers"
	"github.com/hannes/medvoice-private/session"
	"github.com/hannes/medvoice-private/speech"
	"github.com/hannes/medvoice-private/translation"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 64 * 1024

type redactRequest struct {
	Text string `json:"text"`
}

type redactResponse struct {
	Text     string       `json:"text"`
	Entities []pii.Entity `json:"entities"`
}

type translateResponse struct {
	Translation string `json:"translation"`
}

type createSessionRequest struct {
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// healthCheck provides a simple health check endpoint
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": serviceName})
}

func (s *Server) textTooLong(text string) bool {
	return utf8.RuneCountInString(text) > s.translator.MaxTextLength()
}

func (s *Server) textTooLongMessage() string {
	return fmt.Sprintf("Text too long. Maximum %d characters allowed.", s.translator.MaxTextLength())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	var req redactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if s.textTooLong(req.Text) {
		writeError(w, http.StatusBadRequest, s.textTooLongMessage())
		return
	}

	result := s.masker.MaskText(r.Context(), req.Text, pii.DirectionManual)
	writeJSON(w, http.StatusOK, redactResponse{Text: result.MaskedText, Entities: result.Entities})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translation.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.translator.Translate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, translation.ErrMissingParameters):
			writeError(w, http.StatusBadRequest, "Missing required parameters")
		case errors.Is(err, translation.ErrTextTooLong):
			writeError(w, http.StatusBadRequest, s.textTooLongMessage())
		case errors.Is(err, session.ErrNotFound):
			writeError(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, translation.ErrNotConfigured):
			writeError(w, http.StatusInternalServerError, "Translation service not configured")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to translate text")
		}
		return
	}

	writeJSON(w, http.StatusOK, translateResponse{Translation: result.Translation})
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	lang := r.URL.Query().Get("lang")

	if text != "" && s.textTooLong(text) {
		writeError(w, http.StatusBadRequest, s.textTooLongMessage())
		return
	}

	audio, err := s.speech.Speak(r.Context(), text, lang)
	if err != nil {
		switch {
		case errors.Is(err, speech.ErrMissingText):
			writeError(w, http.StatusBadRequest, `Missing "text" query param`)
		case errors.Is(err, speech.ErrNotConfigured):
			writeError(w, http.StatusInternalServerError, "TTS service not configured")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to generate speech")
		}
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `inline; filename="speech.mp3"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		s.logger.Warn("failed to write audio response", "error", err)
	}
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"languages": providers.Languages})
}

func (s *Server) requireSessions(w http.ResponseWriter) bool {
	if s.sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "Sessions not available")
		return false
	}
	return true
}

func validLanguages(codes ...string) bool {
	for _, code := range codes {
		if code != "" && !providers.IsSupportedLanguage(code) {
			return false
		}
	}
	return true
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error, action string) {
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	s.logger.Error("session operation failed", "action", action, "error", err)
	writeError(w, http.StatusInternalServerError, "Session storage failed")
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if !s.requireSessions(w) {
		return
	}

	var req createSessionRequest
	// An empty body creates a session with the default languages.
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validLanguages(req.SourceLanguage, req.TargetLanguage) {
		writeError(w, http.StatusBadRequest, "Unsupported language")
		return
	}

	sess, err := s.sessions.Create(r.Context(), req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		s.writeSessionError(w, err, "create")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if !s.requireSessions(w) {
		return
	}
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeSessionError(w, err, "get")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.requireSessions(w) {
		return
	}
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeSessionError(w, err, "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if !s.requireSessions(w) {
		return
	}

	var update session.LanguageUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validLanguages(update.SourceLanguage, update.TargetLanguage) {
		writeError(w, http.StatusBadRequest, "Unsupported language")
		return
	}

	sess, err := s.sessions.UpdateLanguages(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		s.writeSessionError(w, err, "update")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleGetLogs returns the redaction audit trail, newest first
func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	loggingDB := s.masker.LoggingDB()
	if loggingDB == nil {
		writeError(w, http.StatusServiceUnavailable, "Logging not available")
		return
	}

	// Parse query parameters
	limit := 100 // Default limit
	offset := 0  // Default offset

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 0 {
			offset = parsedOffset
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	logs, err := loggingDB.GetLogs(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to retrieve logs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve logs")
		return
	}

	totalCount, err := loggingDB.GetLogsCount(ctx)
	if err != nil {
		s.logger.Warn("failed to get logs count", "error", err)
		// Continue without count
		totalCount = -1
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   logs,
		"total":  totalCount,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	loggingDB := s.masker.LoggingDB()
	if loggingDB == nil {
		writeError(w, http.StatusServiceUnavailable, "Logging not available")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := loggingDB.ClearLogs(ctx); err != nil {
		s.logger.Error("failed to clear logs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to clear logs")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
