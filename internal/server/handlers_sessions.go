package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jonathan/resume-builder/internal/ats"
	"github.com/jonathan/resume-builder/internal/jdparser"
	"github.com/jonathan/resume-builder/internal/types"
)

const (
	// keepAliveInterval spaces SSE comments on an idle stream.
	keepAliveInterval = 15 * time.Second
	// streamRetry is the reconnection delay suggested to SSE clients.
	streamRetry = 3 * time.Second
)

// handleCreateSession opens a live scoring session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req types.SessionRequest
	if err := decodeJSON(r, w, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, validationError(err))
		return
	}

	keywords := req.JobKeywords
	if len(keywords) == 0 && req.JobDescription != "" {
		keywords = jdparser.ExtractLocal(req.JobDescription, jdparser.DefaultLimit)
	}

	sess, err := s.sessions.Create(keywords)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := types.SessionResponse{ID: sess.id.String(), JobKeywords: ats.NormalizeKeywords(sess.keywords)}
	if resp.JobKeywords == nil {
		resp.JobKeywords = []string{}
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

// handleGetSession returns the session's current state.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess.driver.Snapshot())
}

// handleRecalculate queues a debounced pass for a new document revision.
func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req types.RecalculateRequest
	if err := decodeResumeRequest(r, w, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, validationError(err))
		return
	}

	keywords := req.JobKeywords
	if len(keywords) == 0 {
		keywords = sess.keywords
	}

	sess.touch(s.sessions.sched.Now())
	if err := sess.driver.Recalculate(req.Resume, keywords); err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusAccepted, sess.driver.Snapshot())
}

// handleFlushSession runs a queued pass without waiting for the quiet period.
func (s *Server) handleFlushSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess.touch(s.sessions.sched.Now())
	ran := sess.driver.Flush()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"ran":   ran,
		"state": sess.driver.Snapshot(),
	})
}

// handleSessionStream streams state changes as Server-Sent Events until the
// client goes away or the session closes.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Subscribe before the first snapshot so no change falls in between.
	updates, unsubscribe := sess.subscribe()
	defer unsubscribe()

	sse, err := NewSSEWriter(w, streamRetry)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sse.WriteEvent(eventState, sess.driver.Snapshot()); err != nil {
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case state := <-updates:
			if err := sse.WriteEvent(eventState, state); err != nil {
				s.logger.Debug("stream write failed", slog.Any("error", err))
				return
			}
		case <-sess.done:
			select {
			case state := <-updates:
				sse.WriteEvent(eventState, state) //nolint:errcheck
			default:
			}
			sse.WriteEvent(eventClosed, map[string]string{"id": sess.id.String()}) //nolint:errcheck
			return
		case <-keepAlive.C:
			if err := sse.WriteComment("ping"); err != nil {
				return
			}
		}
	}
}

// handleDeleteSession closes a session and ends its streams.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
