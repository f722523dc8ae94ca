package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/jdparser"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// decodeResumeRequest reads the body, checks its "resume" member against the
// document schema and decodes the whole body into dst.
func decodeResumeRequest(r *http.Request, w http.ResponseWriter, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}

	var envelope struct {
		Resume json.RawMessage `json:"resume"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if len(envelope.Resume) == 0 {
		return &ErrValidation{Field: "resume", Message: "is required"}
	}
	if err := schemas.ValidateDocument(envelope.Resume); err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// decodeJSON decodes a plain JSON body.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

func validationError(err error) error {
	return &ErrValidation{Field: "request", Message: types.DescribeValidationError(err)}
}

// handleScore scores one document. With a resume_id and an authenticated caller
// the report is also stored in history.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req types.ScoreRequest
	if err := decodeResumeRequest(r, w, &req); err != nil {
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

	report := s.scorer.Score(&req.Resume, keywords)
	report.ScoredAt = time.Now().UTC()

	resp := types.ScoreResponse{Report: report}
	if req.ResumeID != "" && s.store != nil {
		if userID, err := middleware.GetUserID(r); err == nil {
			resumeID, _ := uuid.Parse(req.ResumeID) // format checked by Validate
			rec := db.NewReportRecord(userID, resumeID, report)
			if err := s.store.SaveReport(r.Context(), rec); err != nil {
				s.writeError(w, fmt.Errorf("failed to save report: %w", err))
				return
			}
			resp.ReportID = rec.ID.String()
		}
	}

	s.logger.Debug("scored resume",
		slog.Int("score", report.Score),
		slog.Int("keywords", len(report.JobKeywords)),
		slog.Bool("stored", resp.ReportID != ""))
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleKeywords extracts ATS keywords from pasted text or a job posting URL.
func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	var req types.KeywordsRequest
	if err := decodeJSON(r, w, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, validationError(err))
		return
	}

	text := req.JobDescription
	if req.JobURL != "" {
		fetched, err := s.fetcher.JobDescription(r.Context(), req.JobURL)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.logger.Debug("fetched job posting",
			slog.String("url", req.JobURL),
			slog.String("platform", string(fetched.Platform)),
			slog.Bool("cached", fetched.FromCache))
		text = fetched.Text
	}

	resp := types.KeywordsResponse{Source: jdparser.SourceLocal}
	if req.UseLLM {
		result, err := s.parser.Parse(r.Context(), text, req.Limit)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.Keywords, resp.Source = result.Keywords, result.Source
	} else {
		resp.Keywords = jdparser.ExtractLocal(text, req.Limit)
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleListReports lists the caller's stored reports for one resume, newest first.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	resumeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "id", Message: "invalid resume ID format"})
		return
	}

	limit := db.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			s.writeError(w, &ErrValidation{Field: "limit", Message: "must be between 1 and 500"})
			return
		}
		limit = n
	}

	records, err := s.store.ListReports(r.Context(), userID, resumeID, limit)
	if err != nil {
		s.writeError(w, fmt.Errorf("failed to list reports: %w", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"reports": records,
		"count":   len(records),
	})
}

// handleGetReport returns one stored report owned by the caller.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "id", Message: "invalid report ID format"})
		return
	}

	rec, err := s.store.GetReport(r.Context(), userID, id)
	if err != nil {
		s.writeError(w, fmt.Errorf("failed to get report: %w", err))
		return
	}
	if rec == nil {
		s.writeError(w, &ErrReportNotFound{ReportID: id})
		return
	}

	s.jsonResponse(w, http.StatusOK, rec)
}
