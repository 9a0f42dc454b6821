package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/intern-autoapply/internal/apply"
	"github.com/jonathan/intern-autoapply/internal/pipeline"
	"github.com/jonathan/intern-autoapply/internal/server/middleware"
	"github.com/jonathan/intern-autoapply/internal/types"
)

// SubmissionsResponse represents the response for /submissions
type SubmissionsResponse struct {
	Count       int                      `json:"count"`
	Submissions []types.SubmissionRecord `json:"submissions"`
}

// handleAnalyzeResume extracts job titles from an uploaded resume (multipart field "resume").
func (s *Server) handleAnalyzeResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "Resume file is too large")
			return
		}
		s.failWith(w, &ErrValidation{Field: "resume", Message: "expected a multipart upload"})
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.failWith(w, &ErrValidation{Field: "resume", Message: "file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	result, err := s.service.ParseResume(r.Context(), header.Filename, file)
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleScrapeJobs scrapes postings for a keyword and saves them for the next apply run.
func (s *Server) handleScrapeJobs(w http.ResponseWriter, r *http.Request) {
	var req types.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	postings, err := s.service.Scrape(r.Context(), req)
	if err != nil {
		s.failWith(w, err)
		return
	}
	if postings == nil {
		postings = []types.Posting{}
	}
	s.jsonResponse(w, http.StatusOK, types.ScrapeResult{Internships: postings})
}

// handleAutoApply runs the apply walker over the saved postings and returns the summary.
// A client disconnect cancels the run between postings.
func (s *Server) handleAutoApply(w http.ResponseWriter, r *http.Request) {
	s.liftWriteDeadline(w)
	s.logSession(r, "auto-apply")

	result, err := s.service.AutoApply(r.Context())
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleAutoApplyStream runs the apply walker and streams one event per posting via SSE.
func (s *Server) handleAutoApplyStream(w http.ResponseWriter, r *http.Request) {
	s.liftWriteDeadline(w)
	s.logSession(r, "auto-apply stream")

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	stop := sse.KeepAlive(sseKeepAlive)
	defer stop()

	result, err := s.service.AutoApplyWithProgress(r.Context(), func(a apply.Attempt, sess apply.Session) {
		if err := sse.WriteEvent(EventAttempt, pipeline.NewAttemptEvent(a, sess)); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	})
	if err != nil {
		log.Printf("Auto-apply run failed: %v", err)
		sse.WriteError(err.Error())
		return
	}
	sse.WriteComplete(result)
}

// handleRunStream runs the whole pipeline (resume upload or keyword) and streams progress via SSE.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	s.liftWriteDeadline(w)
	s.logSession(r, "pipeline run")

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.failWith(w, &ErrValidation{Field: "resume", Message: "invalid form body"})
		return
	}

	opts := pipeline.RunOptions{Keyword: strings.TrimSpace(r.FormValue("keyword"))}
	if file, header, err := r.FormFile("resume"); err == nil {
		defer func() { _ = file.Close() }()
		opts.ResumeName = header.Filename
		opts.Resume = file
	}
	if opts.Resume == nil && opts.Keyword == "" {
		s.failWith(w, &ErrValidation{Field: "resume", Message: "a resume file or a keyword is required"})
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	stop := sse.KeepAlive(sseKeepAlive)
	defer stop()

	log.Printf("Starting streaming pipeline run...")
	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent(EventStep, event); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	}

	summary, err := s.service.RunPipeline(r.Context(), opts)
	if err != nil {
		log.Printf("Pipeline run failed: %v", err)
		sse.WriteError(err.Error())
		return
	}

	sse.WriteComplete(summary)
	log.Printf("Streaming pipeline run completed")
}

// handleSubmissions lists every ledger record.
func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.Submissions(r.Context())
	if err != nil {
		s.failWith(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, SubmissionsResponse{Count: len(records), Submissions: records})
}

// liftWriteDeadline clears the server write timeout for a long-running apply response.
func (s *Server) liftWriteDeadline(w http.ResponseWriter) {
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Printf("[SERVER] Could not clear write deadline: %v", err)
	}
}

func (s *Server) logSession(r *http.Request, what string) {
	if id, err := middleware.GetSessionID(r); err == nil {
		log.Printf("[AUTH] Session %s started %s", id, what)
	}
}
