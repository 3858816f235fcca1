package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/document"
	"github.com/poiesic/folio/session"
	"github.com/poiesic/folio/storage"
)

// CreateSessionRequest is the JSON body of POST /api/v1/sessions.
type CreateSessionRequest struct {
	DocumentBase64 string `json:"document_base64"`
	Name           string `json:"name"`
	Language       string `json:"language"`
}

// SessionResponse describes one session.
type SessionResponse struct {
	ID           string        `json:"id"`
	DocumentName string        `json:"document_name,omitempty"`
	DocumentID   string        `json:"document_id,omitempty"`
	Language     core.Language `json:"language"`
	Metadata     core.Metadata `json:"metadata"`
	Axioms       []core.Axiom  `json:"axioms"`
	Snippets     []string      `json:"snippets"`
	Chunks       int           `json:"chunks"`
	History      []core.Turn   `json:"history,omitempty"`
}

// ChatRequest is the JSON body of POST /api/v1/sessions/{id}/chat.
type ChatRequest struct {
	Question string `json:"question"`
	Language string `json:"language"`
}

// ErrorTrailer carries a stream failure after the response has started.
const ErrorTrailer = "X-Folio-Error"

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	doc, lang, err := s.readDocument(w, r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	st := s.service.CreateSession()
	if _, err := s.service.ExtractAxioms(r.Context(), st.ID(), doc, lang); err != nil {
		s.service.DiscardSession(st.ID())
		s.logger.Error("ingestion failed", "document", doc.Name, "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(st, false))
}

// readDocument accepts either a JSON body or a multipart form with a
// "document" file and an optional "language" field.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*document.Document, core.Language, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload*2)
	limit := document.WithMaxSize(s.maxUpload)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("document")
		if err != nil {
			return nil, "", tooLarge(err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", tooLarge(err)
		}
		lang, err := core.ParseLanguage(r.FormValue("language"))
		if err != nil {
			return nil, "", err
		}
		doc, err := document.FromBytes(header.Filename, data, limit)
		return doc, lang, err
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", tooLarge(err)
	}
	lang, err := core.ParseLanguage(req.Language)
	if err != nil {
		return nil, "", err
	}
	name := req.Name
	if name == "" {
		name = "document.pdf"
	}
	doc, err := document.FromBase64(name, req.DocumentBase64, limit)
	return doc, lang, err
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	s.service.Flush()
	summaries, err := s.sessions.ListSessions(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if summaries == nil {
		summaries = []storage.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(st, true))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) snippets(w http.ResponseWriter, r *http.Request) {
	snippets, err := s.service.Snippets(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if snippets == nil {
		snippets = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"snippets": snippets})
}

// chat streams the answer as text/plain, flushing after every fragment.
// A failure before the first fragment is a JSON error; after it, the error
// is reported in the X-Folio-Error trailer.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, badRequest(err))
		return
	}
	var lang core.Language
	if strings.TrimSpace(req.Language) != "" {
		parsed, err := core.ParseLanguage(req.Language)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		lang = parsed
	}

	flusher, _ := w.(http.Flusher)
	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Trailer", ErrorTrailer)
		w.WriteHeader(http.StatusOK)
	}

	err := s.service.ChatStream(r.Context(), id, req.Question, lang, func(fragment string) error {
		start()
		if _, err := io.WriteString(w, fragment); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	switch {
	case err == nil:
		start()
	case started:
		s.logger.Warn("chat stream ended with error", "session", id, "err", err)
		w.Header().Set(ErrorTrailer, err.Error())
	default:
		writeError(w, statusFor(err), err)
	}
}

func sessionResponse(st *session.State, withHistory bool) SessionResponse {
	resp := SessionResponse{
		ID:           st.ID(),
		DocumentName: st.DocumentName(),
		Language:     st.Language(),
		Metadata:     st.Metadata(),
		Axioms:       st.Axioms(),
		Snippets:     st.Snippets(),
		Chunks:       len(st.Chunks()),
	}
	if id := st.DocumentID(); id != 0 {
		resp.DocumentID = id.String()
	}
	if resp.Axioms == nil {
		resp.Axioms = []core.Axiom{}
	}
	if resp.Snippets == nil {
		resp.Snippets = []string{}
	}
	if withHistory {
		resp.History = st.History()
	}
	return resp
}

type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{status: http.StatusBadRequest, err: fmt.Errorf("invalid request: %w", err)}
}

// tooLarge maps a MaxBytesReader overflow to 413 and anything else to 400.
func tooLarge(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: request body over %d bytes", document.ErrTooLarge, maxErr.Limit)
	}
	return badRequest(err)
}

// requestStatus lets statusFor honor requestError.
func requestStatus(err error) (int, bool) {
	var re *requestError
	if errors.As(err, &re) {
		return re.status, true
	}
	return 0, false
}
