// Package web provides a simple web UI over the starsmith session
// archive: create a session, step it through the pipeline, inspect the
// transcripts and the final narrative.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/metalagman/starsmith/internal/db"
	"github.com/metalagman/starsmith/internal/workflow"
)

// Server provides the web UI handlers and state.
type Server struct {
	store *db.Store
	flow  *workflow.Workflow
}

// NewServer creates a new web server over the archive and workflow.
func NewServer(store *db.Store, flow *workflow.Workflow) (*Server, error) {
	return &Server{store: store, flow: flow}, nil
}

//go:embed templates/*.html
var templatesFS embed.FS

// Routes returns the router for the web UI.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("POST /sessions", s.handleCreate)
	mux.HandleFunc("GET /sessions/{id}", s.handleShow)
	mux.HandleFunc("POST /sessions/{id}/score", s.stepHandler(s.flow.Score))
	mux.HandleFunc("POST /sessions/{id}/enhance", s.stepHandler(s.flow.Enhance))
	mux.HandleFunc("POST /sessions/{id}/feedback", s.handleFeedback)
	mux.HandleFunc("POST /sessions/{id}/apply", s.stepHandler(s.flow.ApplyFeedback))
	mux.HandleFunc("POST /sessions/{id}/finalize", s.stepHandler(s.flow.Finalize))
	mux.HandleFunc("POST /sessions/{id}/delete", s.handleDelete)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, sessions); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	example := strings.TrimSpace(r.FormValue("example"))
	if example == "" {
		http.Error(w, "example text is required", http.StatusBadRequest)
		return
	}
	sess, err := s.flow.Open(r.Context(), example, strings.TrimSpace(r.FormValue("position")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/sessions/"+sess.ID, http.StatusSeeOther)
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	tmpl, err := template.ParseFS(templatesFS, "templates/session.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	runs, err := s.store.ListRuns(r.Context(), sess.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		Session *workflow.Session
		Runs    []db.RunRecord
	}{Session: sess, Runs: runs}
	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// stepHandler adapts one workflow step into a POST handler: reload the
// session, run the step, bounce back to the session page.
func (s *Server) stepHandler(step func(context.Context, *workflow.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.loadSession(w, r)
		if !ok {
			return
		}
		if err := step(r.Context(), sess); err != nil {
			http.Error(w, err.Error(), stepErrorStatus(err))
			return
		}
		http.Redirect(w, r, "/sessions/"+sess.ID, http.StatusSeeOther)
	}
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	feedback := strings.Split(r.FormValue("feedback"), "\n")
	if err := s.flow.CollectFeedback(r.Context(), sess, feedback); err != nil {
		http.Error(w, err.Error(), stepErrorStatus(err))
		return
	}
	http.Redirect(w, r, "/sessions/"+sess.ID, http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*workflow.Session, bool) {
	sess, err := s.store.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func stepErrorStatus(err error) int {
	if errors.Is(err, workflow.ErrInvalidTransition) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
