// Package apitest runs an in-memory backend for tests of code that uses
// package api.
package apitest

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/example/papermark/internal/api"
	"github.com/example/papermark/internal/boxes"
)

// PageSize is the pixel size of generated page images.
var PageSize = image.Pt(200, 280)

// Server stores questions and answers in memory. Question ids are assigned
// sequentially starting at 1 and are never reused.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	nextID    int64
	questions map[int64]*api.Question
	answers   map[int64]*api.Answer
	pages     map[int64][]int
	failures  map[string]int
	calls     []string
}

// New starts a server. Close it with Close.
func New() *Server {
	s := &Server{
		nextID:    1,
		questions: map[int64]*api.Question{},
		answers:   map[int64]*api.Answer{},
		pages:     map[int64][]int{},
		failures:  map[string]int{},
	}

	r := chi.NewRouter()
	r.Use(s.record)

	r.Get("/papers/{paper}/pages", s.handlePages)
	r.Get("/papers/{paper}/pages/{page}/image", s.handlePageImage)
	r.Get("/papers/{paper}/pages/{page}/questions", s.handlePageQuestions)
	r.Get("/papers/{paper}/questions", s.handleListQuestions)
	r.Post("/papers/{paper}/questions", s.handleCreateQuestion)
	r.Get("/questions/{id}", s.handleGetQuestion)
	r.Patch("/questions/{id}", s.handleUpdateQuestion)
	r.Delete("/questions/{id}", s.handleDeleteQuestion)
	r.Post("/questions/{id}/boxes", s.handleSetBoxes)
	r.Get("/questions/{id}/answer", s.handleGetAnswer)
	r.Post("/questions/{id}/answer", s.handleSaveAnswer)

	s.Server = httptest.NewServer(r)
	return s
}

// Client returns an api client bound to the server.
func (s *Server) Client() *api.Client {
	return api.New(s.URL, api.WithClient(s.Server.Client()))
}

// AddPaper registers the page numbers of a paper.
func (s *Server) AddPaper(paperID int64, pages ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[paperID] = append([]int(nil), pages...)
}

// Seed stores q as if it had been created and returns its id.
func (s *Server) Seed(paperID int64, q api.Question) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.ID = s.nextID
	q.PaperID = paperID
	if q.Status == "" {
		q.Status = api.StatusConfirmed
	}
	s.nextID++
	s.questions[q.ID] = &q
	return q.ID
}

// Question returns a copy of a stored question.
func (s *Server) Question(id int64) (api.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return api.Question{}, false
	}
	return *q, true
}

// Answer returns a copy of a stored answer.
func (s *Server) Answer(questionID int64) (api.Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[questionID]
	if !ok {
		return api.Answer{}, false
	}
	return *a, true
}

// Count returns the number of stored questions.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

// FailNext makes the next request matching method and route pattern fail
// with code.
func (s *Server) FailNext(method, pattern string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+pattern] = code
}

// Calls lists "METHOD /path" for every request served so far.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		s.mu.Unlock()

		rctx := chi.NewRouteContext()
		pattern := ""
		if chi.RouteContext(r.Context()) != nil {
			if routes := chi.RouteContext(r.Context()).Routes; routes != nil && routes.Match(rctx, r.Method, r.URL.Path) {
				pattern = rctx.RoutePattern()
			}
		}

		s.mu.Lock()
		key := r.Method + " " + pattern
		code, fail := s.failures[key]
		if fail {
			delete(s.failures, key)
		}
		s.mu.Unlock()

		if fail {
			http.Error(w, "injected failure", code)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter) {
	writeJSON(w, map[string]bool{"ok": true})
}

func idParam(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return v, err == nil
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	paperID, valid := idParam(r, "paper")
	if !valid {
		http.Error(w, "bad paper id", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	pages := append([]int(nil), s.pages[paperID]...)
	s.mu.Unlock()

	type page struct {
		Page int `json:"page"`
	}
	out := make([]page, 0, len(pages))
	for _, p := range pages {
		out = append(out, page{p})
	}
	writeJSON(w, map[string]any{"pages": out})
}

func (s *Server) handlePageImage(w http.ResponseWriter, r *http.Request) {
	img := image.NewRGBA(image.Rectangle{Max: PageSize})
	for y := 0; y < PageSize.Y; y++ {
		for x := 0; x < PageSize.X; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) sortedQuestions(keep func(*api.Question) bool) []api.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Question{}
	for _, q := range s.questions {
		if keep(q) {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	paperID, _ := idParam(r, "paper")
	qs := s.sortedQuestions(func(q *api.Question) bool { return q.PaperID == paperID })
	writeJSON(w, map[string]any{"questions": qs})
}

func (s *Server) handlePageQuestions(w http.ResponseWriter, r *http.Request) {
	paperID, _ := idParam(r, "paper")
	page, _ := strconv.Atoi(chi.URLParam(r, "page"))
	qs := s.sortedQuestions(func(q *api.Question) bool {
		if q.PaperID != paperID {
			return false
		}
		for _, b := range q.Boxes {
			if b.Page == page {
				return true
			}
		}
		return false
	})
	writeJSON(w, map[string]any{"questions": qs})
}

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	paperID, _ := idParam(r, "paper")
	var in api.QuestionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := s.Seed(paperID, api.Question{Sections: in.Sections, Status: in.Status, Notes: in.Notes, Boxes: in.Boxes})
	q, _ := s.Question(id)
	writeJSON(w, map[string]any{"question": q})
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r, "id")
	q, found := s.Question(id)
	if !found {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{"question": q})
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r, "id")
	var in api.QuestionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	q, found := s.questions[id]
	if found {
		q.Sections = in.Sections
		q.Notes = in.Notes
	}
	s.mu.Unlock()
	if !found {
		http.NotFound(w, r)
		return
	}
	ok(w)
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r, "id")
	s.mu.Lock()
	_, found := s.questions[id]
	delete(s.questions, id)
	delete(s.answers, id)
	s.mu.Unlock()
	if !found {
		http.NotFound(w, r)
		return
	}
	ok(w)
}

func (s *Server) handleSetBoxes(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r, "id")
	var in struct {
		Boxes []boxes.PageBox `json:"boxes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	q, found := s.questions[id]
	if found {
		q.Boxes = in.Boxes
	}
	s.mu.Unlock()
	if !found {
		http.NotFound(w, r)
		return
	}
	ok(w)
}

func (s *Server) handleGetAnswer(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r, "id")
	a, found := s.Answer(id)
	if !found {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{"answer": a})
}

func (s *Server) handleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r, "id")
	var in api.Answer
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	_, found := s.questions[id]
	if found {
		s.answers[id] = &in
	}
	s.mu.Unlock()
	if !found {
		http.NotFound(w, r)
		return
	}
	ok(w)
}
