package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// submits run the whole pipeline plus a MySQL write and a cache eviction
const requestTimeout = 15 * time.Second

type Server struct{ mux *chi.Mux }

func New() *Server {
	m := chi.NewRouter()

	// middlewares must be registered before any route
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(Timeout(requestTimeout))
	m.Use(Metrics)
	m.Use(Logger(log.Logger))

	m.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	m.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported here")
	})
	m.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}

// MountHandlers lays out the v1 API. Lookups are read-only and negotiate a
// display locale; draft and listing routes take JSON bodies.
func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Route("/v1", func(v1 chi.Router) {
		v1.With(Locale).Get("/lookups", h.getLookups)

		v1.Group(func(r chi.Router) {
			r.Use(RequireJSON)
			r.Route("/drafts", func(r chi.Router) {
				r.Post("/", h.startDraft)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.getDraft)
					r.Delete("/", h.discardDraft)
					r.Get("/steps/{step}", h.getStep)
					r.Patch("/steps/{step}", h.patchStep)
					r.Post("/submit", h.submitDraft)
				})
			})
			r.Route("/listings", func(r chi.Router) {
				r.Post("/", h.createListing)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.getListing)
					r.Put("/", h.updateListing)
					r.Get("/edit", h.editListing)
				})
			})
		})
	})
}
