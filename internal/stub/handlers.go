package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/relistr/mediakit/pkg/asset"
	"github.com/relistr/mediakit/pkg/enums"
	"github.com/relistr/mediakit/pkg/logger"
	"github.com/relistr/mediakit/pkg/scope"
)

const maxMultipartMemory = 32 << 20

// Options configures the stub backend.
type Options struct {
	// Token, when set, requires a matching bearer token on every request.
	Token string
	// CORSOrigins defaults to allowing everything, which is what a local
	// development stub wants.
	CORSOrigins []string
}

// Server is a local, in-memory implementation of the media REST contract.
// It exists for development against a laptop and as the fixture backend
// in transport/session tests; it is not a production service.
type Server struct {
	store *Store
	logg  *logger.Logger
	opts  Options
}

func NewServer(store *Store, logg *logger.Logger, opts Options) *Server {
	if store == nil {
		store = NewStore()
	}
	return &Server{store: store, logg: logg, opts: opts}
}

func (s *Server) Store() *Store {
	return s.store
}

// Router assembles the chi handler with the standard middleware chain.
func (s *Server) Router() http.Handler {
	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(
		recoverer(s.logg),
		requestID(s.logg),
		accessLog(s.logg),
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		}),
		s.requireToken,
	)

	r.Get("/upload/{entityType}/{entityID}/images", s.handleList)
	r.Post("/upload/{entityType}/{entityID}", s.handleUpload)
	r.Put("/upload/{entityType}/{entityID}/reorder", s.handleReorder)
	r.Delete("/upload/image/{imageID}", s.handleDelete)
	r.Put("/upload/image/{imageID}/set-primary", s.handleSetPrimary)
	return r
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Token != "" {
			header := r.Header.Get("Authorization")
			if header != "Bearer "+s.opts.Token {
				writeError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.scopeFromRequest(w, r, r.URL.Query().Get("purpose"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, imagesEnvelope{Images: s.store.List(sc)})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "malformed multipart body")
		return
	}
	sc, ok := s.scopeFromRequest(w, r, r.FormValue("purpose"))
	if !ok {
		return
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		writeError(w, http.StatusBadRequest, "no files supplied")
		return
	}

	files := make([]IncomingFile, 0, len(parts))
	for _, part := range parts {
		files = append(files, IncomingFile{
			Name:        part.Filename,
			ContentType: part.Header.Get("Content-Type"),
			SizeBytes:   part.Size,
		})
	}

	created := s.store.Create(sc, files)
	if s.logg != nil {
		ctx := s.logg.WithScope(r.Context(), sc.Key())
		s.logg.Info(ctx, fmt.Sprintf("stored %d uploads", len(created)))
	}
	writeJSON(w, http.StatusCreated, imagesEnvelope{Images: created})
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Purpose     string `json:"purpose"`
		ImageOrders []struct {
			ImageID   int64 `json:"imageId"`
			SortOrder int   `json:"sortOrder"`
		} `json:"imageOrders"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed reorder payload")
		return
	}
	sc, ok := s.scopeFromRequest(w, r, payload.Purpose)
	if !ok {
		return
	}

	orders := make(map[int64]int, len(payload.ImageOrders))
	for _, order := range payload.ImageOrders {
		orders[order.ImageID] = order.SortOrder
	}
	if err := s.store.Reorder(sc, orders); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := imageIDFromRequest(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPrimary(w http.ResponseWriter, r *http.Request) {
	id, ok := imageIDFromRequest(w, r)
	if !ok {
		return
	}
	if err := s.store.SetPrimary(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) scopeFromRequest(w http.ResponseWriter, r *http.Request, purpose string) (scope.Scope, bool) {
	entityType, err := enums.ParseEntityType(chi.URLParam(r, "entityType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return scope.Scope{}, false
	}
	entityID, err := strconv.ParseInt(chi.URLParam(r, "entityID"), 10, 64)
	if err != nil || entityID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return scope.Scope{}, false
	}
	if strings.TrimSpace(purpose) == "" {
		writeError(w, http.StatusBadRequest, "purpose is required")
		return scope.Scope{}, false
	}
	return scope.Scope{EntityType: entityType, EntityID: entityID, Purpose: purpose}, true
}

func imageIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "imageID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid image id")
		return 0, false
	}
	return id, true
}

type imagesEnvelope struct {
	Images []asset.Record `json:"images"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
