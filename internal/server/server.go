// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes product lookups and the directory over HTTP.
//
//	GET /api/lookup?name=<product>            grouped prices (auth required)
//	GET /api/categories                       distinct categories
//	GET /api/products?category=<c>[&sub=<s>]  products of one category
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ommathur/quickpick/internal/aggregate"
	"github.com/ommathur/quickpick/internal/directory"
	"github.com/ommathur/quickpick/internal/identity"
	"github.com/ommathur/quickpick/pkg/types"
)

// Options configures a Server.
type Options struct {
	Pipeline  *aggregate.Pipeline
	Directory directory.Directory

	// Verifier checks bearer tokens. When nil, DevUser is trusted for
	// every lookup; when both are empty, lookups are rejected.
	Verifier *identity.Verifier
	DevUser  string

	Logger *slog.Logger
}

// Server serves the HTTP API.
type Server struct {
	pipeline  aggregate.Pipeline
	directory directory.Directory
	verifier  *identity.Verifier
	devUser   string
	logger    *slog.Logger
}

// New returns a Server. The pipeline is copied and bound to the caller
// carried by each request.
func New(opts Options) *Server {
	s := &Server{
		directory: opts.Directory,
		verifier:  opts.Verifier,
		devUser:   opts.DevUser,
		logger:    opts.Logger,
	}
	if opts.Pipeline != nil {
		s.pipeline = *opts.Pipeline
	}
	s.pipeline.Identity = identity.ContextProvider{}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Handler returns the routed handler with request IDs and access logging.
func (s *Server) Handler() http.Handler {
	auth := Authenticate(s.verifier, s.devUser)

	mux := http.NewServeMux()
	mux.Handle("GET /api/lookup", auth(http.HandlerFunc(s.handleLookup)))
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/products", s.handleProducts)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return RequestID(AccessLog(s.logger)(mux))
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeProblem(w, r, http.StatusBadRequest, "name is required")
		return
	}

	p := s.pipeline
	p.Logger = s.logger.With("request_id", RequestIDFrom(r.Context()))
	res, err := p.Run(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, aggregate.NewReport(res))
}

// CategoriesResponse is the body of GET /api/categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.directory.Categories(r.Context())
	if err != nil {
		s.logger.Error("listing categories", "err", err)
		writeProblem(w, r, http.StatusInternalServerError, "could not list categories")
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, CategoriesResponse{Categories: cats})
}

// ProductsResponse is the body of GET /api/products. Subcategories covers
// the whole category even when a sub filter narrows Products.
type ProductsResponse struct {
	Category      string                 `json:"category"`
	Subcategories []string               `json:"subcategories"`
	Products      []types.ProductSummary `json:"products"`
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeProblem(w, r, http.StatusBadRequest, "category is required")
		return
	}

	all, err := s.directory.Products(r.Context(), category)
	if err != nil {
		s.logger.Error("listing products", "category", category, "err", err)
		writeProblem(w, r, http.StatusInternalServerError, "could not list products")
		return
	}

	resp := ProductsResponse{
		Category:      category,
		Subcategories: directory.Subcategories(all),
		Products:      directory.FilterSubcategory(all, r.URL.Query().Get("sub")),
	}
	if resp.Subcategories == nil {
		resp.Subcategories = []string{}
	}
	if resp.Products == nil {
		resp.Products = []types.ProductSummary{}
	}
	writeJSON(w, resp)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg types.ServerConfig) error {
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
