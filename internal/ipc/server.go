package ipc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Server wraps an HTTP server with engine-specific routing.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a Server that binds to the given address.
func NewServer(h *Handler, listenAddr string) *Server {
	mux := http.NewServeMux()

	// Health endpoint.
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Mesh endpoints.
	mux.HandleFunc("POST /api/v1/mesh", h.GenerateMesh)
	mux.HandleFunc("GET /api/v1/mesh", h.ListMeshes)
	mux.HandleFunc("GET /api/v1/mesh/{fingerprint}", h.GetMesh)
	mux.HandleFunc("GET /api/v1/mesh/{fingerprint}/csv", h.GetMeshCSV)

	// Geometry endpoints.
	mux.HandleFunc("POST /api/v1/geometry", h.CreateGeometry)
	mux.HandleFunc("GET /api/v1/geometry", h.ListGeometries)
	mux.HandleFunc("GET /api/v1/geometry/{name}", h.GetGeometry)

	srv := &http.Server{
		Addr:    listenAddr,
		Handler: corsMiddleware(mux),
	}

	return &Server{
		httpServer: srv,
	}
}

// Start begins listening for HTTP connections. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// FormatListenURL turns a listen address like ":9810" into a browsable URL.
func FormatListenURL(listenAddr string) string {
	if strings.HasPrefix(listenAddr, ":") {
		return fmt.Sprintf("http://localhost%s", listenAddr)
	}
	return fmt.Sprintf("http://%s", listenAddr)
}

// corsMiddleware adds CORS headers for local desktop app access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
