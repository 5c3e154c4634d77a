package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Report page and its form actions
	mux.HandleFunc("/", s.app.ReportHandler.ServePage)
	mux.HandleFunc("/generate", s.app.ReportHandler.Generate)
	mux.HandleFunc("/reset", s.app.ReportHandler.Reset)
	mux.HandleFunc("/report/fragment", s.app.ReportHandler.Fragment)

	// Static files (CSS, JS)
	mux.HandleFunc("/static/", s.app.PageHandler.StaticFileHandler)

	// MCP endpoint (JSON-RPC over HTTP)
	if s.app.MCPHandler != nil {
		mux.Handle("/mcp", s.app.MCPHandler)
	}

	// API routes
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)
	mux.HandleFunc("/api/server-health", s.app.ServerHealthHandler.ServeHTTP)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleReport routes /api/report: GET -> snapshot, POST -> submit.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.ReportHandler.HandleGet, s.app.ReportHandler.HandleSubmit)
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
