package server

import "net/http"

// routes configures all HTTP handlers
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))

	// Document pages: plain view, approve/unapprove/purge actions, and the
	// staged sync workflow (syncstage/revsync query params)
	mux.HandleFunc("/wiki/{namespace}/{title}", s.corsMiddleware(s.HandleDocument))
	mux.HandleFunc("/wiki/{title}", s.corsMiddleware(s.HandleDocument))

	// JSON API
	mux.HandleFunc("/api/documents", s.corsMiddleware(s.HandleCreateDocument))             // Create document + first revision (POST)
	mux.HandleFunc("/api/documents/{namespace}/{title}/revisions", s.corsMiddleware(s.HandleAddRevision)) // Append revision (POST)
	mux.HandleFunc("/api/semantic/{namespace}/{title}", s.corsMiddleware(s.HandleSemantic)) // Indexed facts (GET)
	mux.HandleFunc("/api/jobs", s.corsMiddleware(s.HandleJobs))                             // List fallback jobs (GET)
	mux.HandleFunc("/api/jobs/{id}", s.corsMiddleware(s.HandleJob))                         // Individual job (GET)

	// Live job feed for operators
	mux.HandleFunc("/ws/jobs", s.HandleJobsWS)

	return mux
}

// corsMiddleware adds CORS headers for configured allowed origins
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
