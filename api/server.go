/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for browser front ends

ROUTE GROUPS:
  /api/calculate        Stateless calculation
  /api/calculations/*   Saved calculations and payslips
  /api/tax-years/*      Tax-year tables
  /api/scenarios/*      Preset requests
  /api/health           Liveness
  /                     Endpoint index (HTML)

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins are the local front-end dev servers.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured. An empty
// allowedOrigins uses DefaultAllowedOrigins.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/calculate", h.Calculate)

		// Saved calculation routes
		r.Route("/calculations", func(r chi.Router) {
			r.Get("/", h.ListCalculations)
			r.Post("/", h.CreateCalculation)
			r.Get("/{id}", h.GetCalculation)
			r.Delete("/{id}", h.DeleteCalculation)
			r.Get("/{id}/payslip.pdf", h.GetPayslip)
		})

		// Tax year routes
		r.Route("/tax-years", func(r chi.Router) {
			r.Get("/", h.ListTaxYears)
			r.Get("/{year}", h.GetTaxYear)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/{id}/calculate", h.CalculateScenario)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(indexHTML))
	})

	return r
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>PAYE Take-Home Pay Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>PAYE Take-Home Pay Engine API</h1>
<p>POST a JSON request to <code>/api/calculate</code>, for example
<code>{"grossAnnualSalary": 45000, "taxYear": "2025-26"}</code>.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/tax-years">/api/tax-years</a> - Supported tax years</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Preset requests</li>
<li><a href="/api/calculations">/api/calculations</a> - Saved calculations</li>
<li><a href="/api/health">/api/health</a> - Health check</li>
</ul>
</body>
</html>`
