package app

import (
	"context"
	"net/http"
	"time"

	"github.com/rxdesk/pharmacy-api/api/openapi"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
	"github.com/rxdesk/pharmacy-api/internal/pkg/httputil"
	"github.com/rxdesk/pharmacy-api/internal/version"
)

const readinessTimeout = 2 * time.Second

type dependencyCheck struct {
	name string
	ping func(context.Context) error
}

func (a *App) healthz(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

// readyz reports 503 while PostgreSQL, or Redis when it backs the rate limiter, does not answer.
func (a *App) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := []dependencyCheck{{"Database", a.db.Ping}}
	if a.redis != nil {
		checks = append(checks, dependencyCheck{"Redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}})
	}

	for _, c := range checks {
		if err := c.ping(ctx); err != nil {
			ctxlog.FromContext(r.Context()).Error("readiness check failed", "dependency", c.name, "error", err)
			httputil.Text(w, http.StatusServiceUnavailable, c.name+" unavailable")
			return
		}
	}
	httputil.Text(w, http.StatusOK, "OK")
}

func versionInfo(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func openAPIDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openapi.Document)
}

const docsPage = `<!DOCTYPE html>
<html>
<head>
  <title>Pharmacy API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: "/api/openapi.yaml", dom_id: "#swagger-ui"});
  </script>
</body>
</html>`

func apiDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsPage))
}
