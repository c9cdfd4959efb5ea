package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vinodhj/cf-jwt-auth/internal/kv"
	"github.com/vinodhj/cf-jwt-auth/internal/obs"
	"github.com/vinodhj/cf-jwt-auth/internal/policy"
	"github.com/vinodhj/cf-jwt-auth/internal/session"
)

// ReadyProbe pings the backing database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Params bundles the API dependencies and edge settings.
type Params struct {
	Sessions *session.Service
	Policy   policy.Evaluator
	Assets   kv.Store
	Ready    ReadyProbe
	Version  string

	// ProjectToken gates every /v1 request; empty means reject all.
	ProjectToken string

	RateLimitPerSecond int
	RateLimitBurst     int
	MaxBodyBytes       int64
}

// API is the HTTP layer.
type API struct {
	mux          *http.ServeMux
	sessions     *session.Service
	policy       policy.Evaluator
	assets       kv.Store
	readyProbe   ReadyProbe
	projectToken string
	version      string

	rateLimitPerSecond int
	rateLimitBurst     int
	maxBodyBytes       int64
}

func New(p Params) *API {
	a := &API{
		mux:                http.NewServeMux(),
		sessions:           p.Sessions,
		policy:             p.Policy,
		assets:             p.Assets,
		readyProbe:         p.Ready,
		projectToken:       p.ProjectToken,
		version:            p.Version,
		rateLimitPerSecond: p.RateLimitPerSecond,
		rateLimitBurst:     p.RateLimitBurst,
		maxBodyBytes:       p.MaxBodyBytes,
	}
	if a.rateLimitPerSecond <= 0 {
		a.rateLimitPerSecond = 20
	}
	if a.rateLimitBurst <= 0 {
		a.rateLimitBurst = 40
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 1 << 20
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/v1/auth/signup", a.handleSignUp)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/change-password", a.handleChangePassword)

	// users + kv assets
	a.mux.HandleFunc("/v1/users", a.handleUsers)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)
	a.mux.HandleFunc("/v1/kv/", a.handleKVAsset)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withAuth(h)
	h = a.withProjectToken(h)
	h = RateLimit(h, a.rateLimitBurst, a.rateLimitPerSecond)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "cf-jwt-auth",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.readyProbe.Check(ctx); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
