package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"teamboard/internal/githubsync"
	"teamboard/internal/notify"
	"teamboard/internal/store"
	"teamboard/internal/workflow"
)

const (
	apiTokenEnvKey       = "TEAMBOARD_API_TOKEN"
	allowRemoteEnvKey    = "TEAMBOARD_ALLOW_REMOTE"
	readHeaderTimeout    = 5 * time.Second
	readTimeout          = 30 * time.Second
	writeTimeout         = 60 * time.Second
	idleTimeout          = 60 * time.Second
	bulkConcurrencyLimit = 1
)

// Server wraps HTTP handlers for the teamboard API.
type Server struct {
	addr        string
	store       *store.Store
	service     *TaskService
	syncEngine  *githubsync.Engine
	logger      *slog.Logger
	apiToken    string
	bulkLimiter chan struct{}
}

// New creates a new server instance. syncEngine may be nil when GitHub
// synchronization is not configured; sync endpoints then report conflict.
func New(addr string, st *store.Store, wf *workflow.Engine, syncEngine *githubsync.Engine, dispatcher notify.Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:        addr,
		store:       st,
		service:     NewTaskService(st, wf, syncEngine, dispatcher, logger),
		syncEngine:  syncEngine,
		logger:      logger,
		apiToken:    strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
		bulkLimiter: make(chan struct{}, bulkConcurrencyLimit),
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.withRequestLogging(s.withAuth(s.routes())),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return server.ListenAndServe()
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// withAuth enforces the bearer token when one is configured. The health
// check stays open and the webhook receiver authenticates with its own
// HMAC signature instead.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiToken == "" ||
			r.URL.Path == "/health" ||
			strings.HasPrefix(r.URL.Path, "/v1/webhooks/") {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) != s.apiToken {
			s.writeErrorReq(w, r, http.StatusUnauthorized,
				unauthorizedCode(fmt.Errorf("invalid or missing api token"), ErrCodeUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) acquireLimiter(limiter chan struct{}, w http.ResponseWriter, r *http.Request, name string) bool {
	if limiter == nil {
		return true
	}
	select {
	case limiter <- struct{}{}:
		return true
	default:
		err := apiError{
			status:  http.StatusTooManyRequests,
			code:    "resource_exhausted",
			errCode: ErrCodeResourceExhausted,
			err:     fmt.Errorf("too many concurrent %s requests", name),
		}
		s.writeErrorReq(w, r, http.StatusTooManyRequests, err)
		return false
	}
}

func (s *Server) releaseLimiter(limiter chan struct{}) {
	if limiter == nil {
		return
	}
	select {
	case <-limiter:
	default:
	}
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
