package httpapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alphabot-ai/devconnect/internal/auth"
	"github.com/alphabot-ai/devconnect/internal/config"
	"github.com/alphabot-ai/devconnect/internal/logging"
	"github.com/alphabot-ai/devconnect/internal/posts"
	"github.com/alphabot-ai/devconnect/internal/rate"

	_ "github.com/alphabot-ai/devconnect/docs" // swagger docs

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// TokenHeader carries the session token on protected requests.
const TokenHeader = "x-auth-token"

// maxBodyBytes caps request bodies; every payload here is a few fields.
const maxBodyBytes = 1 << 20

type Server struct {
	auth     *auth.Service
	posts    *posts.Service
	limiter  rate.Limiter
	log      logging.Logger
	cfg      config.Config
	validate *validator.Validate
}

func NewServer(authSvc *auth.Service, postSvc *posts.Service, limiter rate.Limiter, log logging.Logger, cfg config.Config) *Server {
	return &Server{
		auth:     authSvc,
		posts:    postSvc,
		limiter:  limiter,
		log:      log,
		cfg:      cfg,
		validate: newValidator(),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := r.Header.Get("X-Request-Id")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", reqID)
	rec := &statusRecorder{ResponseWriter: w}
	log := s.log.With("request_id", reqID)

	defer func() {
		if p := recover(); p != nil {
			log.Error(r.Context(), "panic", "method", r.Method, "path", r.URL.Path, "panic", fmt.Sprint(p))
			if !rec.wrote {
				writeMsg(rec, http.StatusInternalServerError, "Server error")
			}
		}
		log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status(),
			"duration", time.Since(start),
		)
	}()

	r = r.WithContext(withLogger(r.Context(), log))
	s.route(rec, r)
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.handleAPI(w, r)
		return
	}
	if strings.HasPrefix(r.URL.Path, "/swagger/") {
		httpSwagger.WrapHandler.ServeHTTP(w, r)
		return
	}
	notFound(w)
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	segments := splitPath(path)

	switch {
	case len(segments) == 1 && segments[0] == "users":
		if r.Method == http.MethodPost {
			s.handleRegister(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "auth":
		if r.Method == http.MethodGet {
			s.requireAuth(s.handleMe)(w, r)
			return
		}
		if r.Method == http.MethodPost {
			s.handleLogin(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "posts":
		if r.Method == http.MethodPost {
			s.requireAuth(s.handleCreatePost)(w, r)
			return
		}
		if r.Method == http.MethodGet {
			s.requireAuth(s.handleListPosts)(w, r)
			return
		}
	case len(segments) == 3 && segments[0] == "posts" && segments[1] == "like":
		if r.Method == http.MethodPut {
			s.requireAuth(withParam(s.handleLikePost, segments[2]))(w, r)
			return
		}
	case len(segments) == 3 && segments[0] == "posts" && segments[1] == "unlike":
		if r.Method == http.MethodPut {
			s.requireAuth(withParam(s.handleUnlikePost, segments[2]))(w, r)
			return
		}
	case len(segments) == 3 && segments[0] == "posts" && segments[1] == "comment":
		if r.Method == http.MethodPost {
			s.requireAuth(withParam(s.handleCreateComment, segments[2]))(w, r)
			return
		}
	case len(segments) == 4 && segments[0] == "posts" && segments[1] == "comment":
		if r.Method == http.MethodDelete {
			postID, commentID := segments[2], segments[3]
			s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
				s.handleDeleteComment(w, r, postID, commentID)
			})(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "posts":
		if r.Method == http.MethodGet {
			s.requireAuth(withParam(s.handleGetPost, segments[1]))(w, r)
			return
		}
		if r.Method == http.MethodDelete {
			s.requireAuth(withParam(s.handleDeletePost, segments[1]))(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "openapi.json":
		if r.Method == http.MethodGet {
			s.serveOpenAPIJSON(w, r)
			return
		}
	}

	notFound(w)
}

func withParam(h func(http.ResponseWriter, *http.Request, string), param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r, param)
	}
}

// requireAuth verifies the x-auth-token header once and hands the user id to
// next through the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(TokenHeader))
		if token == "" {
			writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		userID, err := s.auth.Tokens().Verify(token)
		if err != nil {
			writeMsg(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		next(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	}
}

// currentUser returns the id placed in the context by requireAuth.
func currentUser(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

func (s *Server) serveOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}

// allowRateLimit counts one hit for action under key and writes a 429 when
// the policy is exhausted.
func (s *Server) allowRateLimit(w http.ResponseWriter, action, key string, limit int) bool {
	policy := rate.PerMinute(limit)
	if policy.Disabled() {
		return true
	}
	if ok, retry := s.limiter.Allow(action+":"+key, policy.Limit, policy.Window); !ok {
		writeRateLimit(w, retry)
		return false
	}
	return true
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// readJSON decodes the request body into dest. An empty body leaves dest
// untouched so that validation reports the missing fields. Unknown keys are
// ignored.
func readJSON(r *http.Request, w http.ResponseWriter, dest any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, msgResponse{Msg: msg})
}

func writeRateLimit(w http.ResponseWriter, retry time.Duration) {
	secs := int(retry.Seconds())
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSON(w, http.StatusTooManyRequests, rateLimitResponse{
		Msg:        "rate limit exceeded",
		RetryAfter: secs,
	})
}

func notFound(w http.ResponseWriter) {
	writeMsg(w, http.StatusNotFound, "Not found")
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.wrote {
		return
	}
	r.status = status
	r.wrote = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wrote {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
