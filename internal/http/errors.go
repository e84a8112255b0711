package httpapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/alphabot-ai/devconnect/internal/auth"
	"github.com/alphabot-ai/devconnect/internal/logging"
	"github.com/alphabot-ai/devconnect/internal/posts"
)

type loggerKey struct{}

func withLogger(ctx context.Context, log logging.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

func (s *Server) logger(ctx context.Context) logging.Logger {
	if log, ok := ctx.Value(loggerKey{}).(logging.Logger); ok {
		return log
	}
	return s.log
}

// writeError maps a service error to its response. Anything unrecognised is
// logged and reported as a bare 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, posts.ErrPostNotFound):
		writeMsg(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, posts.ErrCommentNotFound):
		writeMsg(w, http.StatusNotFound, "Comment does not exist")
	case errors.Is(err, posts.ErrNotAuthorized):
		writeMsg(w, http.StatusUnauthorized, "User not authorized")
	case errors.Is(err, posts.ErrAlreadyLiked):
		writeMsg(w, http.StatusBadRequest, "Post already liked")
	case errors.Is(err, posts.ErrNotLiked):
		writeMsg(w, http.StatusBadRequest, "Post has not yet been liked")
	case errors.Is(err, posts.ErrUnknownUser), errors.Is(err, auth.ErrUnknownUser):
		writeMsg(w, http.StatusUnauthorized, "User not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: []fieldError{{Msg: "Invalid Credentials"}}})
	case errors.Is(err, auth.ErrPasswordTooLong):
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: []fieldError{{Param: "password", Msg: "Password must be 72 characters or fewer"}}})
	case errors.Is(err, auth.ErrUserExists):
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: []fieldError{{Msg: "User already exists"}}})
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger(r.Context()).Error(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"err", err,
	)
	writeMsg(w, http.StatusInternalServerError, "Server error")
}

// decodeAndCheck reads the body into req and validates it, writing the 400
// itself on failure.
func (s *Server) decodeAndCheck(w http.ResponseWriter, r *http.Request, req any, trim func()) bool {
	if err := readJSON(r, w, req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: []fieldError{{Msg: "Invalid request body"}}})
		return false
	}
	if trim != nil {
		trim()
	}
	if errs := s.check(req); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: errs})
		return false
	}
	return true
}
