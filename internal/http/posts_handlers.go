package httpapp

import (
	"net/http"
	"strings"
)

// handleCreatePost godoc
//
//	@Summary		Create a post
//	@Description	Publish a post as the current user. Name and avatar are copied from the user.
//	@Tags			Posts
//	@Accept			json
//	@Produce		json
//	@Security		TokenAuth
//	@Param			post	body		textRequest	true	"Post text"
//	@Success		200		{object}	model.Post
//	@Failure		400		{object}	errorsResponse
//	@Failure		401		{object}	msgResponse
//	@Failure		429		{object}	rateLimitResponse
//	@Router			/api/posts [post]
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeAndCheck(w, r, &req, func() { req.Text = strings.TrimSpace(req.Text) }) {
		return
	}
	userID := currentUser(r)
	if !s.allowRateLimit(w, "post", userID, s.cfg.RateLimits.PostPerMinute) {
		return
	}

	post, err := s.posts.Create(r.Context(), userID, req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleListPosts godoc
//
//	@Summary		List posts
//	@Description	All posts, newest first.
//	@Tags			Posts
//	@Produce		json
//	@Security		TokenAuth
//	@Success		200	{array}		model.Post
//	@Failure		401	{object}	msgResponse
//	@Router			/api/posts [get]
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	list, err := s.posts.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetPost godoc
//
//	@Summary		Get a post
//	@Tags			Posts
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	model.Post
//	@Failure		401	{object}	msgResponse
//	@Failure		404	{object}	msgResponse	"Post not found"
//	@Router			/api/posts/{id} [get]
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request, id string) {
	post, err := s.posts.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleDeletePost godoc
//
//	@Summary		Delete a post
//	@Description	Only the author may delete a post.
//	@Tags			Posts
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	msgResponse	"Post removed"
//	@Failure		401	{object}	msgResponse	"User not authorized"
//	@Failure		404	{object}	msgResponse	"Post not found"
//	@Router			/api/posts/{id} [delete]
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.posts.Delete(r.Context(), currentUser(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMsg(w, http.StatusOK, "Post removed")
}

// handleLikePost godoc
//
//	@Summary		Like a post
//	@Tags			Likes
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{array}		model.Like
//	@Failure		400	{object}	msgResponse	"Post already liked"
//	@Failure		404	{object}	msgResponse	"Post not found"
//	@Router			/api/posts/like/{id} [put]
func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request, id string) {
	likes, err := s.posts.Like(r.Context(), currentUser(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

// handleUnlikePost godoc
//
//	@Summary		Unlike a post
//	@Tags			Likes
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{array}		model.Like
//	@Failure		400	{object}	msgResponse	"Post has not yet been liked"
//	@Failure		404	{object}	msgResponse	"Post not found"
//	@Router			/api/posts/unlike/{id} [put]
func (s *Server) handleUnlikePost(w http.ResponseWriter, r *http.Request, id string) {
	likes, err := s.posts.Unlike(r.Context(), currentUser(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

// handleCreateComment godoc
//
//	@Summary		Comment on a post
//	@Description	Adds the comment at the top of the post's comment list and returns the whole post.
//	@Tags			Comments
//	@Accept			json
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id		path		string		true	"Post ID"
//	@Param			comment	body		textRequest	true	"Comment text"
//	@Success		200		{object}	model.Post
//	@Failure		400		{object}	errorsResponse
//	@Failure		404		{object}	msgResponse	"Post not found"
//	@Failure		429		{object}	rateLimitResponse
//	@Router			/api/posts/comment/{id} [post]
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request, id string) {
	var req textRequest
	if !s.decodeAndCheck(w, r, &req, func() { req.Text = strings.TrimSpace(req.Text) }) {
		return
	}
	userID := currentUser(r)
	if !s.allowRateLimit(w, "comment", userID, s.cfg.RateLimits.CommentPerMinute) {
		return
	}

	post, err := s.posts.Comment(r.Context(), userID, id, req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleDeleteComment godoc
//
//	@Summary		Delete a comment
//	@Description	Only the comment's author may delete it.
//	@Tags			Comments
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id			path		string	true	"Post ID"
//	@Param			comment_id	path		string	true	"Comment ID"
//	@Success		200			{array}		model.Comment
//	@Failure		401			{object}	msgResponse	"User not authorized"
//	@Failure		404			{object}	msgResponse	"Post not found or comment does not exist"
//	@Router			/api/posts/comment/{id}/{comment_id} [delete]
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request, postID, commentID string) {
	comments, err := s.posts.Uncomment(r.Context(), currentUser(r), postID, commentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}
