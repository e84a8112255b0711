// Package posts holds the rules around posts: who may delete what, and when
// a like or comment is accepted.
package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/alphabot-ai/devconnect/internal/model"
	"github.com/alphabot-ai/devconnect/internal/store"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment does not exist")
	ErrNotAuthorized   = errors.New("user not authorized")
	ErrAlreadyLiked    = errors.New("post already liked")
	ErrNotLiked        = errors.New("post has not yet been liked")
	ErrUnknownUser     = errors.New("user not found")
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Create publishes text as userID, snapshotting the author's name and avatar.
func (s *Service) Create(ctx context.Context, userID, text string) (model.Post, error) {
	author, err := s.author(ctx, userID)
	if err != nil {
		return model.Post{}, err
	}
	post := model.Post{
		User:   author.ID,
		Text:   text,
		Name:   author.Name,
		Avatar: author.Avatar,
	}
	if err := s.store.CreatePost(ctx, &post); err != nil {
		return model.Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (s *Service) List(ctx context.Context) ([]model.Post, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return model.Post{}, mapNotFound(err, "get post")
	}
	return post, nil
}

// Delete removes the post if userID wrote it.
func (s *Service) Delete(ctx context.Context, userID, postID string) error {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.User != userID {
		return ErrNotAuthorized
	}
	if err := s.store.DeletePost(ctx, postID); err != nil {
		return mapNotFound(err, "delete post")
	}
	return nil
}

func (s *Service) Like(ctx context.Context, userID, postID string) ([]model.Like, error) {
	likes, err := s.store.AddLike(ctx, postID, userID)
	switch {
	case err == nil:
		return likes, nil
	case errors.Is(err, store.ErrAlreadyLiked):
		return nil, ErrAlreadyLiked
	default:
		return nil, mapNotFound(err, "like post")
	}
}

func (s *Service) Unlike(ctx context.Context, userID, postID string) ([]model.Like, error) {
	likes, err := s.store.RemoveLike(ctx, postID, userID)
	switch {
	case err == nil:
		return likes, nil
	case errors.Is(err, store.ErrNotLiked):
		return nil, ErrNotLiked
	default:
		return nil, mapNotFound(err, "unlike post")
	}
}

// Comment prepends a comment by userID and returns the updated post.
func (s *Service) Comment(ctx context.Context, userID, postID, text string) (model.Post, error) {
	author, err := s.author(ctx, userID)
	if err != nil {
		return model.Post{}, err
	}
	c := model.Comment{
		User:   author.ID,
		Text:   text,
		Name:   author.Name,
		Avatar: author.Avatar,
	}
	post, err := s.store.AddComment(ctx, postID, &c)
	if err != nil {
		return model.Post{}, mapNotFound(err, "add comment")
	}
	return post, nil
}

// Uncomment removes commentID from the post if userID wrote it and returns
// the remaining comments.
func (s *Service) Uncomment(ctx context.Context, userID, postID, commentID string) ([]model.Comment, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	c, ok := post.FindComment(commentID)
	if !ok {
		return nil, ErrCommentNotFound
	}
	if c.User != userID {
		return nil, ErrNotAuthorized
	}
	comments, err := s.store.RemoveComment(ctx, postID, commentID)
	if err != nil {
		// Lost a race with another delete of the same comment.
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("remove comment: %w", err)
	}
	return comments, nil
}

func (s *Service) author(ctx context.Context, userID string) (model.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, ErrUnknownUser
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func mapNotFound(err error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrPostNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
