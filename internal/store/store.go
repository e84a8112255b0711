package store

import (
	"context"
	"errors"

	"github.com/alphabot-ai/devconnect/internal/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrAlreadyLiked   = errors.New("already liked")
	ErrNotLiked       = errors.New("not liked")
)

type Store interface {
	UserStore
	PostStore
	Close() error
}

type UserStore interface {
	// CreateUser persists user and fills in its ID and Date.
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
}

// PostStore persists posts together with their likes and comments.
//
// Like, unlike and comment mutations are atomic per post: implementations must
// not read the whole post and write it back.
type PostStore interface {
	// CreatePost persists post and fills in its ID and Date.
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (model.Post, error)
	// ListPosts returns every post, newest first.
	ListPosts(ctx context.Context) ([]model.Post, error)
	DeletePost(ctx context.Context, id string) error

	// AddLike prepends a like by userID. It fails with ErrAlreadyLiked when
	// the user already likes the post.
	AddLike(ctx context.Context, postID, userID string) ([]model.Like, error)
	// RemoveLike drops userID's like. It fails with ErrNotLiked when there is
	// nothing to remove.
	RemoveLike(ctx context.Context, postID, userID string) ([]model.Like, error)

	// AddComment prepends comment, filling in its ID and Date, and returns
	// the updated post.
	AddComment(ctx context.Context, postID string, comment *model.Comment) (model.Post, error)
	// RemoveComment drops the comment with commentID and returns the
	// remaining comments.
	RemoveComment(ctx context.Context, postID, commentID string) ([]model.Comment, error)
}
