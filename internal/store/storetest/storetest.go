// Package storetest holds the behaviour every store.Store backend must share.
// Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/alphabot-ai/devconnect/internal/model"
	"github.com/alphabot-ai/devconnect/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. The store is closed by the suite.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, st store.Store)
	}{
		{"UserLifecycle", testUserLifecycle},
		{"DuplicateEmail", testDuplicateEmail},
		{"PostLifecycle", testPostLifecycle},
		{"ListNewestFirst", testListNewestFirst},
		{"MalformedIDs", testMalformedIDs},
		{"LikeUnlike", testLikeUnlike},
		{"Comments", testComments},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := newStore(t)
			t.Cleanup(func() { _ = st.Close() })
			tc.fn(t, st)
		})
	}
}

func newUser(t *testing.T, st store.Store, email string) model.User {
	t.Helper()
	u := model.User{Name: "User " + email, Email: email, Password: "hash", Avatar: "//avatar/" + email}
	require.NoError(t, st.CreateUser(context.Background(), &u))
	require.NotEmpty(t, u.ID)
	return u
}

func newPost(t *testing.T, st store.Store, author model.User, text string) model.Post {
	t.Helper()
	p := model.Post{User: author.ID, Text: text, Name: author.Name, Avatar: author.Avatar}
	require.NoError(t, st.CreatePost(context.Background(), &p))
	require.NotEmpty(t, p.ID)
	return p
}

func testUserLifecycle(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := newUser(t, st, "a@b.com")
	assert.False(t, u.Date.IsZero())

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, "hash", got.Password)
	assert.Equal(t, u.Avatar, got.Avatar)

	byEmail, err := st.FindUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = st.FindUserByEmail(ctx, "missing@b.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicateEmail(t *testing.T, st store.Store) {
	newUser(t, st, "dup@b.com")
	u := model.User{Name: "Other", Email: "dup@b.com", Password: "hash"}
	err := st.CreateUser(context.Background(), &u)
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func testPostLifecycle(t *testing.T, st store.Store) {
	ctx := context.Background()
	author := newUser(t, st, "author@b.com")
	p := newPost(t, st, author, "hello world")

	got, err := st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Text)
	assert.Equal(t, author.ID, got.User)
	assert.Equal(t, author.Name, got.Name)
	assert.NotNil(t, got.Likes)
	assert.NotNil(t, got.Comments)

	require.NoError(t, st.DeletePost(ctx, p.ID))
	_, err = st.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeletePost(ctx, p.ID), store.ErrNotFound)
}

func testListNewestFirst(t *testing.T, st store.Store) {
	ctx := context.Background()
	author := newUser(t, st, "list@b.com")
	first := newPost(t, st, author, "first")
	second := newPost(t, st, author, "second")
	third := newPost(t, st, author, "third")

	_, err := st.AddLike(ctx, second.ID, author.ID)
	require.NoError(t, err)

	posts, err := st.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{posts[0].ID, posts[1].ID, posts[2].ID})
	assert.Len(t, posts[1].Likes, 1)
	assert.Empty(t, posts[0].Likes)
}

func testMalformedIDs(t *testing.T, st store.Store) {
	ctx := context.Background()
	author := newUser(t, st, "malformed@b.com")

	_, err := st.GetPost(ctx, "123")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetUser(ctx, "not-an-id")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeletePost(ctx, "zzz"), store.ErrNotFound)
	_, err = st.AddLike(ctx, "zzz", author.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.RemoveLike(ctx, "zzz", author.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.AddComment(ctx, "zzz", &model.Comment{User: author.ID, Text: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.RemoveComment(ctx, "zzz", "yyy")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testLikeUnlike(t *testing.T, st store.Store) {
	ctx := context.Background()
	author := newUser(t, st, "liker1@b.com")
	other := newUser(t, st, "liker2@b.com")
	p := newPost(t, st, author, "like me")

	likes, err := st.AddLike(ctx, p.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Like{{User: author.ID}}, likes)

	likes, err = st.AddLike(ctx, p.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Like{{User: other.ID}, {User: author.ID}}, likes)

	_, err = st.AddLike(ctx, p.ID, author.ID)
	assert.True(t, errors.Is(err, store.ErrAlreadyLiked), "got %v", err)

	got, err := st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Likes, 2)

	likes, err = st.RemoveLike(ctx, p.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Like{{User: other.ID}}, likes)

	_, err = st.RemoveLike(ctx, p.ID, author.ID)
	assert.ErrorIs(t, err, store.ErrNotLiked)

	got, err = st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Like{{User: other.ID}}, got.Likes)
}

func testComments(t *testing.T, st store.Store) {
	ctx := context.Background()
	author := newUser(t, st, "commenter1@b.com")
	other := newUser(t, st, "commenter2@b.com")
	p := newPost(t, st, author, "discuss")

	c1 := model.Comment{User: author.ID, Text: "first", Name: author.Name, Avatar: author.Avatar}
	post, err := st.AddComment(ctx, p.ID, &c1)
	require.NoError(t, err)
	require.NotEmpty(t, c1.ID)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, c1.ID, post.Comments[0].ID)
	assert.Equal(t, author.Name, post.Comments[0].Name)

	c2 := model.Comment{User: other.ID, Text: "second"}
	post, err = st.AddComment(ctx, p.ID, &c2)
	require.NoError(t, err)
	require.Len(t, post.Comments, 2)
	assert.Equal(t, c2.ID, post.Comments[0].ID, "newest comment first")

	c3 := model.Comment{User: author.ID, Text: "third"}
	_, err = st.AddComment(ctx, p.ID, &c3)
	require.NoError(t, err)

	// Removing c1 must not touch c3, which has the same author.
	comments, err := st.RemoveComment(ctx, p.ID, c1.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, c3.ID, comments[0].ID)
	assert.Equal(t, c2.ID, comments[1].ID)

	_, err = st.RemoveComment(ctx, p.ID, c1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
