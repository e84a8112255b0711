package httpapp_test

import (
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/alphabot-ai/devconnect/internal/auth"
	"github.com/alphabot-ai/devconnect/internal/client"
	"github.com/alphabot-ai/devconnect/internal/config"
	httpapp "github.com/alphabot-ai/devconnect/internal/http"
	"github.com/alphabot-ai/devconnect/internal/logging"
	"github.com/alphabot-ai/devconnect/internal/posts"
	"github.com/alphabot-ai/devconnect/internal/rate"
	"github.com/alphabot-ai/devconnect/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEndToEndServer(t *testing.T) {
	st, err := sqlite.Open("file:e2e_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer st.Close()

	cfg := config.Config{
		Addr:       ":0",
		JWTSecret:  "e2e-secret",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
		RateLimits: config.RateLimits{LoginPerMinute: 1000, PostPerMinute: 1000, CommentPerMinute: 1000},
	}
	authSvc, err := auth.NewService(st, auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL), cfg.BcryptCost)
	require.NoError(t, err)
	server := httpapp.NewServer(authSvc, posts.NewService(st), rate.NewMemory(), logging.Discard(), cfg)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	httpServer := &http.Server{Handler: server}
	go func() {
		_ = httpServer.Serve(listener)
	}()
	defer httpServer.Close()

	baseURL := "http://" + listener.Addr().String()
	helper := client.NewTestHelper(baseURL)

	alice, err := helper.CreateAuthenticatedClient("Alice")
	require.NoError(t, err)
	bob, err := helper.CreateAuthenticatedClient("Bob")
	require.NoError(t, err)

	me, err := alice.Me()
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)
	assert.Empty(t, me.Password)

	// A fresh client can log back in with the same credentials.
	again := client.New(baseURL)
	require.NoError(t, again.Login(me.Email, "password123"))
	assert.True(t, again.IsAuthenticated())

	err = again.Login(me.Email, "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, client.StatusOf(err))

	post, err := alice.CreatePost("hello from e2e")
	require.NoError(t, err)
	assert.Equal(t, me.ID, post.User)

	likes, err := bob.Like(post.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)

	_, err = bob.Like(post.ID)
	assert.Equal(t, http.StatusBadRequest, client.StatusOf(err))

	commented, err := bob.Comment(post.ID, "nice")
	require.NoError(t, err)
	require.Len(t, commented.Comments, 1)
	commentID := commented.Comments[0].ID

	_, err = alice.Uncomment(post.ID, commentID)
	assert.Equal(t, http.StatusUnauthorized, client.StatusOf(err))

	remaining, err := bob.Uncomment(post.ID, commentID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	likes, err = bob.Unlike(post.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)

	list, err := bob.ListPosts()
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.Equal(t, http.StatusUnauthorized, client.StatusOf(bob.DeletePost(post.ID)))
	require.NoError(t, alice.DeletePost(post.ID))

	_, err = alice.GetPost(post.ID)
	assert.Equal(t, http.StatusNotFound, client.StatusOf(err))

	anon := client.New(baseURL)
	_, err = anon.ListPosts()
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "No token, authorization denied", apiErr.Msg)
}
