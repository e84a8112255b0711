package backend

import (
	"context"
	"testing"

	"github.com/alphabot-ai/devconnect/internal/config"
	"github.com/alphabot-ai/devconnect/internal/model"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	cfg := config.Config{DBDriver: DriverSQLite, DBDSN: "file:backend_open?mode=memory&cache=shared"}
	st, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer st.Close()

	u := model.User{Name: "Ann", Email: "ann@example.com", Password: "x"}
	require.NoError(t, st.CreateUser(context.Background(), &u))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Config{DBDriver: "oracle"})
	require.ErrorContains(t, err, `unknown db driver "oracle"`)
}
