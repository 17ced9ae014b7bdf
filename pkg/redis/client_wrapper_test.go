package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestClose_ReleasesClient(t *testing.T) {
	orig := GetClient()
	t.Cleanup(func() { SetClient(orig) })

	SetClient(nil)
	require.NoError(t, Close(), "closing without a client is a no-op")

	srv := miniredis.RunT(t)
	c := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	SetClient(c)
	require.NoError(t, pingClient(context.Background(), c))

	require.NoError(t, Close())
	require.ErrorIs(t, pingClient(context.Background(), c), goredis.ErrClosed)
}
