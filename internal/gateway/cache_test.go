package gateway

import (
	"context"
	"testing"

	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, logger.NewNop()), mr
}

func TestSaveLoggedInUserIsIdempotent(t *testing.T) {
	req := require.New(t)
	cache, _ := newTestCache(t)
	ctx := context.Background()

	users := cache.SaveLoggedInUser(ctx, LoggedInUsersKey, "alice")
	req.Equal([]string{"alice"}, users)

	// Repeated logins from other tabs must not duplicate the entry.
	users = cache.SaveLoggedInUser(ctx, LoggedInUsersKey, "alice")
	req.Equal([]string{"alice"}, users)

	users = cache.SaveLoggedInUser(ctx, LoggedInUsersKey, "bob")
	req.Len(users, 2)
	req.Contains(users, "alice")
	req.Contains(users, "bob")
}

func TestDeleteLoggedInUserRemovesAllOccurrences(t *testing.T) {
	req := require.New(t)
	cache, mr := newTestCache(t)
	ctx := context.Background()

	// Seed duplicates directly to simulate a list that drifted.
	_, err := mr.Lpush(LoggedInUsersKey, "alice")
	req.NoError(err)
	_, err = mr.Lpush(LoggedInUsersKey, "bob")
	req.NoError(err)
	_, err = mr.Lpush(LoggedInUsersKey, "alice")
	req.NoError(err)

	users := cache.DeleteLoggedInUser(ctx, LoggedInUsersKey, "alice")
	req.Equal([]string{"bob"}, users)
}

func TestGetLoggedInUsersEmptyKey(t *testing.T) {
	cache, _ := newTestCache(t)
	users := cache.GetLoggedInUsers(context.Background(), LoggedInUsersKey)
	require.Empty(t, users)
	require.NotNil(t, users)
}

func TestCacheDegradesToEmptyListOnError(t *testing.T) {
	req := require.New(t)
	cache, mr := newTestCache(t)
	ctx := context.Background()

	mr.Close()

	req.Equal([]string{}, cache.SaveLoggedInUser(ctx, LoggedInUsersKey, "alice"))
	req.Equal([]string{}, cache.GetLoggedInUsers(ctx, LoggedInUsersKey))
	req.Equal([]string{}, cache.DeleteLoggedInUser(ctx, LoggedInUsersKey, "alice"))
}

func TestSaveUserSelectedCategory(t *testing.T) {
	req := require.New(t)
	cache, mr := newTestCache(t)

	cache.SaveUserSelectedCategory(context.Background(), "selectedCategories:alice", "Graphics & Design")

	got, err := mr.Get("selectedCategories:alice")
	req.NoError(err)
	req.Equal("Graphics & Design", got)
}
