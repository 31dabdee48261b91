package gateway

import (
	"context"
	"errors"

	"github.com/ensp1re/Gigmee/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

// LoggedInUsersKey is the fixed cache key holding the presence list.
const LoggedInUsersKey = "loggedInUsers"

// Cache backs the gateway's presence list and per-user browse state with
// Redis. Every operation degrades instead of failing: on a cache error the
// presence methods log and return an empty list, so the rest of the gateway
// keeps serving even when users are in fact online.
type Cache struct {
	client *goredis.Client
	log    *logger.Logger
}

func NewCache(client *goredis.Client, log *logger.Logger) *Cache {
	return &Cache{client: client, log: log}
}

// SaveLoggedInUser adds a username to the presence list and returns the
// updated list. Membership is checked first so a username appears at most
// once regardless of how many times it logs in.
func (c *Cache) SaveLoggedInUser(ctx context.Context, key, username string) []string {
	_, err := c.client.LPos(ctx, key, username, goredis.LPosArgs{}).Result()
	if errors.Is(err, goredis.Nil) {
		if err := c.client.LPush(ctx, key, username).Err(); err != nil {
			c.log.Errorf("gateway: failed to save logged in user %s: %v", username, err)
			return []string{}
		}
		c.log.Infof("gateway: user %s added to presence list", username)
	} else if err != nil {
		c.log.Errorf("gateway: failed to check presence of %s: %v", username, err)
		return []string{}
	}
	return c.GetLoggedInUsers(ctx, key)
}

// GetLoggedInUsers returns the full presence list.
func (c *Cache) GetLoggedInUsers(ctx context.Context, key string) []string {
	users, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		c.log.Errorf("gateway: failed to read presence list: %v", err)
		return []string{}
	}
	return users
}

// DeleteLoggedInUser removes every occurrence of a username from the presence
// list and returns the updated list.
func (c *Cache) DeleteLoggedInUser(ctx context.Context, key, username string) []string {
	if err := c.client.LRem(ctx, key, 0, username).Err(); err != nil {
		c.log.Errorf("gateway: failed to remove logged in user %s: %v", username, err)
		return []string{}
	}
	c.log.Infof("gateway: user %s removed from presence list", username)
	return c.GetLoggedInUsers(ctx, key)
}

// SaveUserSelectedCategory records the category a user last browsed. Read by
// the recommendation collaborator, write-only here.
func (c *Cache) SaveUserSelectedCategory(ctx context.Context, key, category string) {
	if err := c.client.Set(ctx, key, category, 0).Err(); err != nil {
		c.log.Errorf("gateway: failed to save selected category: %v", err)
	}
}
