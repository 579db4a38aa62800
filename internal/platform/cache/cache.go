// Package cache keeps each user's task list in Redis so repeated board loads
// skip the database. Entries are evicted whenever the user's board changes.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/platform/logger"
)

// TaskListCache is a Redis-backed cache of per-user task lists. A nil
// client or zero TTL turns every operation into a miss or no-op.
type TaskListCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewTaskListCache creates a cache using client. Negative TTLs are treated
// as zero.
func NewTaskListCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *TaskListCache {
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskListCache{
		redis:  client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "task_list_cache")),
	}
}

// Connect parses url, pings the server and returns a ready client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func tasksKey(userID uuid.UUID) string {
	return "tasks:" + userID.String()
}

// genKey counts evictions for a user. A list read from the database is only
// stored if no eviction happened since the miss that triggered the read.
func genKey(userID uuid.UUID) string {
	return "tasks:gen:" + userID.String()
}

// fillScript writes KEYS[1] only while KEYS[2] still holds ARGV[1]; an
// absent generation matches the empty string.
var fillScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if (gen or '') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Get returns the cached list for userID. On a miss it also returns the
// generation to hand back to Set once the caller has loaded the list.
// Undecodable entries are dropped and reported as a miss; so are Redis
// failures.
func (c *TaskListCache) Get(ctx context.Context, userID uuid.UUID) ([]domain.Task, string, bool) {
	if c.redis == nil {
		return nil, "", false
	}
	key := tasksKey(userID)
	// Read the entry and its generation in one round trip
	vals, err := c.redis.MGet(ctx, key, genKey(userID)).Result()
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("task cache read failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		_ = c.redis.Del(ctx, key).Err()
		return nil, "", false
	}
	gen, _ := vals[1].(string)
	data, ok := vals[0].(string)
	if !ok {
		return nil, gen, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal([]byte(data), &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, gen, false
	}
	return tasks, gen, true
}

// Set stores tasks for userID with the configured TTL, unless the list was
// evicted after gen was read. gen is the value returned by the Get miss.
func (c *TaskListCache) Set(ctx context.Context, userID uuid.UUID, gen string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	keys := []string{tasksKey(userID), genKey(userID)}
	stored, err := fillScript.Run(ctx, c.redis, keys, gen, data, c.ttl.Milliseconds()).Int()
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("task cache write failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return
	}
	if stored == 0 {
		logger.FromContextOrDefault(ctx, c.logger).Debug("task cache fill skipped after eviction",
			slog.String("user_id", userID.String()))
	}
}

// Evict removes the cached list for userID and bumps its generation so
// reads already in flight cannot store what they loaded.
func (c *TaskListCache) Evict(ctx context.Context, userID uuid.UUID) error {
	if c.redis == nil {
		return nil
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, tasksKey(userID))
		pipe.Incr(ctx, genKey(userID))
		return nil
	})
	return err
}

// HandleEvent implements events.EventHandler by evicting the affected
// user's list.
func (c *TaskListCache) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	if err := c.Evict(ctx, event.UserID); err != nil {
		return err
	}
	logger.FromContextOrDefault(ctx, c.logger).Debug("task cache evicted",
		slog.String("user_id", event.UserID.String()),
		slog.String("event_type", string(event.Type)))
	return nil
}

var _ events.EventHandler = (*TaskListCache)(nil)
