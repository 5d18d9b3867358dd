package redis

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"classtask-client/internal/domain"
)

// Store is a Redis-backed implementation of authority.Store. Point balances
// are kept indefinitely; statuses and poll votes carry a TTL so a classroom
// session expires on its own. Keys:
//
//	task:user:{userID}:points  counter
//	task:user:{userID}:status  hash taskID -> status
//	task:poll:{taskID}:votes   hash option -> count
type Store struct {
	client *redis.Client
	ttl    time.Duration
	rnd    *rand.Rand
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Store) AddPoints(ctx context.Context, userID string, delta int) (int, error) {
	total, err := s.client.IncrBy(ctx, s.pointsKey(userID), int64(delta)).Result()
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (s *Store) Points(ctx context.Context, userID string) (int, error) {
	points, err := s.client.Get(ctx, s.pointsKey(userID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return points, nil
}

func (s *Store) RecordVote(ctx context.Context, taskID, option string) error {
	key := s.votesKey(taskID)
	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, key, option, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttlWithJitter())
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Votes(ctx context.Context, taskID string) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, s.votesKey(taskID)).Result()
	if err != nil {
		return nil, err
	}
	votes := make(map[string]int, len(raw))
	for option, countStr := range raw {
		count, err := strconv.Atoi(countStr)
		if err != nil {
			return nil, fmt.Errorf("vote count for %q: %w", option, err)
		}
		votes[option] = count
	}
	return votes, nil
}

func (s *Store) SetStatus(ctx context.Context, userID, taskID string, status domain.TaskStatus) error {
	key := s.statusKey(userID)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, taskID, string(status))
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttlWithJitter())
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Statuses(ctx context.Context, userID string) (map[string]domain.TaskStatus, error) {
	raw, err := s.client.HGetAll(ctx, s.statusKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	statuses := make(map[string]domain.TaskStatus, len(raw))
	for taskID, status := range raw {
		statuses[taskID] = domain.TaskStatus(status)
	}
	return statuses, nil
}

func (s *Store) pointsKey(userID string) string {
	return "task:user:" + userID + ":points"
}

func (s *Store) statusKey(userID string) string {
	return "task:user:" + userID + ":status"
}

func (s *Store) votesKey(taskID string) string {
	return "task:poll:" + taskID + ":votes"
}

func (s *Store) ttlWithJitter() time.Duration {
	// up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
