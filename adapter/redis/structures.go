package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Counter is an integer stored under a single key.
type Counter struct {
	bucket *Bucket
	key    string
}

// Get returns the current value. A missing counter is zero.
func (c *Counter) Get(ctx context.Context) (int64, error) {
	if err := c.bucket.check(); err != nil {
		return 0, err
	}
	n, err := c.bucket.client.Get(ctx, c.key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, c.bucket.fail("counter get", err)
	}
	return n, nil
}

// Increment adds delta and returns the new value.
func (c *Counter) Increment(ctx context.Context, delta int64) (int64, error) {
	if err := c.bucket.check(); err != nil {
		return 0, err
	}
	n, err := c.bucket.client.IncrBy(ctx, c.key, delta).Result()
	if err != nil {
		return 0, c.bucket.fail("counter increment", err)
	}
	return n, nil
}

// Decrement subtracts delta and returns the new value.
func (c *Counter) Decrement(ctx context.Context, delta int64) (int64, error) {
	return c.Increment(ctx, -delta)
}

// Delete removes the counter.
func (c *Counter) Delete(ctx context.Context) error {
	return c.bucket.del(ctx, "counter delete", c.key)
}

// Ranked is a member of a [SortedSet] with its score.
type Ranked struct {
	Member string
	Score  float64
}

// SortedSet is a set of members ordered by score.
type SortedSet struct {
	bucket *Bucket
	key    string
}

// Add sets the score of member, adding it when missing.
func (s *SortedSet) Add(ctx context.Context, member string, score float64) error {
	if err := s.bucket.check(); err != nil {
		return err
	}
	err := s.bucket.client.ZAdd(ctx, s.key, goredis.Z{Score: score, Member: member}).Err()
	if err != nil {
		return s.bucket.fail("sorted set add", err)
	}
	return nil
}

// Increment adds delta to the score of member and returns the new score.
func (s *SortedSet) Increment(ctx context.Context, member string, delta float64) (float64, error) {
	if err := s.bucket.check(); err != nil {
		return 0, err
	}
	score, err := s.bucket.client.ZIncrBy(ctx, s.key, delta, member).Result()
	if err != nil {
		return 0, s.bucket.fail("sorted set increment", err)
	}
	return score, nil
}

// Score returns the score of member, or [domain.ErrNotFound].
func (s *SortedSet) Score(ctx context.Context, member string) (float64, error) {
	if err := s.bucket.check(); err != nil {
		return 0, err
	}
	score, err := s.bucket.client.ZScore(ctx, s.key, member).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, s.bucket.fail("sorted set score", err)
	}
	return score, nil
}

// Remove deletes members. Missing members are ignored.
func (s *SortedSet) Remove(ctx context.Context, members ...string) error {
	if err := s.bucket.check(); err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for n, m := range members {
		args[n] = m
	}
	if err := s.bucket.client.ZRem(ctx, s.key, args...).Err(); err != nil {
		return s.bucket.fail("sorted set remove", err)
	}
	return nil
}

// Size returns the number of members.
func (s *SortedSet) Size(ctx context.Context) (int64, error) {
	if err := s.bucket.check(); err != nil {
		return 0, err
	}
	n, err := s.bucket.client.ZCard(ctx, s.key).Result()
	if err != nil {
		return 0, s.bucket.fail("sorted set size", err)
	}
	return n, nil
}

// Range returns members ranked from start to stop, inclusive, by ascending
// score. Negative ranks count from the end.
func (s *SortedSet) Range(ctx context.Context, start, stop int64) ([]Ranked, error) {
	return s.rank(ctx, "sorted set range", goredis.ZRangeArgs{Key: s.key, Start: start, Stop: stop})
}

// RevRange is [SortedSet.Range] by descending score.
func (s *SortedSet) RevRange(ctx context.Context, start, stop int64) ([]Ranked, error) {
	return s.rank(ctx, "sorted set rev range", goredis.ZRangeArgs{Key: s.key, Start: start, Stop: stop, Rev: true})
}

func (s *SortedSet) rank(ctx context.Context, op string, args goredis.ZRangeArgs) ([]Ranked, error) {
	if err := s.bucket.check(); err != nil {
		return nil, err
	}
	zs, err := s.bucket.client.ZRangeArgsWithScores(ctx, args).Result()
	if err != nil {
		return nil, s.bucket.fail(op, err)
	}
	res := make([]Ranked, len(zs))
	for n, z := range zs {
		member, _ := z.Member.(string)
		res[n] = Ranked{Member: member, Score: z.Score}
	}
	return res, nil
}

// Delete removes the whole set.
func (s *SortedSet) Delete(ctx context.Context) error {
	return s.bucket.del(ctx, "sorted set delete", s.key)
}
