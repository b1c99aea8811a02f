// Package redis implements [domain.BucketManager] on Redis. A [Bucket] also
// hands out named [Counter] and [SortedSet] structures sharing its client and
// key prefix.
package redis

import (
	"context"
	"errors"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Driver is the name reported in errors and logs.
const Driver = "redis"

// Config configures the Redis adapter. More than one address selects a
// cluster client.
type Config struct {
	Addrs    []string `yaml:"addrs" validate:"nonzero"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	// Prefix is prepended to every key.
	Prefix string `yaml:"prefix"`
}

// Bucket implements [domain.BucketManager].
type Bucket struct {
	client goredis.UniversalClient
	prefix string
	closed atomic.Bool
	log    logrus.FieldLogger
}

// New returns a Bucket connected to cfg.Addrs.
func New(ctx context.Context, cfg Config, options ...Option) (*Bucket, error) {
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	return NewWithClient(client, cfg.Prefix, options...), nil
}

// NewWithClient returns a Bucket on an existing client.
func NewWithClient(client goredis.UniversalClient, prefix string, options ...Option) *Bucket {
	b := &Bucket{
		client: client,
		prefix: prefix,
		log:    logrus.StandardLogger(),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func (b *Bucket) check() error {
	if b.closed.Load() {
		return domain.ErrClosed
	}
	return nil
}

func (b *Bucket) fail(op string, err error) error {
	err = domain.WrapDriver(Driver, op, err)
	b.log.WithError(err).WithField("driver", Driver).Error(op)
	return err
}

func (b *Bucket) key(key string) string {
	return b.prefix + key
}

func (b *Bucket) debug(op string, keys int) {
	b.log.WithFields(logrus.Fields{"driver": Driver, "keys": keys}).Debug(op)
}

// Put implements [domain.BucketManager].
func (b *Bucket) Put(ctx context.Context, kv domain.KeyValue, options ...domain.PutOption) error {
	return b.PutMany(ctx, []domain.KeyValue{kv}, options...)
}

// PutMany implements [domain.BucketManager]. Values are written in a single
// pipeline.
func (b *Bucket) PutMany(ctx context.Context, kvs []domain.KeyValue, options ...domain.PutOption) error {
	if err := b.check(); err != nil {
		return err
	}
	opts := domain.NewPutOptions(options...)
	values := make([]domain.Value, len(kvs))
	for n, kv := range kvs {
		v, err := domain.EncodeValue(kv.Value)
		if err != nil {
			return err
		}
		values[n] = v
	}
	b.debug("put", len(kvs))
	_, err := b.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		for n, kv := range kvs {
			p.Set(ctx, b.key(kv.Key), []byte(values[n]), opts.TTL)
		}
		return nil
	})
	if err != nil {
		return b.fail("put", err)
	}
	return nil
}

// Get implements [domain.BucketManager].
func (b *Bucket) Get(ctx context.Context, key string) (domain.Value, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	b.debug("get", 1)
	raw, err := b.client.Get(ctx, b.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, b.fail("get", err)
	}
	return domain.Value(raw), nil
}

// GetMany implements [domain.BucketManager].
func (b *Bucket) GetMany(ctx context.Context, keys ...string) ([]domain.KeyValue, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	prefixed := make([]string, len(keys))
	for n, k := range keys {
		prefixed[n] = b.key(k)
	}
	b.debug("get many", len(keys))
	values, err := b.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, b.fail("get many", err)
	}
	var res []domain.KeyValue
	for n, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		res = append(res, domain.NewKeyValue(keys[n], domain.Value(s)))
	}
	return res, nil
}

// Delete implements [domain.BucketManager].
func (b *Bucket) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return b.check()
	}
	prefixed := make([]string, len(keys))
	for n, k := range keys {
		prefixed[n] = b.key(k)
	}
	return b.del(ctx, "delete", prefixed...)
}

func (b *Bucket) del(ctx context.Context, op string, keys ...string) error {
	if err := b.check(); err != nil {
		return err
	}
	b.debug(op, len(keys))
	if err := b.client.Del(ctx, keys...).Err(); err != nil {
		return b.fail(op, err)
	}
	return nil
}

// Counter returns the counter stored under name.
func (b *Bucket) Counter(name string) *Counter {
	return &Counter{bucket: b, key: b.key(name)}
}

// SortedSet returns the sorted set stored under name.
func (b *Bucket) SortedSet(name string) *SortedSet {
	return &SortedSet{bucket: b, key: b.key(name)}
}

// Close implements [domain.BucketManager].
func (b *Bucket) Close(context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	return domain.WrapDriver(Driver, "close", b.client.Close())
}
