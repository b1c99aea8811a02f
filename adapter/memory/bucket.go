package memory

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/timegetter"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/ctxsync"
)

type entry struct {
	value   domain.Value
	expires time.Time
}

// Bucket implements [domain.BucketManager].
type Bucket struct {
	cfg        Config
	mu         *ctxsync.Mutex
	entries    map[string]entry
	closed     bool
	log        logrus.FieldLogger
	timeGetter domain.TimeGetter
}

// NewBucketManager returns a new implementation of [domain.BucketManager].
func NewBucketManager(cfg Config, options ...BucketOption) domain.BucketManager {
	b := &Bucket{
		cfg:        cfg,
		mu:         ctxsync.NewMutex(),
		entries:    make(map[string]entry),
		log:        logrus.StandardLogger(),
		timeGetter: timegetter.NewTimeGetter(),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func (b *Bucket) lock(ctx context.Context) error {
	if err := b.mu.LockWithContext(ctx); err != nil {
		return err
	}
	if b.closed {
		b.mu.Unlock()
		return domain.ErrClosed
	}
	return nil
}

// Put implements [domain.BucketManager].
func (b *Bucket) Put(ctx context.Context, kv domain.KeyValue, options ...domain.PutOption) error {
	return b.PutMany(ctx, []domain.KeyValue{kv}, options...)
}

// PutMany implements [domain.BucketManager].
func (b *Bucket) PutMany(ctx context.Context, kvs []domain.KeyValue, options ...domain.PutOption) error {
	opts := domain.NewPutOptions(options...)
	ttl := opts.TTL
	if ttl == 0 {
		ttl = b.cfg.DefaultTTL
	}
	encoded := make([]domain.Value, len(kvs))
	for n, kv := range kvs {
		v, err := domain.EncodeValue(kv.Value)
		if err != nil {
			return err
		}
		encoded[n] = v
	}

	if err := b.lock(ctx); err != nil {
		return err
	}
	defer b.mu.Unlock()

	deadline := timegetter.Deadline(b.timeGetter.GetTime(), ttl)
	for n, kv := range kvs {
		b.entries[kv.Key] = entry{value: encoded[n], expires: deadline}
	}
	b.log.WithFields(logrus.Fields{"driver": Driver, "keys": len(kvs), "ttl": ttl}).Debug("put")
	return nil
}

// Get implements [domain.BucketManager].
func (b *Bucket) Get(ctx context.Context, key string) (domain.Value, error) {
	kvs, err := b.GetMany(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(kvs) == 0 {
		return nil, domain.ErrNotFound
	}
	return kvs[0].Value.(domain.Value), nil
}

// GetMany implements [domain.BucketManager]. Values are returned as
// [domain.Value].
func (b *Bucket) GetMany(ctx context.Context, keys ...string) ([]domain.KeyValue, error) {
	if err := b.lock(ctx); err != nil {
		return nil, err
	}
	defer b.mu.Unlock()

	now := b.timeGetter.GetTime()
	var res []domain.KeyValue
	for _, key := range keys {
		e, ok := b.entries[key]
		if !ok {
			continue
		}
		if timegetter.Expired(now, e.expires) {
			delete(b.entries, key)
			continue
		}
		res = append(res, domain.NewKeyValue(key, e.value))
	}
	return res, nil
}

// Delete implements [domain.BucketManager].
func (b *Bucket) Delete(ctx context.Context, keys ...string) error {
	if err := b.lock(ctx); err != nil {
		return err
	}
	defer b.mu.Unlock()
	for _, key := range keys {
		delete(b.entries, key)
	}
	return nil
}

// Close implements [domain.BucketManager].
func (b *Bucket) Close(ctx context.Context) error {
	if err := b.lock(ctx); err != nil {
		return err
	}
	defer b.mu.Unlock()
	b.closed = true
	b.entries = nil
	return nil
}
