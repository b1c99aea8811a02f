package couchbase

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/couchbase/gocb/v2"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Bucket implements [domain.BucketManager] on a single collection. Values
// are stored as raw binary documents.
type Bucket struct {
	cluster    *gocb.Cluster
	collection *gocb.Collection
	transcoder gocb.Transcoder
	closed     atomic.Bool
	log        logrus.FieldLogger
}

// NewBucketManager connects to the cluster and returns a Bucket on
// cfg.KeyValueCollection of cfg.Scope.
func NewBucketManager(_ context.Context, cfg Config, options ...BucketOption) (*Bucket, error) {
	cluster, bucket, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	name := cfg.KeyValueCollection
	if name == "" {
		name = "_default"
	}
	b := &Bucket{
		cluster:    cluster,
		collection: bucket.Scope(cfg.scope()).Collection(name),
		transcoder: gocb.NewRawBinaryTranscoder(),
		log:        logrus.StandardLogger(),
	}
	for _, option := range options {
		option(b)
	}
	return b, nil
}

func (b *Bucket) check() error {
	if b.closed.Load() {
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
	if err := b.check(); err != nil {
		return err
	}
	opts := domain.NewPutOptions(options...)
	for _, kv := range kvs {
		v, err := domain.EncodeValue(kv.Value)
		if err != nil {
			return err
		}
		b.log.WithFields(logrus.Fields{"driver": Driver, "key": kv.Key, "ttl": opts.TTL}).Debug("put")
		_, err = b.collection.Upsert(kv.Key, []byte(v), &gocb.UpsertOptions{
			Expiry:     opts.TTL,
			Transcoder: b.transcoder,
			Context:    ctx,
		})
		if err != nil {
			return domain.WrapDriver(Driver, "put", err)
		}
	}
	return nil
}

// Get implements [domain.BucketManager].
func (b *Bucket) Get(ctx context.Context, key string) (domain.Value, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	res, err := b.collection.Get(key, &gocb.GetOptions{Transcoder: b.transcoder, Context: ctx})
	if errors.Is(err, gocb.ErrDocumentNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.WrapDriver(Driver, "get", err)
	}
	var raw []byte
	if err := res.Content(&raw); err != nil {
		return nil, domain.WrapDriver(Driver, "get", err)
	}
	return domain.Value(raw), nil
}

// GetMany implements [domain.BucketManager].
func (b *Bucket) GetMany(ctx context.Context, keys ...string) ([]domain.KeyValue, error) {
	var res []domain.KeyValue
	for _, key := range keys {
		v, err := b.Get(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res = append(res, domain.NewKeyValue(key, v))
	}
	return res, nil
}

// Delete implements [domain.BucketManager].
func (b *Bucket) Delete(ctx context.Context, keys ...string) error {
	if err := b.check(); err != nil {
		return err
	}
	for _, key := range keys {
		_, err := b.collection.Remove(key, &gocb.RemoveOptions{Context: ctx})
		if err != nil && !errors.Is(err, gocb.ErrDocumentNotFound) {
			return domain.WrapDriver(Driver, "delete", err)
		}
	}
	return nil
}

// Close implements [domain.BucketManager].
func (b *Bucket) Close(context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	return domain.WrapDriver(Driver, "close", b.cluster.Close(nil))
}
