package oraclenosql

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/oracle/nosql-go-sdk/nosqldb"
	"github.com/oracle/nosql-go-sdk/nosqldb/types"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Key-value table columns.
const (
	KeyColumn   = "key"
	ValueColumn = "value"
)

// DefaultKeyValueTable is the table used by [Bucket] when none is
// configured.
const DefaultKeyValueTable = "gnosql_bucket"

// Bucket implements [domain.BucketManager] on a table with a STRING key and
// a BINARY value.
type Bucket struct {
	client  *nosqldb.Client
	table   string
	timeout time.Duration
	closed  atomic.Bool
	log     logrus.FieldLogger
}

// NewBucketManager returns a Bucket on cfg.KeyValueTable.
func NewBucketManager(_ context.Context, cfg Config, options ...BucketOption) (*Bucket, error) {
	client, err := connect(cfg)
	if err != nil {
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	table := cfg.KeyValueTable
	if table == "" {
		table = DefaultKeyValueTable
	}
	b := &Bucket{
		client:  client,
		table:   table,
		timeout: cfg.Timeout,
		log:     logrus.StandardLogger(),
	}
	for _, option := range options {
		option(b)
	}
	return b, nil
}

func (b *Bucket) check(ctx context.Context) error {
	if b.closed.Load() {
		return domain.ErrClosed
	}
	return ctx.Err()
}

func (b *Bucket) key(key string) *types.MapValue {
	return types.NewMapValue(map[string]any{KeyColumn: key})
}

// Put implements [domain.BucketManager]. TTLs are rounded up to whole hours.
func (b *Bucket) Put(ctx context.Context, kv domain.KeyValue, options ...domain.PutOption) error {
	return b.PutMany(ctx, []domain.KeyValue{kv}, options...)
}

// PutMany implements [domain.BucketManager].
func (b *Bucket) PutMany(ctx context.Context, kvs []domain.KeyValue, options ...domain.PutOption) error {
	if err := b.check(ctx); err != nil {
		return err
	}
	opts := domain.NewPutOptions(options...)
	for _, kv := range kvs {
		v, err := domain.EncodeValue(kv.Value)
		if err != nil {
			return err
		}
		b.log.WithFields(logrus.Fields{"driver": Driver, "key": kv.Key, "ttl": opts.TTL}).Debug("put")
		_, err = b.client.Put(&nosqldb.PutRequest{
			TableName: b.table,
			Value:     types.NewMapValue(map[string]any{KeyColumn: kv.Key, ValueColumn: []byte(v)}),
			TTL:       timeToLive(opts.TTL),
			Timeout:   b.timeout,
		})
		if err != nil {
			return domain.WrapDriver(Driver, "put", err)
		}
	}
	return nil
}

// Get implements [domain.BucketManager].
func (b *Bucket) Get(ctx context.Context, key string) (domain.Value, error) {
	if err := b.check(ctx); err != nil {
		return nil, err
	}
	res, err := b.client.Get(&nosqldb.GetRequest{
		TableName: b.table,
		Key:       b.key(key),
		Timeout:   b.timeout,
	})
	if err != nil {
		return nil, domain.WrapDriver(Driver, "get", err)
	}
	if !res.RowExists() {
		return nil, domain.ErrNotFound
	}
	raw, _ := res.Value.Map()[ValueColumn].([]byte)
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
	if err := b.check(ctx); err != nil {
		return err
	}
	for _, key := range keys {
		_, err := b.client.Delete(&nosqldb.DeleteRequest{
			TableName: b.table,
			Key:       b.key(key),
			Timeout:   b.timeout,
		})
		if err != nil {
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
	return domain.WrapDriver(Driver, "close", b.client.Close())
}
