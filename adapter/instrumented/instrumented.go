// Package instrumented decorates managers with tally metrics. Every call is
// timed and counted by outcome, and the wrapped manager sees the same
// arguments and returns the same results.
package instrumented

import (
	"context"

	"github.com/uber-go/tally/v4"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Manager implements [domain.Manager] around another manager.
type Manager struct {
	next    domain.Manager
	metrics *ManagerMetrics
}

// NewManager wraps next, reporting to scope.
func NewManager(next domain.Manager, scope tally.Scope) *Manager {
	return &Manager{next: next, metrics: NewManagerMetrics(scope)}
}

// Unwrap returns the wrapped manager.
func (m *Manager) Unwrap() domain.Manager { return m.next }

// Insert implements [domain.Manager].
func (m *Manager) Insert(ctx context.Context, entity *domain.Entity, options ...domain.InsertOption) (*domain.Entity, error) {
	sw := m.metrics.Insert.Latency.Start()
	res, err := m.next.Insert(ctx, entity, options...)
	sw.Stop()
	m.metrics.Insert.Count(err)
	return res, err
}

// InsertMany implements [domain.Manager].
func (m *Manager) InsertMany(ctx context.Context, entities []*domain.Entity, options ...domain.InsertOption) ([]*domain.Entity, error) {
	sw := m.metrics.InsertMany.Latency.Start()
	res, err := m.next.InsertMany(ctx, entities, options...)
	sw.Stop()
	m.metrics.InsertMany.Count(err)
	return res, err
}

// Update implements [domain.Manager].
func (m *Manager) Update(ctx context.Context, entity *domain.Entity) (*domain.Entity, error) {
	sw := m.metrics.Update.Latency.Start()
	res, err := m.next.Update(ctx, entity)
	sw.Stop()
	m.metrics.Update.Count(err)
	return res, err
}

// UpdateMany implements [domain.Manager].
func (m *Manager) UpdateMany(ctx context.Context, entities []*domain.Entity) ([]*domain.Entity, error) {
	sw := m.metrics.UpdateMany.Latency.Start()
	res, err := m.next.UpdateMany(ctx, entities)
	sw.Stop()
	m.metrics.UpdateMany.Count(err)
	return res, err
}

// Delete implements [domain.Manager].
func (m *Manager) Delete(ctx context.Context, query domain.DeleteQuery) error {
	sw := m.metrics.Delete.Latency.Start()
	err := m.next.Delete(ctx, query)
	sw.Stop()
	m.metrics.Delete.Count(err)
	return err
}

// Select implements [domain.Manager].
func (m *Manager) Select(ctx context.Context, query domain.SelectQuery) ([]*domain.Entity, error) {
	sw := m.metrics.Select.Latency.Start()
	res, err := m.next.Select(ctx, query)
	sw.Stop()
	m.metrics.Select.Count(err)
	m.metrics.Selected.Inc(int64(len(res)))
	return res, err
}

// Count implements [domain.Manager].
func (m *Manager) Count(ctx context.Context, name string) (int64, error) {
	sw := m.metrics.Count.Latency.Start()
	n, err := m.next.Count(ctx, name)
	sw.Stop()
	m.metrics.Count.Count(err)
	return n, err
}

// Close implements [domain.Manager].
func (m *Manager) Close(ctx context.Context) error {
	sw := m.metrics.Close.Latency.Start()
	err := m.next.Close(ctx)
	sw.Stop()
	m.metrics.Close.Count(err)
	return err
}

// Bucket implements [domain.BucketManager] around another bucket.
type Bucket struct {
	next    domain.BucketManager
	metrics *BucketMetrics
}

// NewBucketManager wraps next, reporting to scope.
func NewBucketManager(next domain.BucketManager, scope tally.Scope) *Bucket {
	return &Bucket{next: next, metrics: NewBucketMetrics(scope)}
}

// Unwrap returns the wrapped bucket.
func (b *Bucket) Unwrap() domain.BucketManager { return b.next }

// Put implements [domain.BucketManager].
func (b *Bucket) Put(ctx context.Context, kv domain.KeyValue, options ...domain.PutOption) error {
	sw := b.metrics.Put.Latency.Start()
	err := b.next.Put(ctx, kv, options...)
	sw.Stop()
	b.metrics.Put.Count(err)
	return err
}

// PutMany implements [domain.BucketManager].
func (b *Bucket) PutMany(ctx context.Context, kvs []domain.KeyValue, options ...domain.PutOption) error {
	sw := b.metrics.PutMany.Latency.Start()
	err := b.next.PutMany(ctx, kvs, options...)
	sw.Stop()
	b.metrics.PutMany.Count(err)
	return err
}

// Get implements [domain.BucketManager].
func (b *Bucket) Get(ctx context.Context, key string) (domain.Value, error) {
	sw := b.metrics.Get.Latency.Start()
	v, err := b.next.Get(ctx, key)
	sw.Stop()
	b.metrics.Get.Count(err)
	return v, err
}

// GetMany implements [domain.BucketManager].
func (b *Bucket) GetMany(ctx context.Context, keys ...string) ([]domain.KeyValue, error) {
	sw := b.metrics.GetMany.Latency.Start()
	kvs, err := b.next.GetMany(ctx, keys...)
	sw.Stop()
	b.metrics.GetMany.Count(err)
	return kvs, err
}

// Delete implements [domain.BucketManager].
func (b *Bucket) Delete(ctx context.Context, keys ...string) error {
	sw := b.metrics.Delete.Latency.Start()
	err := b.next.Delete(ctx, keys...)
	sw.Stop()
	b.metrics.Delete.Count(err)
	return err
}

// Close implements [domain.BucketManager].
func (b *Bucket) Close(ctx context.Context) error {
	sw := b.metrics.Close.Latency.Start()
	err := b.next.Close(ctx)
	sw.Stop()
	b.metrics.Close.Count(err)
	return err
}
