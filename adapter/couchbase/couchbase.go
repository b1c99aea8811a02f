// Package couchbase implements [domain.Manager] and [domain.BucketManager] on
// top of gocb. Every entity name is a collection of the configured scope and
// conditions are lowered into N1QL with named parameters.
package couchbase

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Driver is the name reported in errors and logs.
const Driver = "couchbase"

// IDElement is the element holding the document key.
const IDElement = "_id"

// Config configures the Couchbase adapters.
type Config struct {
	ConnectionString string        `yaml:"connection_string" validate:"nonzero"`
	Username         string        `yaml:"username"`
	Password         string        `yaml:"password"`
	Bucket           string        `yaml:"bucket" validate:"nonzero"`
	Scope            string        `yaml:"scope"`
	ReadyTimeout     time.Duration `yaml:"ready_timeout"`
	// KeyValueCollection is the collection used by [Bucket].
	KeyValueCollection string `yaml:"key_value_collection"`
}

func (c Config) scope() string {
	if c.Scope == "" {
		return "_default"
	}
	return c.Scope
}

func connect(cfg Config) (*gocb.Cluster, *gocb.Bucket, error) {
	cluster, err := gocb.Connect(cfg.ConnectionString, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, nil, domain.WrapDriver(Driver, "connect", err)
	}
	bucket := cluster.Bucket(cfg.Bucket)
	timeout := cfg.ReadyTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if err := bucket.WaitUntilReady(timeout, nil); err != nil {
		_ = cluster.Close(nil)
		return nil, nil, domain.WrapDriver(Driver, "connect", err)
	}
	return cluster, bucket, nil
}

// Manager implements [domain.Manager].
type Manager struct {
	cluster     *gocb.Cluster
	bucket      string
	scope       *gocb.Scope
	closed      atomic.Bool
	log         logrus.FieldLogger
	idGenerator domain.IDGenerator
}

// New connects to the cluster and returns a Manager on cfg.Scope.
func New(_ context.Context, cfg Config, options ...Option) (*Manager, error) {
	cluster, bucket, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		cluster:     cluster,
		bucket:      cfg.Bucket,
		scope:       bucket.Scope(cfg.scope()),
		log:         logrus.StandardLogger(),
		idGenerator: idgenerator.NewIDGenerator(),
	}
	for _, option := range options {
		option(m)
	}
	return m, nil
}

func (m *Manager) check() error {
	if m.closed.Load() {
		return domain.ErrClosed
	}
	return nil
}

func (m *Manager) fail(op string, err error) error {
	err = domain.WrapDriver(Driver, op, err)
	m.log.WithError(err).WithField("driver", Driver).Error(op)
	return err
}

func (m *Manager) keyspace(name string) string {
	return Keyspace(m.bucket, m.scope.Name(), name)
}

func document(e *domain.Entity) map[string]any {
	doc := e.Map()
	delete(doc, IDElement)
	return doc
}

// Insert implements [domain.Manager]. A TTL becomes the document expiry.
func (m *Manager) Insert(ctx context.Context, entity *domain.Entity, options ...domain.InsertOption) (*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := domain.ValidateEntity(entity); err != nil {
		return nil, err
	}
	c := entity.Clone()
	id, ok := c.Value(IDElement).(string)
	if !ok {
		var err error
		if id, err = m.idGenerator.GenerateID(); err != nil {
			return nil, err
		}
		c.Add(IDElement, id)
	}
	opts := domain.NewInsertOptions(options...)
	m.log.WithFields(logrus.Fields{"driver": Driver, "collection": c.Name(), "key": id}).Debug("insert")
	_, err := m.scope.Collection(c.Name()).Insert(id, document(c), &gocb.InsertOptions{
		Expiry:  opts.TTL,
		Context: ctx,
	})
	if errors.Is(err, gocb.ErrDocumentExists) {
		return nil, domain.ErrDuplicateID
	}
	if err != nil {
		return nil, m.fail("insert", err)
	}
	return c, nil
}

// InsertMany implements [domain.Manager].
func (m *Manager) InsertMany(ctx context.Context, entities []*domain.Entity, options ...domain.InsertOption) ([]*domain.Entity, error) {
	res := make([]*domain.Entity, len(entities))
	for n, e := range entities {
		stored, err := m.Insert(ctx, e, options...)
		if err != nil {
			return nil, err
		}
		res[n] = stored
	}
	return res, nil
}

// Update implements [domain.Manager].
func (m *Manager) Update(ctx context.Context, entity *domain.Entity) (*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := domain.ValidateEntity(entity); err != nil {
		return nil, err
	}
	id, ok := entity.Value(IDElement).(string)
	if !ok {
		return nil, domain.ErrMissingID
	}
	m.log.WithFields(logrus.Fields{"driver": Driver, "collection": entity.Name(), "key": id}).Debug("update")
	_, err := m.scope.Collection(entity.Name()).Replace(id, document(entity), &gocb.ReplaceOptions{Context: ctx})
	if errors.Is(err, gocb.ErrDocumentNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, m.fail("update", err)
	}
	return entity.Clone(), nil
}

// UpdateMany implements [domain.Manager].
func (m *Manager) UpdateMany(ctx context.Context, entities []*domain.Entity) ([]*domain.Entity, error) {
	res := make([]*domain.Entity, len(entities))
	for n, e := range entities {
		u, err := m.Update(ctx, e)
		if err != nil {
			return nil, err
		}
		res[n] = u
	}
	return res, nil
}

// Delete implements [domain.Manager].
func (m *Manager) Delete(ctx context.Context, query domain.DeleteQuery) error {
	if err := m.check(); err != nil {
		return err
	}
	if err := query.Validate(); err != nil {
		return err
	}
	if len(query.Fields) > 0 && !slices.ContainsFunc(query.Fields, func(f string) bool { return f != IDElement }) {
		return nil
	}
	stmt, err := DeleteStatement(m.keyspace(query.Name), query)
	if err != nil {
		return err
	}
	res, err := m.query(ctx, "delete", stmt)
	if err != nil {
		return err
	}
	return res.Close()
}

// Select implements [domain.Manager].
func (m *Manager) Select(ctx context.Context, query domain.SelectQuery) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	stmt, err := SelectStatement(m.keyspace(query.Name), query)
	if err != nil {
		return nil, err
	}
	return m.read(ctx, query.Name, stmt)
}

// Query runs raw N1QL and returns the rows as entities named name.
func (m *Manager) Query(ctx context.Context, name, n1ql string, params map[string]any) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.read(ctx, name, Statement{N1QL: n1ql, Params: params})
}

func (m *Manager) query(ctx context.Context, op string, stmt Statement) (*gocb.QueryResult, error) {
	m.log.WithFields(logrus.Fields{
		"driver":    Driver,
		"statement": stmt.N1QL,
		"params":    len(stmt.Params),
	}).Debug(op)
	res, err := m.scope.Query(stmt.N1QL, &gocb.QueryOptions{
		NamedParameters: stmt.Params,
		Context:         ctx,
	})
	if err != nil {
		return nil, m.fail(op, err)
	}
	return res, nil
}

func (m *Manager) read(ctx context.Context, name string, stmt Statement) ([]*domain.Entity, error) {
	rows, err := m.query(ctx, "select", stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []*domain.Entity
	for rows.Next() {
		var raw json.RawMessage
		if err := rows.Row(&raw); err != nil {
			return nil, m.fail("select", err)
		}
		e, err := data.ParseEntity(name, raw)
		if err != nil {
			return nil, m.fail("select", err)
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, m.fail("select", err)
	}
	return res, nil
}

// Count implements [domain.Manager].
func (m *Manager) Count(ctx context.Context, name string) (int64, error) {
	if err := m.check(); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, domain.ErrNoEntityName
	}
	rows, err := m.query(ctx, "count", CountStatement(m.keyspace(name)))
	if err != nil {
		return 0, err
	}
	var count int64
	if err := rows.One(&count); err != nil {
		return 0, m.fail("count", err)
	}
	return count, nil
}

// Close implements [domain.Manager].
func (m *Manager) Close(context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	return domain.WrapDriver(Driver, "close", m.cluster.Close(nil))
}
