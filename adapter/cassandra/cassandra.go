// Package cassandra implements [domain.Manager] on top of gocql. Entity names
// map to tables of the configured keyspace and conditions are lowered into
// CQL with positional bind markers.
package cassandra

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Driver is the name reported in errors and logs.
const Driver = "cassandra"

// Config configures the Cassandra adapter.
type Config struct {
	Hosts    []string `yaml:"hosts" validate:"nonzero"`
	Keyspace string   `yaml:"keyspace" validate:"nonzero"`
	// KeyColumn is the primary key column required by updates.
	KeyColumn string `yaml:"key_column"`
	// Consistency is a gocql consistency name such as QUORUM or ONE.
	Consistency string        `yaml:"consistency"`
	Timeout     time.Duration `yaml:"timeout"`
	// AllowFiltering adds ALLOW FILTERING to filtered selects.
	AllowFiltering bool   `yaml:"allow_filtering"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
}

// DefaultKeyColumn is used when Config.KeyColumn is empty.
const DefaultKeyColumn = "id"

// Manager implements [domain.Manager].
type Manager struct {
	session        *gocql.Session
	keyspace       string
	keyColumn      string
	consistency    gocql.Consistency
	allowFiltering bool
	closed         atomic.Bool
	log            logrus.FieldLogger
	idGenerator    domain.IDGenerator
}

// New creates a gocql session for cfg and returns a Manager using it.
func New(_ context.Context, cfg Config, options ...Option) (*Manager, error) {
	consistency := gocql.Quorum
	if cfg.Consistency != "" {
		c, err := gocql.ParseConsistencyWrapper(cfg.Consistency)
		if err != nil {
			return nil, err
		}
		consistency = c
	}
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = consistency
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	}
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	m := NewWithSession(session, cfg, options...)
	m.consistency = consistency
	return m, nil
}

// NewWithSession returns a Manager using an existing session.
func NewWithSession(session *gocql.Session, cfg Config, options ...Option) *Manager {
	m := &Manager{
		session:        session,
		keyspace:       cfg.Keyspace,
		keyColumn:      cfg.KeyColumn,
		consistency:    gocql.Quorum,
		allowFiltering: cfg.AllowFiltering,
		log:            logrus.StandardLogger(),
		idGenerator:    idgenerator.NewIDGenerator(),
	}
	if m.keyColumn == "" {
		m.keyColumn = DefaultKeyColumn
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *Manager) check() error {
	if m.closed.Load() {
		return domain.ErrClosed
	}
	return nil
}

func (m *Manager) query(ctx context.Context, op string, stmt Statement) *gocql.Query {
	m.log.WithFields(logrus.Fields{
		"driver":    Driver,
		"statement": stmt.CQL,
		"values":    len(stmt.Values),
	}).Debug(op)
	return m.session.Query(stmt.CQL, stmt.Values...).WithContext(ctx).Consistency(m.consistency)
}

func (m *Manager) exec(ctx context.Context, op string, stmt Statement) error {
	if err := m.query(ctx, op, stmt).Exec(); err != nil {
		err = domain.WrapDriver(Driver, op, err)
		m.log.WithError(err).WithField("driver", Driver).Error(op)
		return err
	}
	return nil
}

// Insert implements [domain.Manager]. A TTL is written as USING TTL with
// second precision.
func (m *Manager) Insert(ctx context.Context, entity *domain.Entity, options ...domain.InsertOption) (*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := domain.ValidateEntity(entity); err != nil {
		return nil, err
	}
	c := entity.Clone()
	if _, ok := c.Find(m.keyColumn); !ok {
		id, err := m.idGenerator.GenerateID()
		if err != nil {
			return nil, err
		}
		c.Add(m.keyColumn, id)
	}
	ttl := domain.NewInsertOptions(options...).TTL
	stmt, err := InsertStatement(m.keyspace, c, ttlSeconds(ttl))
	if err != nil {
		return nil, err
	}
	if err := m.exec(ctx, "insert", stmt); err != nil {
		return nil, err
	}
	return c, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return max(int64(ttl/time.Second), 1)
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

// Update implements [domain.Manager]. CQL writes are upserts, so the row is
// written whether or not it existed.
func (m *Manager) Update(ctx context.Context, entity *domain.Entity) (*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := domain.ValidateEntity(entity); err != nil {
		return nil, err
	}
	if _, ok := entity.Find(m.keyColumn); !ok {
		return nil, domain.ErrMissingID
	}
	stmt, err := InsertStatement(m.keyspace, entity, 0)
	if err != nil {
		return nil, err
	}
	if err := m.exec(ctx, "update", stmt); err != nil {
		return nil, err
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

// Delete implements [domain.Manager]. A query without condition and fields
// truncates the table.
func (m *Manager) Delete(ctx context.Context, query domain.DeleteQuery) error {
	if err := m.check(); err != nil {
		return err
	}
	if err := query.Validate(); err != nil {
		return err
	}
	if query.Condition == nil && len(query.Fields) == 0 {
		return m.exec(ctx, "delete", TruncateStatement(m.keyspace, query.Name))
	}
	stmt, err := DeleteStatement(m.keyspace, m.keyColumn, query)
	if err != nil || stmt.CQL == "" {
		return err
	}
	return m.exec(ctx, "delete", stmt)
}

// Select implements [domain.Manager]. Skipped rows are read and dropped.
func (m *Manager) Select(ctx context.Context, query domain.SelectQuery) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	stmt, err := SelectStatement(m.keyspace, query, m.allowFiltering)
	if err != nil {
		return nil, err
	}
	res, err := m.scan(m.query(ctx, "select", stmt), query.Name)
	if err != nil {
		return nil, err
	}
	return domain.Paginate(res, query.Skip, query.Limit), nil
}

// Query runs a raw CQL statement and returns the rows as entities named
// name.
func (m *Manager) Query(ctx context.Context, name, cql string, values ...any) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.scan(m.query(ctx, "query", Statement{CQL: cql, Values: values}), name)
}

// Exec runs a raw CQL statement that returns no rows.
func (m *Manager) Exec(ctx context.Context, cql string, values ...any) error {
	if err := m.check(); err != nil {
		return err
	}
	return m.exec(ctx, "exec", Statement{CQL: cql, Values: values})
}

func (m *Manager) scan(q *gocql.Query, name string) ([]*domain.Entity, error) {
	iter := q.Iter()
	columns := iter.Columns()
	var res []*domain.Entity
	for {
		row := make(map[string]any, len(columns))
		if !iter.MapScan(row) {
			break
		}
		res = append(res, rowEntity(name, columns, row))
	}
	if err := iter.Close(); err != nil {
		err = domain.WrapDriver(Driver, "select", err)
		m.log.WithError(err).WithField("driver", Driver).Error("select")
		return nil, err
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
	var count int64
	if err := m.query(ctx, "count", CountStatement(m.keyspace, name)).Scan(&count); err != nil {
		return 0, domain.WrapDriver(Driver, "count", err)
	}
	return count, nil
}

// Close implements [domain.Manager].
func (m *Manager) Close(context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	m.session.Close()
	return nil
}
