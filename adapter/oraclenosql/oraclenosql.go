// Package oraclenosql implements [domain.Manager] and [domain.BucketManager]
// on Oracle NoSQL Database. Entity names map to tables. Conditions are
// lowered into prepared queries whose external variables are declared with a
// type derived from their Go value.
package oraclenosql

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oracle/nosql-go-sdk/nosqldb"
	"github.com/oracle/nosql-go-sdk/nosqldb/types"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Driver is the name reported in errors and logs.
const Driver = "oraclenosql"

// DefaultKeyColumn is the primary key column used when none is configured.
const DefaultKeyColumn = "id"

// Config configures the Oracle NoSQL adapter.
type Config struct {
	Endpoint string `yaml:"endpoint" validate:"nonzero"`
	// Mode is one of cloudsim, onprem or cloud.
	Mode      string        `yaml:"mode"`
	KeyColumn string        `yaml:"key_column"`
	Timeout   time.Duration `yaml:"timeout"`
	// KeyValueTable is the table used by [Bucket]. It needs a STRING primary
	// key named key and a BINARY column named value.
	KeyValueTable string `yaml:"key_value_table"`
}

func (c Config) key() string {
	if c.KeyColumn == "" {
		return DefaultKeyColumn
	}
	return c.KeyColumn
}

func connect(cfg Config) (*nosqldb.Client, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = "cloudsim"
	}
	return nosqldb.NewClient(nosqldb.Config{
		Mode:     mode,
		Endpoint: cfg.Endpoint,
	})
}

// Manager implements [domain.Manager].
type Manager struct {
	client      *nosqldb.Client
	key         string
	timeout     time.Duration
	closed      atomic.Bool
	idGenerator domain.IDGenerator
	log         logrus.FieldLogger
}

// New returns a Manager connected to cfg.Endpoint.
func New(_ context.Context, cfg Config, options ...Option) (*Manager, error) {
	client, err := connect(cfg)
	if err != nil {
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	m := &Manager{
		client:      client,
		key:         cfg.key(),
		timeout:     cfg.Timeout,
		idGenerator: idgenerator.NewIDGenerator(),
		log:         logrus.StandardLogger(),
	}
	for _, option := range options {
		option(m)
	}
	return m, nil
}

func (m *Manager) check(ctx context.Context) error {
	if m.closed.Load() {
		return domain.ErrClosed
	}
	return ctx.Err()
}

func (m *Manager) fail(op string, err error) error {
	err = domain.WrapDriver(Driver, op, err)
	m.log.WithError(err).WithField("driver", Driver).Error(op)
	return err
}

// timeToLive converts ttl to the hour granularity of the engine, rounding
// up.
func timeToLive(ttl time.Duration) *types.TimeToLive {
	if ttl <= 0 {
		return nil
	}
	hours := int64((ttl + time.Hour - 1) / time.Hour)
	if hours%24 == 0 {
		return &types.TimeToLive{Value: hours / 24, Unit: types.Days}
	}
	return &types.TimeToLive{Value: hours, Unit: types.Hours}
}

// Insert implements [domain.Manager]. Entities without the primary key are
// given a generated one.
func (m *Manager) Insert(ctx context.Context, entity *domain.Entity, options ...domain.InsertOption) (*domain.Entity, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	if err := domain.ValidateEntity(entity); err != nil {
		return nil, err
	}
	opts := domain.NewInsertOptions(options...)
	c := entity.Clone()
	if _, ok := c.Find(m.key); !ok {
		id, err := m.idGenerator.GenerateID()
		if err != nil {
			return nil, err
		}
		c = domain.NewEntity(c.Name(), append([]domain.Element{domain.NewElement(m.key, id)}, c.Elements()...)...)
	}
	m.log.WithFields(logrus.Fields{"driver": Driver, "table": c.Name()}).Debug("insert")
	res, err := m.client.Put(&nosqldb.PutRequest{
		TableName: c.Name(),
		Value:     types.NewMapValue(c.Map()),
		PutOption: types.PutIfAbsent,
		TTL:       timeToLive(opts.TTL),
		Timeout:   m.timeout,
	})
	if err != nil {
		return nil, m.fail("insert", err)
	}
	if res.Version == nil {
		return nil, domain.ErrDuplicateID
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
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	if err := domain.ValidateEntity(entity); err != nil {
		return nil, err
	}
	if _, ok := entity.Find(m.key); !ok {
		return nil, domain.ErrMissingID
	}
	m.log.WithFields(logrus.Fields{"driver": Driver, "table": entity.Name()}).Debug("update")
	res, err := m.client.Put(&nosqldb.PutRequest{
		TableName: entity.Name(),
		Value:     types.NewMapValue(entity.Map()),
		PutOption: types.PutIfPresent,
		Timeout:   m.timeout,
	})
	if err != nil {
		return nil, m.fail("update", err)
	}
	if res.Version == nil {
		return nil, domain.ErrNotFound
	}
	return entity.Clone(), nil
}

// UpdateMany implements [domain.Manager].
func (m *Manager) UpdateMany(ctx context.Context, entities []*domain.Entity) ([]*domain.Entity, error) {
	res := make([]*domain.Entity, len(entities))
	for n, e := range entities {
		stored, err := m.Update(ctx, e)
		if err != nil {
			return nil, err
		}
		res[n] = stored
	}
	return res, nil
}

// Delete implements [domain.Manager].
func (m *Manager) Delete(ctx context.Context, query domain.DeleteQuery) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	if err := query.Validate(); err != nil {
		return err
	}
	stmt, err := DeleteStatement(query, m.key)
	if err != nil || stmt.SQL == "" {
		return err
	}
	_, err = m.Query(ctx, query.Name, stmt)
	return err
}

// Select implements [domain.Manager].
func (m *Manager) Select(ctx context.Context, query domain.SelectQuery) ([]*domain.Entity, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	stmt, err := SelectStatement(query, m.key)
	if err != nil {
		return nil, err
	}
	return m.Query(ctx, query.Name, stmt)
}

// Query prepares stmt, binds its variables and returns every result row as
// an entity named name.
func (m *Manager) Query(ctx context.Context, name string, stmt Statement) ([]*domain.Entity, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{
		"driver":    Driver,
		"statement": stmt.SQL,
	}).Debug("query")
	prep, err := m.client.Prepare(&nosqldb.PrepareRequest{Statement: stmt.SQL, Timeout: m.timeout})
	if err != nil {
		return nil, m.fail("prepare", err)
	}
	ps := &prep.PreparedStatement
	for k, v := range stmt.Vars {
		if err := ps.SetVariable(k, v); err != nil {
			return nil, m.fail("bind", err)
		}
	}
	req := &nosqldb.QueryRequest{PreparedStatement: ps, Timeout: m.timeout}
	defer req.Close()
	var res []*domain.Entity
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		qr, err := m.client.Query(req)
		if err != nil {
			return nil, m.fail("query", err)
		}
		rows, err := qr.GetResults()
		if err != nil {
			return nil, m.fail("query", err)
		}
		for _, row := range rows {
			res = append(res, rowEntity(name, row))
		}
		if req.IsDone() {
			return res, nil
		}
	}
}

// Count implements [domain.Manager].
func (m *Manager) Count(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, domain.ErrNoEntityName
	}
	rows, err := m.Query(ctx, name, CountStatement(name))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	switch n := rows[0].Value("count").(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, m.fail("count", fmt.Errorf("unexpected count %T", n))
	}
}

// Close implements [domain.Manager].
func (m *Manager) Close(context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	return domain.WrapDriver(Driver, "close", m.client.Close())
}

func rowEntity(name string, row *types.MapValue) *domain.Entity {
	return data.FromMap(name, fromRow(row.Map()))
}

// fromRow replaces nested map values returned by the driver with plain maps.
func fromRow(doc map[string]any) map[string]any {
	res := make(map[string]any, len(doc))
	for k, v := range doc {
		res[k] = fromValue(v)
	}
	return res
}

func fromValue(v any) any {
	switch t := v.(type) {
	case *types.MapValue:
		return fromRow(t.Map())
	case map[string]any:
		return fromRow(t)
	case []any:
		l := make([]any, len(t))
		for n, item := range t {
			l[n] = fromValue(item)
		}
		return l
	}
	return v
}
