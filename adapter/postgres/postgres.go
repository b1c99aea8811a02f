// Package postgres implements [domain.Manager] on PostgreSQL, storing each
// entity as a jsonb document in a table named after it. Tables are created on
// the first insert.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/projector"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Driver is the name reported in errors and logs.
const Driver = "postgres"

// IDElement is the element mapped to the id column.
const IDElement = "_id"

// SQLSTATE codes handled by the adapter.
const (
	codeUniqueViolation = "23505"
	codeUndefinedTable  = "42P01"
)

// Config configures the PostgreSQL adapter.
type Config struct {
	URL string `yaml:"url" validate:"nonzero"`
}

// Manager implements [domain.Manager].
type Manager struct {
	pool        *pgxpool.Pool
	tables      sync.Map
	closed      atomic.Bool
	projector   domain.Projector
	idGenerator domain.IDGenerator
	log         logrus.FieldLogger
}

// New returns a Manager on a connection pool for cfg.URL.
func New(ctx context.Context, cfg Config, options ...Option) (*Manager, error) {
	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	return NewWithPool(pool, options...), nil
}

// NewWithPool returns a Manager on an existing pool.
func NewWithPool(pool *pgxpool.Pool, options ...Option) *Manager {
	m := &Manager{
		pool:        pool,
		projector:   projector.NewProjector(projector.WithKeep(IDElement)),
		idGenerator: idgenerator.NewIDGenerator(),
		log:         logrus.StandardLogger(),
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

func (m *Manager) fail(op string, err error) error {
	err = domain.WrapDriver(Driver, op, err)
	m.log.WithError(err).WithField("driver", Driver).Error(op)
	return err
}

func (m *Manager) debug(op, sql string, args int) {
	m.log.WithFields(logrus.Fields{
		"driver":    Driver,
		"statement": sql,
		"args":      args,
	}).Debug(op)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func (m *Manager) ensureTable(ctx context.Context, name string) error {
	if _, ok := m.tables.Load(name); ok {
		return nil
	}
	sql := CreateTableStatement(name)
	m.debug("create table", sql, 0)
	if _, err := m.pool.Exec(ctx, sql); err != nil {
		return m.fail("create table", err)
	}
	m.tables.Store(name, struct{}{})
	return nil
}

// document splits an entity into its id and its jsonb document.
func document(e *domain.Entity) (string, []byte, error) {
	var id string
	if v, ok := e.Find(IDElement); ok {
		id = fmt.Sprint(v.Value)
	}
	doc := e.Map()
	delete(doc, IDElement)
	raw, err := json.Marshal(doc)
	return id, raw, err
}

// Insert implements [domain.Manager].
func (m *Manager) Insert(ctx context.Context, entity *domain.Entity, options ...domain.InsertOption) (*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := domain.ValidateEntity(entity); err != nil {
		return nil, err
	}
	if domain.NewInsertOptions(options...).TTL > 0 {
		return nil, domain.ErrUnsupportedOperation
	}
	c := entity.Clone()
	if _, ok := c.Find(IDElement); !ok {
		id, err := m.idGenerator.GenerateID()
		if err != nil {
			return nil, err
		}
		c = domain.NewEntity(c.Name(), append([]domain.Element{domain.NewElement(IDElement, id)}, c.Elements()...)...)
	}
	id, doc, err := document(c)
	if err != nil {
		return nil, err
	}
	if err := m.ensureTable(ctx, c.Name()); err != nil {
		return nil, err
	}
	sql := InsertStatement(c.Name())
	m.debug("insert", sql, 2)
	if _, err := m.pool.Exec(ctx, sql, id, doc); err != nil {
		if hasCode(err, codeUniqueViolation) {
			return nil, fmt.Errorf("%w: %w", domain.ErrDuplicateID, err)
		}
		return nil, m.fail("insert", err)
	}
	return c, nil
}

// InsertMany implements [domain.Manager]. Entities are inserted in a single
// transaction.
func (m *Manager) InsertMany(ctx context.Context, entities []*domain.Entity, options ...domain.InsertOption) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if domain.NewInsertOptions(options...).TTL > 0 {
		return nil, domain.ErrUnsupportedOperation
	}
	res := make([]*domain.Entity, len(entities))
	batch := &pgx.Batch{}
	for n, e := range entities {
		if err := domain.ValidateEntity(e); err != nil {
			return nil, err
		}
		c := e.Clone()
		if _, ok := c.Find(IDElement); !ok {
			id, err := m.idGenerator.GenerateID()
			if err != nil {
				return nil, err
			}
			c = domain.NewEntity(c.Name(), append([]domain.Element{domain.NewElement(IDElement, id)}, c.Elements()...)...)
		}
		id, doc, err := document(c)
		if err != nil {
			return nil, err
		}
		if err := m.ensureTable(ctx, c.Name()); err != nil {
			return nil, err
		}
		batch.Queue(InsertStatement(c.Name()), id, doc)
		res[n] = c
	}
	m.debug("insert many", "batch", batch.Len())
	err := pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if hasCode(err, codeUniqueViolation) {
		return nil, fmt.Errorf("%w: %w", domain.ErrDuplicateID, err)
	}
	if err != nil {
		return nil, m.fail("insert many", err)
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
	if _, ok := entity.Find(IDElement); !ok {
		return nil, domain.ErrMissingID
	}
	id, doc, err := document(entity)
	if err != nil {
		return nil, err
	}
	sql := UpdateStatement(entity.Name())
	m.debug("update", sql, 2)
	tag, err := m.pool.Exec(ctx, sql, id, doc)
	if hasCode(err, codeUndefinedTable) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, m.fail("update", err)
	}
	if tag.RowsAffected() == 0 {
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
	if err := m.check(); err != nil {
		return err
	}
	if err := query.Validate(); err != nil {
		return err
	}
	stmt, err := DeleteStatement(query)
	if err != nil || stmt.SQL == "" {
		return err
	}
	m.debug("delete", stmt.SQL, len(stmt.Args))
	_, err = m.pool.Exec(ctx, stmt.SQL, stmt.Args...)
	if hasCode(err, codeUndefinedTable) {
		return nil
	}
	if err != nil {
		return m.fail("delete", err)
	}
	return nil
}

// Select implements [domain.Manager]. Selecting an entity that was never
// inserted returns no results.
func (m *Manager) Select(ctx context.Context, query domain.SelectQuery) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	stmt, err := SelectStatement(query)
	if err != nil {
		return nil, err
	}
	m.debug("select", stmt.SQL, len(stmt.Args))
	rows, err := m.pool.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, m.fail("select", err)
	}
	res, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Entity, error) {
		var id string
		var doc []byte
		if err := row.Scan(&id, &doc); err != nil {
			return nil, err
		}
		return rowEntity(query.Name, id, doc)
	})
	if hasCode(err, codeUndefinedTable) {
		return nil, nil
	}
	if err != nil {
		return nil, m.fail("select", err)
	}
	for n, e := range res {
		res[n] = m.projector.Project(e, query.Fields)
	}
	return res, nil
}

// rowEntity rebuilds an entity from its id and document. The id comes first.
func rowEntity(name, id string, doc []byte) (*domain.Entity, error) {
	elements, err := data.ParseElements(doc)
	if err != nil {
		return nil, err
	}
	return domain.NewEntity(name, append([]domain.Element{domain.NewElement(IDElement, id)}, elements...)...), nil
}

// Query runs raw SQL and returns each row as an entity named name, with one
// element per column.
func (m *Manager) Query(ctx context.Context, name, sql string, args ...any) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	m.debug("query", sql, len(args))
	rows, err := m.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, m.fail("query", err)
	}
	res, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Entity, error) {
		values, err := row.Values()
		if err != nil {
			return nil, err
		}
		e := domain.NewEntity(name)
		for n, col := range row.FieldDescriptions() {
			e.Add(col.Name, data.ElementValue(values[n]))
		}
		return e, nil
	})
	if err != nil {
		return nil, m.fail("query", err)
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
	sql := CountStatement(name)
	m.debug("count", sql, 0)
	var n int64
	err := m.pool.QueryRow(ctx, sql).Scan(&n)
	if hasCode(err, codeUndefinedTable) {
		return 0, nil
	}
	if err != nil {
		return 0, m.fail("count", err)
	}
	return n, nil
}

// Close implements [domain.Manager].
func (m *Manager) Close(context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	m.pool.Close()
	return nil
}
