// Package arangodb implements [domain.Manager] on top of the ArangoDB Go
// driver. Entity names map to collections and conditions are lowered into AQL
// with bind variables.
package arangodb

import (
	"context"
	"encoding/json"
	"sync/atomic"

	driver "github.com/arangodb/go-driver"
	arangohttp "github.com/arangodb/go-driver/http"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Driver is the name reported in errors and logs.
const Driver = "arangodb"

// IDElement is the element holding the document key.
const IDElement = "_key"

// Config configures the ArangoDB adapter.
type Config struct {
	Endpoints []string `yaml:"endpoints" validate:"nonzero"`
	Database  string   `yaml:"database" validate:"nonzero"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	// CreateCollections creates missing collections on insert.
	CreateCollections bool `yaml:"create_collections"`
}

// Manager implements [domain.Manager].
type Manager struct {
	db          driver.Database
	create      bool
	closed      atomic.Bool
	log         logrus.FieldLogger
	idGenerator domain.IDGenerator
}

// New connects to ArangoDB and returns a Manager bound to cfg.Database.
func New(ctx context.Context, cfg Config, options ...Option) (*Manager, error) {
	conn, err := arangohttp.NewConnection(arangohttp.ConnectionConfig{Endpoints: cfg.Endpoints})
	if err != nil {
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	clientCfg := driver.ClientConfig{Connection: conn}
	if cfg.Username != "" {
		clientCfg.Authentication = driver.BasicAuthentication(cfg.Username, cfg.Password)
	}
	client, err := driver.NewClient(clientCfg)
	if err != nil {
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	db, err := client.Database(ctx, cfg.Database)
	if err != nil {
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	return NewWithDatabase(db, cfg, options...), nil
}

// NewWithDatabase returns a Manager using an opened database handle.
func NewWithDatabase(db driver.Database, cfg Config, options ...Option) *Manager {
	m := &Manager{
		db:          db,
		create:      cfg.CreateCollections,
		log:         logrus.StandardLogger(),
		idGenerator: idgenerator.NewIDGenerator(),
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

func (m *Manager) collection(ctx context.Context, name string) (driver.Collection, error) {
	if m.create {
		exists, err := m.db.CollectionExists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !exists {
			return m.db.CreateCollection(ctx, name, nil)
		}
	}
	return m.db.Collection(ctx, name)
}

// document returns the stored form of e, without the key element.
func document(e *domain.Entity) map[string]any {
	doc := e.Map()
	delete(doc, IDElement)
	return doc
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
		c.Add(IDElement, id)
	}
	col, err := m.collection(ctx, c.Name())
	if err != nil {
		return nil, m.fail("insert", err)
	}
	doc := c.Map()
	m.log.WithFields(logrus.Fields{"driver": Driver, "collection": c.Name(), "key": doc[IDElement]}).Debug("insert")
	if _, err := col.CreateDocument(ctx, doc); err != nil {
		if driver.IsConflict(err) {
			return nil, domain.ErrDuplicateID
		}
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

// Update implements [domain.Manager]. The document with the same _key is
// replaced.
func (m *Manager) Update(ctx context.Context, entity *domain.Entity) (*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := domain.ValidateEntity(entity); err != nil {
		return nil, err
	}
	key, ok := entity.Find(IDElement)
	if !ok {
		return nil, domain.ErrMissingID
	}
	keyStr, ok := key.Value.(string)
	if !ok {
		return nil, domain.ErrMissingID
	}
	col, err := m.db.Collection(ctx, entity.Name())
	if err != nil {
		if driver.IsNotFoundGeneral(err) {
			return nil, domain.ErrNotFound
		}
		return nil, m.fail("update", err)
	}
	m.log.WithFields(logrus.Fields{"driver": Driver, "collection": entity.Name(), "key": keyStr}).Debug("update")
	if _, err := col.ReplaceDocument(ctx, keyStr, document(entity)); err != nil {
		if driver.IsNotFoundGeneral(err) {
			return nil, domain.ErrNotFound
		}
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
	stmt, err := DeleteStatement(query)
	if err != nil {
		return err
	}
	cursor, err := m.query(ctx, "delete", stmt)
	if err != nil {
		return err
	}
	return cursor.Close()
}

// Select implements [domain.Manager].
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
	return m.read(ctx, query.Name, stmt)
}

// Query runs raw AQL and returns the resulting documents as entities named
// name.
func (m *Manager) Query(ctx context.Context, name, aql string, bindVars map[string]any) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.read(ctx, name, Statement{AQL: aql, BindVars: bindVars})
}

func (m *Manager) query(ctx context.Context, op string, stmt Statement) (driver.Cursor, error) {
	m.log.WithFields(logrus.Fields{
		"driver":    Driver,
		"statement": stmt.AQL,
		"bind_vars": len(stmt.BindVars),
	}).Debug(op)
	cursor, err := m.db.Query(ctx, stmt.AQL, stmt.BindVars)
	if err != nil {
		return nil, m.fail(op, err)
	}
	return cursor, nil
}

func (m *Manager) read(ctx context.Context, name string, stmt Statement) ([]*domain.Entity, error) {
	cursor, err := m.query(ctx, "select", stmt)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var res []*domain.Entity
	for {
		var raw json.RawMessage
		_, err := cursor.ReadDocument(ctx, &raw)
		if driver.IsNoMoreDocuments(err) {
			break
		}
		if err != nil {
			return nil, m.fail("select", err)
		}
		e, err := data.ParseEntity(name, raw)
		if err != nil {
			return nil, m.fail("select", err)
		}
		res = append(res, e)
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
	col, err := m.db.Collection(ctx, name)
	if err != nil {
		if driver.IsNotFoundGeneral(err) {
			return 0, nil
		}
		return 0, m.fail("count", err)
	}
	count, err := col.Count(ctx)
	if err != nil {
		return 0, m.fail("count", err)
	}
	return count, nil
}

// Close implements [domain.Manager]. The HTTP connection holds nothing that
// needs releasing.
func (m *Manager) Close(context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	return nil
}
