// Package couchdb implements [domain.Manager] on top of kivik. All entities
// share one database and are told apart by the @entity field, and conditions
// are lowered into Mango selectors.
package couchdb

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // CouchDB driver
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Driver is the name reported in errors and logs.
const Driver = "couchdb"

const (
	// IDElement is the element holding the document id.
	IDElement = "_id"
	// RevElement is the element holding the document revision.
	RevElement = "_rev"
	// EntityElement is the stored field naming the entity of a document.
	EntityElement = "@entity"
)

// Config configures the CouchDB adapter.
type Config struct {
	URL      string `yaml:"url" validate:"nonzero"`
	Database string `yaml:"database" validate:"nonzero"`
}

// Manager implements [domain.Manager].
type Manager struct {
	client      *kivik.Client
	db          *kivik.DB
	closed      atomic.Bool
	log         logrus.FieldLogger
	idGenerator domain.IDGenerator
}

// New connects to CouchDB and returns a Manager on cfg.Database.
func New(ctx context.Context, cfg Config, options ...Option) (*Manager, error) {
	client, err := kivik.New("couch", cfg.URL)
	if err != nil {
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	db := client.DB(cfg.Database)
	if err := db.Err(); err != nil {
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	m := &Manager{
		client:      client,
		db:          db,
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

// document returns the stored form of e, tagged with its entity name.
func document(e *domain.Entity) map[string]any {
	doc := e.Map()
	doc[EntityElement] = e.Name()
	return doc
}

// Insert implements [domain.Manager]. The stored revision is added to the
// returned entity.
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
	c.Remove(RevElement)
	id, ok := c.Value(IDElement).(string)
	if !ok {
		var err error
		if id, err = m.idGenerator.GenerateID(); err != nil {
			return nil, err
		}
		c.Add(IDElement, id)
	}
	m.log.WithFields(logrus.Fields{"driver": Driver, "entity": c.Name(), "id": id}).Debug("insert")
	rev, err := m.db.Put(ctx, id, document(c))
	if kivik.HTTPStatus(err) == http.StatusConflict {
		return nil, domain.ErrDuplicateID
	}
	if err != nil {
		return nil, m.fail("insert", err)
	}
	c.Add(RevElement, rev)
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

// Update implements [domain.Manager]. Without a _rev element the current
// revision is read first, so the update overwrites whatever is stored.
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
	c := entity.Clone()
	if _, ok := c.Value(RevElement).(string); !ok {
		rev, err := m.db.GetRev(ctx, id)
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, m.fail("update", err)
		}
		c.Add(RevElement, rev)
	}
	m.log.WithFields(logrus.Fields{"driver": Driver, "entity": c.Name(), "id": id}).Debug("update")
	rev, err := m.db.Put(ctx, id, document(c))
	if kivik.HTTPStatus(err) == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, m.fail("update", err)
	}
	c.Add(RevElement, rev)
	return c, nil
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

// Delete implements [domain.Manager]. Matching documents are read and then
// deleted, or rewritten without the named fields, one revision at a time.
func (m *Manager) Delete(ctx context.Context, query domain.DeleteQuery) error {
	if err := m.check(); err != nil {
		return err
	}
	if err := query.Validate(); err != nil {
		return err
	}
	found, err := m.Select(ctx, query.AsSelect())
	if err != nil {
		return err
	}
	for _, e := range found {
		id, _ := e.Value(IDElement).(string)
		rev, _ := e.Value(RevElement).(string)
		if len(query.Fields) == 0 {
			m.log.WithFields(logrus.Fields{"driver": Driver, "entity": query.Name, "id": id}).Debug("delete")
			if _, err := m.db.Delete(ctx, id, rev); err != nil {
				return m.fail("delete", err)
			}
			continue
		}
		for _, f := range query.Fields {
			if f != IDElement && f != RevElement {
				e.Remove(f)
			}
		}
		if _, err := m.Update(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Select implements [domain.Manager].
func (m *Manager) Select(ctx context.Context, query domain.SelectQuery) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	body, err := FindQuery(query)
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, query.Name, body)
}

// Find runs a raw Mango query and returns the documents as entities named
// name.
func (m *Manager) Find(ctx context.Context, name string, body M) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"driver": Driver, "statement": body}).Debug("select")
	rows := m.db.Find(ctx, body)
	defer rows.Close()
	var res []*domain.Entity
	for rows.Next() {
		var raw json.RawMessage
		if err := rows.ScanDoc(&raw); err != nil {
			return nil, m.fail("select", err)
		}
		e, err := data.ParseEntity(name, raw)
		if err != nil {
			return nil, m.fail("select", err)
		}
		e.Remove(EntityElement)
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, m.fail("select", err)
	}
	return res, nil
}

// Count implements [domain.Manager]. Mango has no count, so the ids of the
// entity documents are read and counted.
func (m *Manager) Count(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, domain.ErrNoEntityName
	}
	res, err := m.Select(ctx, domain.NewSelectQuery(name, domain.WithFields(IDElement)))
	if err != nil {
		return 0, err
	}
	return int64(len(res)), nil
}

// Close implements [domain.Manager].
func (m *Manager) Close(context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	return domain.WrapDriver(Driver, "close", m.client.Close())
}
