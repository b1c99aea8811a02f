// Package mongodb implements [domain.Manager] on top of the official MongoDB
// driver. Entity names map to collections of the configured database and
// conditions are lowered into filter documents.
package mongodb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"
)

// Driver is the name reported in errors and logs.
const Driver = "mongodb"

// IDElement is the element holding the document identifier.
const IDElement = "_id"

// Config configures the MongoDB adapter.
type Config struct {
	URI            string        `yaml:"uri" validate:"nonzero"`
	Database       string        `yaml:"database" validate:"nonzero"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Manager implements [domain.Manager].
type Manager struct {
	client      *mongo.Client
	db          *mongo.Database
	closed      atomic.Bool
	log         logrus.FieldLogger
	idGenerator domain.IDGenerator
}

// New connects to MongoDB and returns a Manager bound to cfg.Database.
func New(ctx context.Context, cfg Config, options ...Option) (*Manager, error) {
	opts := mopt.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout).SetServerSelectionTimeout(cfg.ConnectTimeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, domain.WrapDriver(Driver, "ping", err)
	}
	return NewWithClient(client, cfg.Database, options...), nil
}

// NewWithClient returns a Manager using an already connected client.
func NewWithClient(client *mongo.Client, database string, options ...Option) *Manager {
	m := &Manager{
		client:      client,
		db:          client.Database(database),
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

func (m *Manager) debug(op, collection string, statement any) {
	m.log.WithFields(logrus.Fields{
		"driver":     Driver,
		"collection": collection,
		"statement":  statement,
	}).Debug(op)
}

func (m *Manager) fail(op string, err error) error {
	err = domain.WrapDriver(Driver, op, err)
	m.log.WithError(err).WithField("driver", Driver).Error(op)
	return err
}

// Insert implements [domain.Manager].
func (m *Manager) Insert(ctx context.Context, entity *domain.Entity, options ...domain.InsertOption) (*domain.Entity, error) {
	res, err := m.InsertMany(ctx, []*domain.Entity{entity}, options...)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// InsertMany implements [domain.Manager]. Entities are grouped by name and
// inserted with one request per collection. MongoDB collections have no
// per-document TTL, so [domain.WithTTL] returns
// [domain.ErrUnsupportedOperation].
func (m *Manager) InsertMany(ctx context.Context, entities []*domain.Entity, options ...domain.InsertOption) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if domain.NewInsertOptions(options...).TTL > 0 {
		return nil, domain.ErrUnsupportedOperation
	}

	stored := make([]*domain.Entity, len(entities))
	var order []string
	docs := make(map[string][]any)
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
			c.Add(IDElement, id)
		}
		if _, ok := docs[c.Name()]; !ok {
			order = append(order, c.Name())
		}
		docs[c.Name()] = append(docs[c.Name()], toDocument(c))
		stored[n] = c
	}

	for _, name := range order {
		m.debug("insert", name, len(docs[name]))
		if _, err := m.db.Collection(name).InsertMany(ctx, docs[name]); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, fmt.Errorf("%w: %w", domain.ErrDuplicateID, err)
			}
			return nil, m.fail("insert", err)
		}
	}
	return stored, nil
}

// Update implements [domain.Manager]. The document with the same _id is
// replaced.
func (m *Manager) Update(ctx context.Context, entity *domain.Entity) (*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := domain.ValidateEntity(entity); err != nil {
		return nil, err
	}
	id, ok := entity.Find(IDElement)
	if !ok {
		return nil, domain.ErrMissingID
	}
	filter := bson.D{{Key: IDElement, Value: id.Value}}
	m.debug("update", entity.Name(), filter)
	res, err := m.db.Collection(entity.Name()).ReplaceOne(ctx, filter, toDocument(entity))
	if err != nil {
		return nil, m.fail("update", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrNotFound
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

// Delete implements [domain.Manager]. When the query names fields they are
// unset instead of removing the documents.
func (m *Manager) Delete(ctx context.Context, query domain.DeleteQuery) error {
	if err := m.check(); err != nil {
		return err
	}
	if err := query.Validate(); err != nil {
		return err
	}
	filter, err := Filter(query.Condition)
	if err != nil {
		return err
	}
	coll := m.db.Collection(query.Name)
	m.debug("delete", query.Name, filter)
	if len(query.Fields) > 0 {
		unset := make(bson.D, 0, len(query.Fields))
		for _, f := range query.Fields {
			if f != IDElement {
				unset = append(unset, bson.E{Key: f, Value: ""})
			}
		}
		if len(unset) == 0 {
			return nil
		}
		_, err = coll.UpdateMany(ctx, filter, bson.D{{Key: "$unset", Value: unset}})
	} else {
		_, err = coll.DeleteMany(ctx, filter)
	}
	if err != nil {
		return m.fail("delete", err)
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
	filter, err := Filter(query.Condition)
	if err != nil {
		return nil, err
	}

	opts := mopt.Find()
	if sort := SortDocument(query.Sorts); sort != nil {
		opts.SetSort(sort)
	}
	if p := Projection(query.Fields); p != nil {
		opts.SetProjection(p)
	}
	if query.Skip > 0 {
		opts.SetSkip(query.Skip)
	}
	if query.Limit > 0 {
		opts.SetLimit(query.Limit)
	}

	m.debug("select", query.Name, filter)
	cursor, err := m.db.Collection(query.Name).Find(ctx, filter, opts)
	if err != nil {
		return nil, m.fail("select", err)
	}
	return m.readAll(ctx, query.Name, cursor)
}

// Aggregate runs an aggregation pipeline on the collection name and returns
// the resulting documents as entities with the same name.
func (m *Manager) Aggregate(ctx context.Context, name string, pipeline any) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	m.debug("aggregate", name, pipeline)
	cursor, err := m.db.Collection(name).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, m.fail("aggregate", err)
	}
	return m.readAll(ctx, name, cursor)
}

func (m *Manager) readAll(ctx context.Context, name string, cursor *mongo.Cursor) ([]*domain.Entity, error) {
	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, m.fail("decode", err)
	}
	res := make([]*domain.Entity, len(docs))
	for n, doc := range docs {
		res[n] = toEntity(name, doc)
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
	count, err := m.db.Collection(name).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, m.fail("count", err)
	}
	return count, nil
}

// Close implements [domain.Manager].
func (m *Manager) Close(ctx context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	return domain.WrapDriver(Driver, "close", m.client.Disconnect(ctx))
}
