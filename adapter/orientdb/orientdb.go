// Package orientdb implements [domain.Manager] on the OrientDB HTTP API.
// Entity names map to classes and conditions are lowered into OSQL commands
// with named parameters.
package orientdb

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Driver is the name reported in errors and logs.
const Driver = "orientdb"

// IDElement is the element holding the record id.
const IDElement = "@rid"

// metadata fields returned with every record and dropped from entities.
var metadata = []string{"@type", "@version", "@class", "@fieldTypes"}

// Config configures the OrientDB adapter.
type Config struct {
	URL      string        `yaml:"url" validate:"nonzero"`
	Database string        `yaml:"database" validate:"nonzero"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ErrResponse is returned when the server answers with an error status.
type ErrResponse struct {
	Status int
	Body   string
}

// Error implements [error].
func (e ErrResponse) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// Manager implements [domain.Manager].
type Manager struct {
	client   *resty.Client
	database string
	closed   atomic.Bool
	log      logrus.FieldLogger
}

// New returns a Manager sending commands to cfg.URL.
func New(_ context.Context, cfg Config, options ...Option) (*Manager, error) {
	client := resty.New().SetBaseURL(cfg.URL)
	if cfg.Username != "" {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	m := &Manager{
		client:   client,
		database: cfg.Database,
		log:      logrus.StandardLogger(),
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

type commandResponse struct {
	Result []json.RawMessage `json:"result"`
}

// Command runs an OSQL command and returns the raw result records.
func (m *Manager) Command(ctx context.Context, op string, stmt Statement) ([]json.RawMessage, error) {
	m.log.WithFields(logrus.Fields{
		"driver":     Driver,
		"statement":  stmt.Command,
		"parameters": len(stmt.Parameters),
	}).Debug(op)
	resp, err := m.client.R().
		SetContext(ctx).
		SetPathParam("database", m.database).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"command": stmt.Command, "parameters": stmt.Parameters}).
		Post("/command/{database}/sql")
	if err != nil {
		return nil, m.fail(op, err)
	}
	if resp.IsError() {
		return nil, m.fail(op, ErrResponse{Status: resp.StatusCode(), Body: resp.String()})
	}
	var cr commandResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return nil, m.fail(op, err)
	}
	return cr.Result, nil
}

func (m *Manager) entities(op, name string, records []json.RawMessage) ([]*domain.Entity, error) {
	res := make([]*domain.Entity, len(records))
	for n, raw := range records {
		e, err := data.ParseEntity(name, raw)
		if err != nil {
			return nil, m.fail(op, err)
		}
		for _, f := range metadata {
			e.Remove(f)
		}
		res[n] = e
	}
	return res, nil
}

func content(e *domain.Entity) ([]byte, error) {
	doc := e.Map()
	delete(doc, IDElement)
	return json.Marshal(doc)
}

// Insert implements [domain.Manager]. The record id assigned by the server
// is added to the returned entity.
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
	body, err := content(entity)
	if err != nil {
		return nil, err
	}
	records, err := m.Command(ctx, "insert", InsertStatement(entity.Name(), body))
	if err != nil {
		return nil, err
	}
	c := entity.Clone()
	stored, err := m.entities("insert", entity.Name(), records)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		if rid, ok := stored[0].Find(IDElement); ok {
			c.AddElement(rid)
		}
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
	rid, ok := entity.Value(IDElement).(string)
	if !ok || !ValidRID(rid) {
		return nil, domain.ErrMissingID
	}
	body, err := content(entity)
	if err != nil {
		return nil, err
	}
	records, err := m.Command(ctx, "update", UpdateStatement(entity.Name(), rid, body))
	if err != nil {
		return nil, err
	}
	count, err := resultCount(records)
	if err != nil {
		return nil, m.fail("update", err)
	}
	if count == 0 {
		return nil, domain.ErrNotFound
	}
	return entity.Clone(), nil
}

func resultCount(records []json.RawMessage) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	var r struct {
		Count int64 `json:"count"`
	}
	err := json.Unmarshal(records[0], &r)
	return r.Count, err
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
	stmt, err := DeleteStatement(query)
	if err != nil {
		return err
	}
	_, err = m.Command(ctx, "delete", stmt)
	return err
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
	return m.Query(ctx, query.Name, stmt.Command, stmt.Parameters)
}

// Query runs a raw OSQL command and returns the records as entities named
// name.
func (m *Manager) Query(ctx context.Context, name, command string, parameters map[string]any) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	records, err := m.Command(ctx, "select", Statement{Command: command, Parameters: parameters})
	if err != nil {
		return nil, err
	}
	return m.entities("select", name, records)
}

// Count implements [domain.Manager].
func (m *Manager) Count(ctx context.Context, name string) (int64, error) {
	if err := m.check(); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, domain.ErrNoEntityName
	}
	records, err := m.Command(ctx, "count", CountStatement(name))
	if err != nil {
		return 0, err
	}
	count, err := resultCount(records)
	if err != nil {
		return 0, m.fail("count", err)
	}
	return count, nil
}

// Close implements [domain.Manager].
func (m *Manager) Close(context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	return nil
}
