// Package elasticsearch implements [domain.Manager] on top of the official
// Elasticsearch client. Every entity name is stored in its own index and
// conditions are lowered into the query DSL.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/dolmen-go/contextio"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Driver is the name reported in errors and logs.
const Driver = "elasticsearch"

// IDElement is the element holding the document identifier.
const IDElement = "_id"

// DefaultSize is the number of hits requested when a select has no limit. It
// matches the default index.max_result_window.
const DefaultSize = 10000

// Config configures the Elasticsearch adapter.
type Config struct {
	Addresses []string `yaml:"addresses" validate:"nonzero"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	// IndexPrefix is prepended to every index name.
	IndexPrefix string `yaml:"index_prefix"`
	// Refresh makes writes visible to the next search.
	Refresh bool `yaml:"refresh"`
}

// ErrResponse is returned when Elasticsearch answers with an error status.
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
	client      *elasticsearch.Client
	prefix      string
	refresh     bool
	closed      atomic.Bool
	log         logrus.FieldLogger
	idGenerator domain.IDGenerator
}

// New creates a client for cfg and returns a Manager using it.
func New(_ context.Context, cfg Config, options ...Option) (*Manager, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, domain.WrapDriver(Driver, "connect", err)
	}
	return NewWithClient(client, cfg, options...), nil
}

// NewWithClient returns a Manager using an existing client.
func NewWithClient(client *elasticsearch.Client, cfg Config, options ...Option) *Manager {
	m := &Manager{
		client:      client,
		prefix:      cfg.IndexPrefix,
		refresh:     cfg.Refresh,
		log:         logrus.StandardLogger(),
		idGenerator: idgenerator.NewIDGenerator(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Index returns the index holding entities named name. Index names must be
// lower case.
func (m *Manager) Index(name string) string {
	return strings.ToLower(m.prefix + name)
}

func (m *Manager) check() error {
	if m.closed.Load() {
		return domain.ErrClosed
	}
	return nil
}

func (m *Manager) refreshParam() string {
	if m.refresh {
		return "true"
	}
	return "false"
}

// read consumes the response body. Error statuses other than the allowed
// ones become [ErrResponse].
func (m *Manager) read(ctx context.Context, op string, res *esapi.Response, allowed ...int) ([]byte, error) {
	defer res.Body.Close()
	body, err := io.ReadAll(contextio.NewReader(ctx, res.Body))
	if err != nil {
		return nil, m.fail(op, err)
	}
	if res.IsError() {
		for _, status := range allowed {
			if res.StatusCode == status {
				return nil, nil
			}
		}
		return nil, m.fail(op, ErrResponse{Status: res.StatusCode, Body: string(body)})
	}
	return body, nil
}

func (m *Manager) fail(op string, err error) error {
	err = domain.WrapDriver(Driver, op, err)
	m.log.WithError(err).WithField("driver", Driver).Error(op)
	return err
}

func (m *Manager) debug(op, index string, body any) {
	m.log.WithFields(logrus.Fields{
		"driver":    Driver,
		"index":     index,
		"statement": body,
	}).Debug(op)
}

func source(e *domain.Entity) (*bytes.Reader, error) {
	doc := e.Clone()
	doc.Remove(IDElement)
	b, err := json.Marshal(doc.Map())
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

func encode(body M) (*bytes.Reader, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// Insert implements [domain.Manager]. Documents are created with op_type
// create, so an existing _id returns [domain.ErrDuplicateID].
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
	if err := m.index(ctx, "insert", c, "create"); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *Manager) index(ctx context.Context, op string, e *domain.Entity, opType string) error {
	body, err := source(e)
	if err != nil {
		return err
	}
	index := m.Index(e.Name())
	m.debug(op, index, e.Value(IDElement))
	res, err := m.client.Index(index, body,
		m.client.Index.WithContext(ctx),
		m.client.Index.WithDocumentID(fmt.Sprint(e.Value(IDElement))),
		m.client.Index.WithOpType(opType),
		m.client.Index.WithRefresh(m.refreshParam()),
	)
	if err != nil {
		return m.fail(op, err)
	}
	if res.StatusCode == http.StatusConflict {
		res.Body.Close()
		return domain.ErrDuplicateID
	}
	_, err = m.read(ctx, op, res)
	return err
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

// Update implements [domain.Manager]. The stored document is replaced; a
// missing document returns [domain.ErrNotFound].
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
	res, err := m.client.Exists(m.Index(entity.Name()), fmt.Sprint(id.Value),
		m.client.Exists.WithContext(ctx),
	)
	if err != nil {
		return nil, m.fail("update", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if err := m.index(ctx, "update", entity, "index"); err != nil {
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

// Delete implements [domain.Manager]. Named fields are removed from the
// source of matching documents with an update by query.
func (m *Manager) Delete(ctx context.Context, query domain.DeleteQuery) error {
	if err := m.check(); err != nil {
		return err
	}
	if err := query.Validate(); err != nil {
		return err
	}
	q, err := Query(query.Condition)
	if err != nil {
		return err
	}
	index := m.Index(query.Name)
	body := M{"query": q}

	var res *esapi.Response
	if len(query.Fields) > 0 {
		body["script"] = RemoveFieldsScript(query.Fields)
		reader, err := encode(body)
		if err != nil {
			return err
		}
		m.debug("delete", index, body)
		res, err = m.client.UpdateByQuery([]string{index},
			m.client.UpdateByQuery.WithContext(ctx),
			m.client.UpdateByQuery.WithBody(reader),
			m.client.UpdateByQuery.WithRefresh(m.refresh),
		)
		if err != nil {
			return m.fail("delete", err)
		}
	} else {
		reader, err := encode(body)
		if err != nil {
			return err
		}
		m.debug("delete", index, body)
		res, err = m.client.DeleteByQuery([]string{index}, reader,
			m.client.DeleteByQuery.WithContext(ctx),
			m.client.DeleteByQuery.WithRefresh(m.refresh),
		)
		if err != nil {
			return m.fail("delete", err)
		}
	}
	_, err = m.read(ctx, "delete", res, http.StatusNotFound)
	return err
}

// RemoveFieldsScript returns a painless script removing fields from the
// document source.
func RemoveFieldsScript(fields []string) M {
	var src strings.Builder
	params := M{}
	for n, f := range fields {
		name := fmt.Sprintf("f%d", n)
		fmt.Fprintf(&src, "ctx._source.remove(params.%s);", name)
		params[name] = f
	}
	return M{"source": src.String(), "lang": "painless", "params": params}
}

// Select implements [domain.Manager].
func (m *Manager) Select(ctx context.Context, query domain.SelectQuery) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	body, err := SearchBody(query, DefaultSize)
	if err != nil {
		return nil, err
	}
	return m.Search(ctx, query.Name, body)
}

// Search runs a raw query DSL body against the index of name and returns
// the hits as entities.
func (m *Manager) Search(ctx context.Context, name string, body M) ([]*domain.Entity, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	reader, err := encode(body)
	if err != nil {
		return nil, err
	}
	index := m.Index(name)
	m.debug("select", index, body)
	res, err := m.client.Search(
		m.client.Search.WithContext(ctx),
		m.client.Search.WithIndex(index),
		m.client.Search.WithBody(reader),
	)
	if err != nil {
		return nil, m.fail("select", err)
	}
	raw, err := m.read(ctx, "select", res, http.StatusNotFound)
	if err != nil || raw == nil {
		return nil, err
	}
	return hits(name, raw)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// hits converts a search response into entities. Source members keep their
// order and _id comes first.
func hits(name string, raw []byte) ([]*domain.Entity, error) {
	var sr searchResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, domain.WrapDriver(Driver, "select", err)
	}
	res := make([]*domain.Entity, len(sr.Hits.Hits))
	for n, hit := range sr.Hits.Hits {
		e := domain.NewEntity(name, domain.NewElement(IDElement, hit.ID))
		if len(hit.Source) > 0 {
			elements, err := data.ParseElements(hit.Source)
			if err != nil {
				return nil, domain.WrapDriver(Driver, "select", err)
			}
			for _, el := range elements {
				e.AddElement(el)
			}
		}
		res[n] = e
	}
	return res, nil
}

// Count implements [domain.Manager]. A missing index counts as empty.
func (m *Manager) Count(ctx context.Context, name string) (int64, error) {
	if err := m.check(); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, domain.ErrNoEntityName
	}
	res, err := m.client.Count(
		m.client.Count.WithContext(ctx),
		m.client.Count.WithIndex(m.Index(name)),
	)
	if err != nil {
		return 0, m.fail("count", err)
	}
	raw, err := m.read(ctx, "count", res, http.StatusNotFound)
	if err != nil || raw == nil {
		return 0, err
	}
	var cr struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(raw, &cr); err != nil {
		return 0, domain.WrapDriver(Driver, "count", err)
	}
	return cr.Count, nil
}

// Close implements [domain.Manager]. The HTTP client holds no connection
// that needs releasing.
func (m *Manager) Close(context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return domain.ErrClosed
	}
	return nil
}
