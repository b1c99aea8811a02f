package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

type idGeneratorMock struct{ mock.Mock }

// GenerateID implements [domain.IDGenerator].
func (i *idGeneratorMock) GenerateID() (string, error) {
	call := i.Called()
	return call.String(0), call.Error(1)
}

type QueryTestSuite struct {
	suite.Suite
}

func (s *QueryTestSuite) TestMatchAll() {
	q, err := Query(nil)
	s.NoError(err)
	s.Equal(M{"match_all": M{}}, q)
}

func (s *QueryTestSuite) TestSingle() {
	c := domain.Gt("age", 10)
	q, err := Query(&c)
	s.NoError(err)
	s.Equal(M{"bool": M{"must": []any{M{"range": M{"age": M{"gt": 10}}}}}}, q)
}

func (s *QueryTestSuite) TestOperators() {
	c := domain.And(
		domain.Eq("name", "Ada"),
		domain.Like("name", "A_a%"),
		domain.In("age", 1, 2),
		domain.Between("age", 1, 9),
		domain.Or(domain.Lte("a", 1), domain.Not(domain.Gte("b", 2))),
	)
	q, err := Query(&c)
	s.NoError(err)
	s.Equal(M{"bool": M{"must": []any{
		M{"term": M{"name": "Ada"}},
		M{"wildcard": M{"name": M{"value": "A?a*"}}},
		M{"terms": M{"age": []any{1, 2}}},
		M{"range": M{"age": M{"gte": 1, "lte": 9}}},
		M{"bool": M{
			"should": []any{
				M{"range": M{"a": M{"lte": 1}}},
				M{"bool": M{"must_not": []any{M{"range": M{"b": M{"gte": 2}}}}}},
			},
			"minimum_should_match": 1,
		}},
	}}}, q)
}

func (s *QueryTestSuite) TestEqualsNull() {
	c := domain.Eq("deleted_at", nil)
	q, err := Query(&c)
	s.NoError(err)
	s.Equal(M{"bool": M{"must": []any{
		M{"bool": M{"must_not": []any{M{"exists": M{"field": "deleted_at"}}}}},
	}}}, q)
}

func (s *QueryTestSuite) TestInvalid() {
	c := domain.Not(domain.And())
	_, err := Query(&c)
	s.ErrorAs(err, &domain.ErrInvalidCondition{})
}

func (s *QueryTestSuite) TestSearchBody() {
	body, err := SearchBody(domain.NewSelectQuery("person",
		domain.WithFields("name"),
		domain.WithSort(domain.SortDesc("age"), domain.SortAsc("name")),
		domain.WithSkip(5),
		domain.WithLimit(10),
	), DefaultSize)
	s.NoError(err)
	s.Equal(M{
		"query":   M{"match_all": M{}},
		"sort":    []any{M{"age": M{"order": "desc"}}, M{"name": M{"order": "asc"}}},
		"_source": []string{"name"},
		"from":    int64(5),
		"size":    int64(10),
	}, body)

	body, err = SearchBody(domain.NewSelectQuery("person"), 50)
	s.NoError(err)
	s.Equal(int64(50), body["size"])
}

func (s *QueryTestSuite) TestRemoveFieldsScript() {
	s.Equal(M{
		"source": "ctx._source.remove(params.f0);ctx._source.remove(params.f1);",
		"lang":   "painless",
		"params": M{"f0": "a", "f1": "b"},
	}, RemoveFieldsScript([]string{"a", "b"}))
}

func TestQueryTestSuite(t *testing.T) {
	suite.Run(t, new(QueryTestSuite))
}

type request struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type ManagerTestSuite struct {
	suite.Suite
	ctx      context.Context
	srv      *httptest.Server
	m        *Manager
	ig       *idGeneratorMock
	requests []request
	status   int
	response string
}

func (s *ManagerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.requests = nil
	s.status = http.StatusOK
	s.response = `{}`
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.requests = append(s.requests, request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   string(body),
		})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)
		_, _ = io.WriteString(w, s.response)
	}))
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{s.srv.URL}})
	s.Require().NoError(err)

	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s.ig = new(idGeneratorMock)
	s.m = NewWithClient(client, Config{IndexPrefix: "App_", Refresh: true},
		WithLogger(logger),
		WithIDGenerator(s.ig),
	)
}

func (s *ManagerTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *ManagerTestSuite) lastRequest() request {
	s.Require().NotEmpty(s.requests)
	return s.requests[len(s.requests)-1]
}

func (s *ManagerTestSuite) TestIndexName() {
	s.Equal("app_person", s.m.Index("Person"))
}

func (s *ManagerTestSuite) TestInsert() {
	s.ig.On("GenerateID").Return("abc", nil).Once()
	s.status = http.StatusCreated
	s.response = `{"result":"created"}`

	e, err := s.m.Insert(s.ctx, domain.NewEntity("Person", domain.NewElement("name", "Ada")))
	s.NoError(err)
	s.Equal(domain.NewEntity("Person", domain.NewElement("name", "Ada"), domain.NewElement("_id", "abc")), e)

	r := s.lastRequest()
	s.Equal(http.MethodPut, r.Method)
	s.Equal("/app_person/_doc/abc", r.Path)
	s.Contains(r.Query, "op_type=create")
	s.Contains(r.Query, "refresh=true")
	s.JSONEq(`{"name":"Ada"}`, r.Body)
	s.ig.AssertExpectations(s.T())
}

func (s *ManagerTestSuite) TestInsertConflict() {
	s.status = http.StatusConflict
	s.response = `{"error":"version_conflict_engine_exception"}`
	_, err := s.m.Insert(s.ctx, domain.NewEntity("person", domain.NewElement("_id", "1"), domain.NewElement("a", 1)))
	s.ErrorIs(err, domain.ErrDuplicateID)
}

func (s *ManagerTestSuite) TestInsertTTL() {
	_, err := s.m.Insert(s.ctx, domain.NewEntity("person", domain.NewElement("a", 1)), domain.WithTTL(1))
	s.ErrorIs(err, domain.ErrUnsupportedOperation)
	s.Empty(s.requests)
}

func (s *ManagerTestSuite) TestInsertError() {
	s.status = http.StatusBadRequest
	s.response = `{"error":"mapper_parsing_exception"}`
	_, err := s.m.Insert(s.ctx, domain.NewEntity("person", domain.NewElement("_id", "1"), domain.NewElement("a", 1)))
	var de *domain.ErrDriver
	s.ErrorAs(err, &de)
	s.Equal(ErrResponse{Status: http.StatusBadRequest, Body: s.response}, de.Err)
}

func (s *ManagerTestSuite) TestUpdateNotFound() {
	s.status = http.StatusNotFound
	_, err := s.m.Update(s.ctx, domain.NewEntity("person", domain.NewElement("_id", "1"), domain.NewElement("a", 1)))
	s.ErrorIs(err, domain.ErrNotFound)
	s.Equal(http.MethodHead, s.lastRequest().Method)

	_, err = s.m.Update(s.ctx, domain.NewEntity("person", domain.NewElement("a", 1)))
	s.ErrorIs(err, domain.ErrMissingID)
}

func (s *ManagerTestSuite) TestSelect() {
	s.response = `{"hits":{"total":{"value":1},"hits":[` +
		`{"_id":"1","_source":{"name":"Ada","age":36,"address":{"city":"London"}}},` +
		`{"_id":"2"}]}}`
	c := domain.Eq("name", "Ada")
	res, err := s.m.Select(s.ctx, domain.NewSelectQuery("person", domain.WithCondition(c), domain.WithLimit(2)))
	s.NoError(err)
	s.Equal([]*domain.Entity{
		domain.NewEntity("person",
			domain.NewElement("_id", "1"),
			domain.NewElement("name", "Ada"),
			domain.NewElement("age", int64(36)),
			domain.NewElement("address", []domain.Element{domain.NewElement("city", "London")}),
		),
		domain.NewEntity("person", domain.NewElement("_id", "2")),
	}, res)

	r := s.lastRequest()
	s.Equal("/app_person/_search", r.Path)
	var body map[string]any
	s.NoError(json.Unmarshal([]byte(r.Body), &body))
	s.Equal(float64(2), body["size"])
}

func (s *ManagerTestSuite) TestSelectMissingIndex() {
	s.status = http.StatusNotFound
	s.response = `{"error":{"type":"index_not_found_exception"}}`
	res, err := s.m.Select(s.ctx, domain.NewSelectQuery("person"))
	s.NoError(err)
	s.Empty(res)
}

func (s *ManagerTestSuite) TestDelete() {
	s.NoError(s.m.Delete(s.ctx, domain.NewDeleteQuery("person")))
	r := s.lastRequest()
	s.Equal("/app_person/_delete_by_query", r.Path)
	s.JSONEq(`{"query":{"match_all":{}}}`, r.Body)

	s.NoError(s.m.Delete(s.ctx, domain.NewDeleteQuery("person", domain.WithDeleteFields("a"))))
	r = s.lastRequest()
	s.Equal("/app_person/_update_by_query", r.Path)
	s.Contains(r.Body, "ctx._source.remove(params.f0);")
}

func (s *ManagerTestSuite) TestCount() {
	s.response = `{"count":3}`
	count, err := s.m.Count(s.ctx, "person")
	s.NoError(err)
	s.Equal(int64(3), count)
	s.Equal("/app_person/_count", s.lastRequest().Path)

	s.status = http.StatusNotFound
	count, err = s.m.Count(s.ctx, "person")
	s.NoError(err)
	s.Zero(count)
}

func (s *ManagerTestSuite) TestClosed() {
	s.NoError(s.m.Close(s.ctx))
	s.ErrorIs(s.m.Close(s.ctx), domain.ErrClosed)
	_, err := s.m.Count(s.ctx, "person")
	s.ErrorIs(err, domain.ErrClosed)
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}
