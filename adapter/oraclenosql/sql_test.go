package oraclenosql

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/oracle/nosql-go-sdk/nosqldb/types"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

type SQLTestSuite struct {
	suite.Suite
}

func (s *SQLTestSuite) TestSelectAll() {
	stmt, err := SelectStatement(domain.NewSelectQuery("person"), "id")
	s.NoError(err)
	s.Equal("SELECT * FROM person t", stmt.SQL)
	s.Empty(stmt.Vars)
}

func (s *SQLTestSuite) TestSelectOptions() {
	stmt, err := SelectStatement(domain.NewSelectQuery("person",
		domain.WithFields("name", "id", "address.city"),
		domain.WithCondition(domain.Gte("age", 18)),
		domain.WithSort(domain.SortAsc("name"), domain.SortDesc("age")),
		domain.WithSkip(5),
		domain.WithLimit(10),
	), "id")
	s.NoError(err)
	s.Equal("DECLARE $age INTEGER; SELECT t.id, t.name, t.address.city FROM person t"+
		" WHERE t.age >= $age ORDER BY t.name ASC, t.age DESC LIMIT 10 OFFSET 5", stmt.SQL)
	s.Equal(map[string]any{"$age": 18}, stmt.Vars)
}

func (s *SQLTestSuite) TestWhere() {
	at := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	stmt, err := SelectStatement(domain.NewSelectQuery("person", domain.WithCondition(
		domain.And(
			domain.Like("name", "A_a%"),
			domain.Or(domain.In("city", "Paris", "Rome"), domain.Lt("born", at)),
			domain.Not(domain.Between("score", 1.5, int64(3))),
		),
	)), "id")
	s.NoError(err)
	s.Equal("DECLARE $name STRING; $city STRING; $city_1 STRING; $born TIMESTAMP;"+
		" $score DOUBLE; $score_1 LONG;"+
		" SELECT * FROM person t WHERE (regex_like(t.name, $name) AND"+
		" (t.city IN ($city, $city_1) OR t.born < $born) AND"+
		" NOT (t.score >= $score AND t.score <= $score_1))", stmt.SQL)
	s.Equal(map[string]any{
		"$name":    "A.a.*",
		"$city":    "Paris",
		"$city_1":  "Rome",
		"$born":    at,
		"$score":   1.5,
		"$score_1": int64(3),
	}, stmt.Vars)
}

func (s *SQLTestSuite) TestEmptyIn() {
	stmt, err := SelectStatement(domain.NewSelectQuery("person",
		domain.WithCondition(domain.In("city")),
	), "id")
	s.NoError(err)
	s.Equal("SELECT * FROM person t WHERE false", stmt.SQL)
}

func (s *SQLTestSuite) TestInvalid() {
	_, err := SelectStatement(domain.NewSelectQuery("person",
		domain.WithCondition(domain.Or()),
	), "id")
	var target domain.ErrInvalidCondition
	s.ErrorAs(err, &target)
}

func (s *SQLTestSuite) TestDelete() {
	stmt, err := DeleteStatement(domain.NewDeleteQuery("person"), "id")
	s.NoError(err)
	s.Equal("DELETE FROM person t", stmt.SQL)

	stmt, err = DeleteStatement(domain.NewDeleteQuery("person",
		domain.WithDeleteCondition(domain.Eq("id", "p1")),
		domain.WithDeleteFields("id", "age", "nick"),
	), "id")
	s.NoError(err)
	s.Equal("DECLARE $id STRING; UPDATE person t REMOVE t.age, REMOVE t.nick WHERE t.id = $id", stmt.SQL)
	s.Equal(map[string]any{"$id": "p1"}, stmt.Vars)

	stmt, err = DeleteStatement(domain.NewDeleteQuery("person", domain.WithDeleteFields("id")), "id")
	s.NoError(err)
	s.Empty(stmt.SQL)
}

func (s *SQLTestSuite) TestCount() {
	s.Equal("SELECT count(*) AS count FROM person t", CountStatement("person").SQL)
}

func (s *SQLTestSuite) TestVarType() {
	s.Equal("INTEGER", VarType(1))
	s.Equal("LONG", VarType(int64(1)))
	s.Equal("LONG", VarType(math.MaxInt32+1))
	s.Equal("LONG", VarType(math.MinInt32-1))
	s.Equal("INTEGER", VarType(math.MinInt32))
	s.Equal("LONG", VarType(uint64(7)))
	s.Equal("NUMBER", VarType(uint64(math.MaxUint64)))
	s.Equal("DOUBLE", VarType(float32(1)))
	s.Equal("BOOLEAN", VarType(true))
	s.Equal("BINARY", VarType([]byte("x")))
	s.Equal("JSON", VarType(map[string]any{}))
	s.Equal("ANY", VarType(nil))
}

func (s *SQLTestSuite) TestTimeToLive() {
	s.Nil(timeToLive(0))
	s.Equal(&types.TimeToLive{Value: 1, Unit: types.Hours}, timeToLive(time.Minute))
	s.Equal(&types.TimeToLive{Value: 3, Unit: types.Hours}, timeToLive(2*time.Hour+time.Second))
	s.Equal(&types.TimeToLive{Value: 2, Unit: types.Days}, timeToLive(48*time.Hour))
}

func (s *SQLTestSuite) TestFromValue() {
	row := map[string]any{
		"id":   "p1",
		"tags": []any{map[string]any{"a": 1}},
		"doc":  types.NewMapValue(map[string]any{"b": true}),
	}
	e := rowEntity("person", types.NewMapValue(row))
	s.Equal([]string{"doc", "id", "tags"}, e.Names())
	s.Equal([]domain.Element{domain.NewElement("b", true)}, e.Value("doc"))
	s.Equal([][]domain.Element{{domain.NewElement("a", 1)}}, e.Value("tags"))
}

func (s *SQLTestSuite) TestCountWithoutName() {
	m := &Manager{}
	_, err := m.Count(context.Background(), "")
	s.ErrorIs(err, domain.ErrNoEntityName)
}

func TestSQLTestSuite(t *testing.T) {
	suite.Run(t, new(SQLTestSuite))
}
