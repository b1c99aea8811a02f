package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

type SQLTestSuite struct {
	suite.Suite
}

func (s *SQLTestSuite) TestTable() {
	s.Equal(`"person"`, Table("person"))
	s.Equal(`"we""ird"`, Table(`we"ird`))
	s.Equal(`CREATE TABLE IF NOT EXISTS "person" (id text PRIMARY KEY, doc jsonb NOT NULL)`,
		CreateTableStatement("person"))
}

func (s *SQLTestSuite) TestPathLiteral() {
	s.Equal(`'{"name"}'`, pathLiteral("name"))
	s.Equal(`'{"address","city"}'`, pathLiteral("address.city"))
	s.Equal(`'{"it''s","a\"b"}'`, pathLiteral(`it's.a"b`))
}

func (s *SQLTestSuite) TestSelect() {
	stmt, err := SelectStatement(domain.NewSelectQuery("person"))
	s.NoError(err)
	s.Equal(`SELECT id, doc FROM "person"`, stmt.SQL)
	s.Empty(stmt.Args)

	stmt, err = SelectStatement(domain.NewSelectQuery("person",
		domain.WithCondition(domain.Gt("age", 10)),
		domain.WithSort(domain.SortAsc("name"), domain.SortDesc("_id")),
		domain.WithSkip(5),
		domain.WithLimit(10),
	))
	s.NoError(err)
	s.Equal(`SELECT id, doc FROM "person" WHERE doc #> '{"age"}' > $1::jsonb`+
		` ORDER BY doc #> '{"name"}' ASC, id DESC LIMIT 10 OFFSET 5`, stmt.SQL)
	s.Equal([]any{"10"}, stmt.Args)
}

func (s *SQLTestSuite) TestWhere() {
	stmt, err := SelectStatement(domain.NewSelectQuery("person", domain.WithCondition(
		domain.And(
			domain.Eq("_id", "p1"),
			domain.Or(domain.Like("name", "A%"), domain.In("address.city", "Paris", "Rome")),
			domain.Not(domain.Between("age", 3, 4)),
		),
	)))
	s.NoError(err)
	s.Equal(`SELECT id, doc FROM "person" WHERE (id = $1 AND`+
		` (doc #>> '{"name"}' LIKE $2 OR doc #> '{"address","city"}' IN ($3::jsonb, $4::jsonb)) AND`+
		` NOT (doc #> '{"age"}' BETWEEN $5::jsonb AND $6::jsonb))`, stmt.SQL)
	s.Equal([]any{"p1", "A%", `"Paris"`, `"Rome"`, "3", "4"}, stmt.Args)
}

func (s *SQLTestSuite) TestEmptyIn() {
	stmt, err := SelectStatement(domain.NewSelectQuery("person", domain.WithCondition(domain.In("age"))))
	s.NoError(err)
	s.Equal(`SELECT id, doc FROM "person" WHERE false`, stmt.SQL)
}

func (s *SQLTestSuite) TestInvalid() {
	_, err := SelectStatement(domain.NewSelectQuery("person", domain.WithCondition(domain.And())))
	var target domain.ErrInvalidCondition
	s.ErrorAs(err, &target)

	_, err = SelectStatement(domain.NewSelectQuery("person", domain.WithCondition(domain.Eq("a", make(chan int)))))
	s.Error(err)
}

func (s *SQLTestSuite) TestDelete() {
	stmt, err := DeleteStatement(domain.NewDeleteQuery("person"))
	s.NoError(err)
	s.Equal(`DELETE FROM "person"`, stmt.SQL)

	stmt, err = DeleteStatement(domain.NewDeleteQuery("person",
		domain.WithDeleteFields("nick", "_id", "address.zip"),
		domain.WithDeleteCondition(domain.Eq("active", false)),
	))
	s.NoError(err)
	s.Equal(`UPDATE "person" SET doc = doc #- '{"nick"}' #- '{"address","zip"}'`+
		` WHERE doc #> '{"active"}' = $1::jsonb`, stmt.SQL)
	s.Equal([]any{"false"}, stmt.Args)

	stmt, err = DeleteStatement(domain.NewDeleteQuery("person", domain.WithDeleteFields("_id")))
	s.NoError(err)
	s.Empty(stmt.SQL)
}

func (s *SQLTestSuite) TestWriteStatements() {
	s.Equal(`INSERT INTO "person" (id, doc) VALUES ($1, $2)`, InsertStatement("person"))
	s.Equal(`UPDATE "person" SET doc = $2 WHERE id = $1`, UpdateStatement("person"))
	s.Equal(`SELECT count(*) FROM "person"`, CountStatement("person"))
}

func (s *SQLTestSuite) TestDocument() {
	id, doc, err := document(domain.NewEntity("person",
		domain.NewElement("_id", 7),
		domain.NewElement("name", "Ada"),
	))
	s.NoError(err)
	s.Equal("7", id)
	s.JSONEq(`{"name":"Ada"}`, string(doc))

	e, err := rowEntity("person", "7", []byte(`{"name":"Ada","age":36}`))
	s.NoError(err)
	s.Equal([]string{"_id", "name", "age"}, e.Names())
	s.Equal("7", e.Value("_id"))
}

func (s *SQLTestSuite) TestCountWithoutName() {
	m := &Manager{}
	_, err := m.Count(context.Background(), "")
	s.ErrorIs(err, domain.ErrNoEntityName)
}

func TestSQLTestSuite(t *testing.T) {
	suite.Run(t, new(SQLTestSuite))
}
