package instrumented

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally/v4"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/memory"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

type InstrumentedTestSuite struct {
	suite.Suite
	ctx   context.Context
	scope tally.TestScope
}

func (s *InstrumentedTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.scope = tally.NewTestScope("", map[string]string{})
}

func (s *InstrumentedTestSuite) counter(name string) int64 {
	c, ok := s.scope.Snapshot().Counters()[name]
	if !ok {
		return 0
	}
	return c.Value()
}

func (s *InstrumentedTestSuite) TestManager() {
	log, _ := test.NewNullLogger()
	next := memory.NewManager(memory.Config{}, memory.WithLogger(log))
	m := NewManager(next, s.scope)
	s.Same(next, m.Unwrap())

	e, err := m.Insert(s.ctx, domain.NewEntity("person", domain.NewElement("_id", "p1"), domain.NewElement("age", 3)))
	s.NoError(err)
	_, err = m.Insert(s.ctx, e)
	s.ErrorIs(err, domain.ErrDuplicateID)

	_, err = m.Update(s.ctx, domain.NewEntity("person", domain.NewElement("_id", "p2"), domain.NewElement("age", 4)))
	s.ErrorIs(err, domain.ErrNotFound)

	res, err := m.Select(s.ctx, domain.NewSelectQuery("person"))
	s.NoError(err)
	s.Len(res, 1)

	n, err := m.Count(s.ctx, "person")
	s.NoError(err)
	s.Equal(int64(1), n)

	s.NoError(m.Delete(s.ctx, domain.NewDeleteQuery("person")))
	s.NoError(m.Close(s.ctx))
	s.ErrorIs(m.Close(s.ctx), domain.ErrClosed)

	s.Equal(int64(1), s.counter("manager.insert+type=success"))
	s.Equal(int64(1), s.counter("manager.insert+type=fail"))
	s.Equal(int64(1), s.counter("manager.update+type=not_found"))
	s.Equal(int64(0), s.counter("manager.update+type=fail"))
	s.Equal(int64(1), s.counter("manager.select+type=success"))
	s.Equal(int64(1), s.counter("manager.selected+"))
	s.Equal(int64(1), s.counter("manager.count+type=success"))
	s.Equal(int64(1), s.counter("manager.delete+type=success"))
	s.Equal(int64(1), s.counter("manager.close+type=success"))
	s.Equal(int64(1), s.counter("manager.close+type=fail"))

	timers := s.scope.Snapshot().Timers()
	s.Contains(timers, "manager.insert_latency+")
	s.Len(timers["manager.insert_latency+"].Values(), 2)
}

func (s *InstrumentedTestSuite) TestManyOperations() {
	log, _ := test.NewNullLogger()
	m := NewManager(memory.NewManager(memory.Config{}, memory.WithLogger(log)), s.scope)

	res, err := m.InsertMany(s.ctx, []*domain.Entity{
		domain.NewEntity("person", domain.NewElement("_id", "a"), domain.NewElement("age", 1)),
		domain.NewEntity("person", domain.NewElement("_id", "b"), domain.NewElement("age", 2)),
	})
	s.NoError(err)
	_, err = m.UpdateMany(s.ctx, res)
	s.NoError(err)

	s.Equal(int64(1), s.counter("manager.insert_many+type=success"))
	s.Equal(int64(1), s.counter("manager.update_many+type=success"))
}

func (s *InstrumentedTestSuite) TestBucket() {
	log, _ := test.NewNullLogger()
	next := memory.NewBucketManager(memory.Config{}, memory.WithBucketLogger(log))
	b := NewBucketManager(next, s.scope)
	s.Same(next, b.Unwrap())

	s.NoError(b.Put(s.ctx, domain.NewKeyValue("a", 1)))
	s.NoError(b.PutMany(s.ctx, []domain.KeyValue{domain.NewKeyValue("b", 2)}))
	s.Error(b.Put(s.ctx, domain.NewKeyValue("c", make(chan int))))

	v, err := b.Get(s.ctx, "a")
	s.NoError(err)
	s.Equal("1", v.String())
	_, err = b.Get(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrNotFound)

	kvs, err := b.GetMany(s.ctx, "a", "b")
	s.NoError(err)
	s.Len(kvs, 2)

	s.NoError(b.Delete(s.ctx, "a"))
	s.NoError(b.Close(s.ctx))

	s.Equal(int64(1), s.counter("bucket.put+type=success"))
	s.Equal(int64(1), s.counter("bucket.put+type=fail"))
	s.Equal(int64(1), s.counter("bucket.put_many+type=success"))
	s.Equal(int64(1), s.counter("bucket.get+type=success"))
	s.Equal(int64(1), s.counter("bucket.get+type=not_found"))
	s.Equal(int64(1), s.counter("bucket.get_many+type=success"))
	s.Equal(int64(1), s.counter("bucket.delete+type=success"))
	s.Equal(int64(1), s.counter("bucket.close+type=success"))
}

func TestInstrumentedTestSuite(t *testing.T) {
	suite.Run(t, new(InstrumentedTestSuite))
}
