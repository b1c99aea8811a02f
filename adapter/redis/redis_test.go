package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

type BucketTestSuite struct {
	suite.Suite
	ctx  context.Context
	mr   *miniredis.Miniredis
	b    *Bucket
	hook *test.Hook
}

func (s *BucketTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.mr = miniredis.RunT(s.T())
	client := goredis.NewClient(&goredis.Options{Addr: s.mr.Addr()})
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	s.hook = hook
	s.b = NewWithClient(client, "app:", WithLogger(log))
}

func (s *BucketTestSuite) TearDownTest() {
	_ = s.b.Close(s.ctx)
}

func (s *BucketTestSuite) TestPutGet() {
	s.NoError(s.b.Put(s.ctx, domain.NewKeyValue("name", "Ada")))
	s.NoError(s.b.Put(s.ctx, domain.NewKeyValue("person", map[string]any{"age": 36})))

	raw, err := s.mr.Get("app:name")
	s.NoError(err)
	s.Equal("Ada", raw)

	v, err := s.b.Get(s.ctx, "person")
	s.NoError(err)
	var p struct {
		Age int `json:"age"`
	}
	s.NoError(v.Decode(&p))
	s.Equal(36, p.Age)

	_, err = s.b.Get(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrNotFound)
	s.Equal("get", s.hook.LastEntry().Message)
}

func (s *BucketTestSuite) TestTTL() {
	s.NoError(s.b.Put(s.ctx, domain.NewKeyValue("session", "x"), domain.WithPutTTL(time.Minute)))
	s.Equal(time.Minute, s.mr.TTL("app:session"))

	s.mr.FastForward(2 * time.Minute)
	_, err := s.b.Get(s.ctx, "session")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *BucketTestSuite) TestPutManyGetMany() {
	s.NoError(s.b.PutMany(s.ctx, []domain.KeyValue{
		domain.NewKeyValue("a", "1"),
		domain.NewKeyValue("b", 2),
	}))

	kvs, err := s.b.GetMany(s.ctx, "a", "missing", "b")
	s.NoError(err)
	s.Equal([]domain.KeyValue{
		domain.NewKeyValue("a", domain.Value("1")),
		domain.NewKeyValue("b", domain.Value("2")),
	}, kvs)

	kvs, err = s.b.GetMany(s.ctx)
	s.NoError(err)
	s.Empty(kvs)
}

func (s *BucketTestSuite) TestDelete() {
	s.NoError(s.b.Put(s.ctx, domain.NewKeyValue("a", "1")))
	s.NoError(s.b.Delete(s.ctx, "a", "missing"))
	s.False(s.mr.Exists("app:a"))
	s.NoError(s.b.Delete(s.ctx))
}

func (s *BucketTestSuite) TestEncodeError() {
	err := s.b.Put(s.ctx, domain.NewKeyValue("c", make(chan int)))
	s.Error(err)
	s.False(s.mr.Exists("app:c"))
}

func (s *BucketTestSuite) TestDriverError() {
	s.mr.Close()
	_, err := s.b.Get(s.ctx, "a")
	var de *domain.ErrDriver
	s.ErrorAs(err, &de)
	s.Equal(Driver, de.Driver)
	s.Equal(logrus.ErrorLevel, s.hook.LastEntry().Level)
}

func (s *BucketTestSuite) TestClosed() {
	s.NoError(s.b.Close(s.ctx))
	s.ErrorIs(s.b.Close(s.ctx), domain.ErrClosed)
	s.ErrorIs(s.b.Put(s.ctx, domain.NewKeyValue("a", 1)), domain.ErrClosed)
	_, err := s.b.Get(s.ctx, "a")
	s.ErrorIs(err, domain.ErrClosed)
	_, err = s.b.Counter("c").Increment(s.ctx, 1)
	s.ErrorIs(err, domain.ErrClosed)
}

func (s *BucketTestSuite) TestCounter() {
	c := s.b.Counter("visits")

	n, err := c.Get(s.ctx)
	s.NoError(err)
	s.Zero(n)

	n, err = c.Increment(s.ctx, 5)
	s.NoError(err)
	s.Equal(int64(5), n)

	n, err = c.Decrement(s.ctx, 2)
	s.NoError(err)
	s.Equal(int64(3), n)

	n, err = c.Get(s.ctx)
	s.NoError(err)
	s.Equal(int64(3), n)

	s.NoError(c.Delete(s.ctx))
	s.False(s.mr.Exists("app:visits"))
}

func (s *BucketTestSuite) TestSortedSet() {
	z := s.b.SortedSet("ranking")

	s.NoError(z.Add(s.ctx, "ada", 10))
	s.NoError(z.Add(s.ctx, "grace", 30))
	s.NoError(z.Add(s.ctx, "alan", 20))

	score, err := z.Increment(s.ctx, "ada", 25)
	s.NoError(err)
	s.Equal(35.0, score)

	score, err = z.Score(s.ctx, "alan")
	s.NoError(err)
	s.Equal(20.0, score)

	_, err = z.Score(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrNotFound)

	ranked, err := z.Range(s.ctx, 0, -1)
	s.NoError(err)
	s.Equal([]Ranked{{"alan", 20}, {"grace", 30}, {"ada", 35}}, ranked)

	ranked, err = z.RevRange(s.ctx, 0, 1)
	s.NoError(err)
	s.Equal([]Ranked{{"ada", 35}, {"grace", 30}}, ranked)

	s.NoError(z.Remove(s.ctx, "grace", "missing"))
	n, err := z.Size(s.ctx)
	s.NoError(err)
	s.Equal(int64(2), n)

	s.NoError(z.Delete(s.ctx))
	s.False(s.mr.Exists("app:ranking"))
}

func TestBucketTestSuite(t *testing.T) {
	suite.Run(t, new(BucketTestSuite))
}
