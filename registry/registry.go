// Package registry opens the adapter named by a configuration.
package registry

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/arangodb"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/cassandra"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/couchbase"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/couchdb"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/elasticsearch"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/instrumented"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/memory"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/mongodb"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/oraclenosql"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/orientdb"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/postgres"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/redis"
	"github.com/vinicius-lino-figueiredo/gnosql/config"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// ErrNoManager is returned by [Open] for drivers that only store key-value
// pairs.
var ErrNoManager = errors.New("driver has no entity manager")

// ErrNoBucket is returned by [OpenBucket] for drivers without a key-value
// store.
var ErrNoBucket = errors.New("driver has no bucket manager")

// Open returns the [domain.Manager] of cfg.Driver.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (domain.Manager, error) {
	o := newOptions(opts)
	m, err := open(ctx, cfg, o)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.Driver)
	}
	if o.scope != nil {
		return instrumented.NewManager(m, o.scope.Tagged(map[string]string{"driver": cfg.Driver})), nil
	}
	return m, nil
}

func open(ctx context.Context, cfg config.Config, o options) (domain.Manager, error) {
	switch cfg.Driver {
	case memory.Driver:
		m, err := memory.Open(ctx, cfg.Memory, memory.WithLogger(o.log))
		if err != nil {
			return nil, err
		}
		return m, nil
	case mongodb.Driver:
		return mongodb.New(ctx, cfg.MongoDB, mongodb.WithLogger(o.log))
	case cassandra.Driver:
		return cassandra.New(ctx, cfg.Cassandra, cassandra.WithLogger(o.log))
	case elasticsearch.Driver:
		return elasticsearch.New(ctx, cfg.Elasticsearch, elasticsearch.WithLogger(o.log))
	case arangodb.Driver:
		return arangodb.New(ctx, cfg.ArangoDB, arangodb.WithLogger(o.log))
	case couchbase.Driver:
		return couchbase.New(ctx, cfg.Couchbase, couchbase.WithLogger(o.log))
	case couchdb.Driver:
		return couchdb.New(ctx, cfg.CouchDB, couchdb.WithLogger(o.log))
	case orientdb.Driver:
		return orientdb.New(ctx, cfg.OrientDB, orientdb.WithLogger(o.log))
	case oraclenosql.Driver:
		return oraclenosql.New(ctx, cfg.OracleNoSQL, oraclenosql.WithLogger(o.log))
	case postgres.Driver:
		return postgres.New(ctx, cfg.Postgres, postgres.WithLogger(o.log))
	case redis.Driver:
		return nil, ErrNoManager
	}
	return nil, config.ErrUnknownDriver
}

// OpenBucket returns the [domain.BucketManager] of cfg.Driver.
func OpenBucket(ctx context.Context, cfg config.Config, opts ...Option) (domain.BucketManager, error) {
	o := newOptions(opts)
	b, err := openBucket(ctx, cfg, o)
	if err != nil {
		return nil, errors.Wrapf(err, "open bucket %s", cfg.Driver)
	}
	if o.scope != nil {
		return instrumented.NewBucketManager(b, o.scope.Tagged(map[string]string{"driver": cfg.Driver})), nil
	}
	return b, nil
}

func openBucket(ctx context.Context, cfg config.Config, o options) (domain.BucketManager, error) {
	switch cfg.Driver {
	case memory.Driver:
		return memory.NewBucketManager(cfg.Memory, memory.WithBucketLogger(o.log)), nil
	case couchbase.Driver:
		return couchbase.NewBucketManager(ctx, cfg.Couchbase, couchbase.WithBucketLogger(o.log))
	case oraclenosql.Driver:
		return oraclenosql.NewBucketManager(ctx, cfg.OracleNoSQL, oraclenosql.WithBucketLogger(o.log))
	case redis.Driver:
		return redis.New(ctx, cfg.Redis, redis.WithLogger(o.log))
	case mongodb.Driver, cassandra.Driver, elasticsearch.Driver, arangodb.Driver,
		couchdb.Driver, orientdb.Driver, postgres.Driver:
		return nil, ErrNoBucket
	}
	return nil, config.ErrUnknownDriver
}
