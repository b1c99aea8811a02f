package config

import (
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/arangodb"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/cassandra"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/couchbase"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/couchdb"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/elasticsearch"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/memory"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/mongodb"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/oraclenosql"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/orientdb"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/postgres"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/redis"
)

// ErrUnknownDriver is returned when the configured driver has no adapter.
var ErrUnknownDriver = errors.New("unknown driver")

// MetricsConfig configures the metrics scope wrapped around managers.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
	// Interval is how often metrics are reported.
	Interval time.Duration `yaml:"interval"`
}

// Config is the root configuration. Only the section named by Driver is
// validated, so files can keep settings for several engines.
type Config struct {
	Driver  string        `yaml:"driver" validate:"nonzero"`
	Metrics MetricsConfig `yaml:"metrics"`

	Memory        memory.Config        `yaml:"memory" validate:"-"`
	MongoDB       mongodb.Config       `yaml:"mongodb" validate:"-"`
	Cassandra     cassandra.Config     `yaml:"cassandra" validate:"-"`
	Elasticsearch elasticsearch.Config `yaml:"elasticsearch" validate:"-"`
	ArangoDB      arangodb.Config      `yaml:"arangodb" validate:"-"`
	Couchbase     couchbase.Config     `yaml:"couchbase" validate:"-"`
	CouchDB       couchdb.Config       `yaml:"couchdb" validate:"-"`
	OrientDB      orientdb.Config      `yaml:"orientdb" validate:"-"`
	OracleNoSQL   oraclenosql.Config   `yaml:"oraclenosql" validate:"-"`
	Postgres      postgres.Config      `yaml:"postgres" validate:"-"`
	Redis         redis.Config         `yaml:"redis" validate:"-"`
}

// Drivers lists the driver names accepted in [Config.Driver].
func Drivers() []string {
	return []string{
		memory.Driver,
		mongodb.Driver,
		cassandra.Driver,
		elasticsearch.Driver,
		arangodb.Driver,
		couchbase.Driver,
		couchdb.Driver,
		orientdb.Driver,
		oraclenosql.Driver,
		postgres.Driver,
		redis.Driver,
	}
}

// Section returns a pointer to the adapter configuration of driver.
func (c *Config) Section(driver string) (any, error) {
	switch driver {
	case memory.Driver:
		return &c.Memory, nil
	case mongodb.Driver:
		return &c.MongoDB, nil
	case cassandra.Driver:
		return &c.Cassandra, nil
	case elasticsearch.Driver:
		return &c.Elasticsearch, nil
	case arangodb.Driver:
		return &c.ArangoDB, nil
	case couchbase.Driver:
		return &c.Couchbase, nil
	case couchdb.Driver:
		return &c.CouchDB, nil
	case orientdb.Driver:
		return &c.OrientDB, nil
	case oraclenosql.Driver:
		return &c.OracleNoSQL, nil
	case postgres.Driver:
		return &c.Postgres, nil
	case redis.Driver:
		return &c.Redis, nil
	}
	return nil, errors.Wrap(ErrUnknownDriver, driver)
}

// Validate checks the section of the selected driver.
func (c *Config) Validate() error {
	if !slices.Contains(Drivers(), c.Driver) {
		return errors.Wrap(ErrUnknownDriver, c.Driver)
	}
	section, err := c.Section(c.Driver)
	if err != nil {
		return err
	}
	return validate(section)
}
