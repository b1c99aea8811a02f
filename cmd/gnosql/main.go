// Command gnosql runs queries and key-value operations against any
// configured driver.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	"github.com/vinicius-lino-figueiredo/gnosql/config"
	"github.com/vinicius-lino-figueiredo/gnosql/registry"
	"gopkg.in/alecthomas/kingpin.v2"
)

const defaultMetricsInterval = time.Second

var (
	version string

	app = kingpin.New("gnosql", "Query NoSQL databases through a single model")

	debug = app.Flag(
		"debug", "enable debug logging of native statements").
		Short('d').
		Default("false").
		Envar("GNOSQL_DEBUG").
		Bool()

	cfgFiles = app.Flag(
		"config",
		"YAML config files (can be provided multiple times to merge configs)").
		Short('c').
		Envar("GNOSQL_CONFIG").
		Required().
		ExistingFiles()

	driver = app.Flag(
		"driver",
		"driver to use (config driver override) (set $GNOSQL_DRIVER to override)").
		Envar("GNOSQL_DRIVER").
		Enum(config.Drivers()...)

	timeout = app.Flag(
		"timeout",
		"deadline of the whole command").
		Short('t').
		Default("30s").
		Envar("GNOSQL_TIMEOUT").
		Duration()

	count     = app.Command("count", "count the entities stored under a name")
	countName = count.Arg("name", "entity name").Required().String()

	find       = app.Command("find", "select entities")
	findName   = find.Arg("name", "entity name").Required().String()
	findWhere  = find.Flag("where", "condition as field<op>value, op one of = != > >= < <= ~ (repeatable, joined with AND)").Short('w').Strings()
	findFields = find.Flag("field", "field to return (repeatable)").Short('f').Strings()
	findSort   = find.Flag("sort", "sort field, prefix with - for descending (repeatable)").Short('s').Strings()
	findSkip   = find.Flag("skip", "entities to skip").Default("0").Int64()
	findLimit  = find.Flag("limit", "maximum entities to return, 0 for all").Short('n').Default("0").Int64()

	insert     = app.Command("insert", "insert an entity from a JSON document")
	insertName = insert.Arg("name", "entity name").Required().String()
	insertDoc  = insert.Arg("document", "JSON document").Required().String()
	insertTTL  = insert.Flag("ttl", "expiry of the entity").Duration()

	del       = app.Command("delete", "delete entities or some of their fields")
	delName   = del.Arg("name", "entity name").Required().String()
	delWhere  = del.Flag("where", "condition as field<op>value (repeatable, joined with AND)").Short('w').Strings()
	delFields = del.Flag("field", "remove only this field (repeatable)").Short('f').Strings()

	get     = app.Command("get", "read values from the key-value store")
	getKeys = get.Arg("keys", "keys to read").Required().Strings()

	put      = app.Command("put", "write a value to the key-value store")
	putKey   = put.Arg("key", "key").Required().String()
	putValue = put.Arg("value", "value").Required().String()
	putTTL   = put.Flag("ttl", "expiry of the value").Duration()
)

func main() {
	// .env is optional and only fills variables not already set.
	_ = godotenv.Load()

	app.Version(version)
	app.HelpFlag.Short('h')
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stderr)
	level := log.InfoLevel
	if *debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	var cfg config.Config
	if *driver != "" {
		cfg.Driver = *driver
	}
	err := config.Parse(&cfg, *cfgFiles...)
	app.FatalIfError(err, "cannot parse config")
	if *driver != "" && cfg.Driver != *driver {
		cfg.Driver = *driver
		app.FatalIfError(cfg.Validate(), "invalid config for %s", *driver)
	}

	opts := []registry.Option{registry.WithLogger(log.StandardLogger())}
	if cfg.Metrics.Enabled {
		interval := cfg.Metrics.Interval
		if interval <= 0 {
			interval = defaultMetricsInterval
		}
		scope, closer := tally.NewRootScope(tally.ScopeOptions{
			Prefix:   cfg.Metrics.Prefix,
			Reporter: logReporter{log: log.StandardLogger()},
		}, interval)
		defer closer.Close()
		opts = append(opts, registry.WithScope(scope))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c := &client{out: os.Stdout}
	switch cmd {
	case get.FullCommand(), put.FullCommand():
		c.bucket, err = registry.OpenBucket(ctx, cfg, opts...)
		app.FatalIfError(err, "cannot open bucket")
		defer c.bucket.Close(ctx)
	default:
		c.manager, err = registry.Open(ctx, cfg, opts...)
		app.FatalIfError(err, "cannot open manager")
		defer c.manager.Close(ctx)
	}

	switch cmd {
	case count.FullCommand():
		err = c.countAction(ctx, *countName)
	case find.FullCommand():
		err = c.findAction(ctx, *findName, *findWhere, *findFields, *findSort, *findSkip, *findLimit)
	case insert.FullCommand():
		err = c.insertAction(ctx, *insertName, *insertDoc, *insertTTL)
	case del.FullCommand():
		err = c.deleteAction(ctx, *delName, *delWhere, *delFields)
	case get.FullCommand():
		err = c.getAction(ctx, *getKeys)
	case put.FullCommand():
		err = c.putAction(ctx, *putKey, *putValue, *putTTL)
	}
	if err != nil {
		log.WithError(err).WithField("command", cmd).Error("command failed")
		// deferred closes are skipped by os.Exit
		if c.manager != nil {
			_ = c.manager.Close(ctx)
		}
		if c.bucket != nil {
			_ = c.bucket.Close(ctx)
		}
		os.Exit(1)
	}
}
