package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// client runs subcommands against an opened manager or bucket and prints
// results to out, one JSON document per line.
type client struct {
	manager domain.Manager
	bucket  domain.BucketManager
	out     io.Writer
}

func (c *client) print(v any) error {
	return json.NewEncoder(c.out).Encode(v)
}

func (c *client) countAction(ctx context.Context, name string) error {
	n, err := c.manager.Count(ctx, name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, n)
	return err
}

func (c *client) findAction(ctx context.Context, name string, where, fields, sorts []string, skip, limit int64) error {
	cond, err := parseWhere(where)
	if err != nil {
		return err
	}
	query := domain.NewSelectQuery(name,
		domain.WithFields(fields...),
		domain.WithSort(parseSort(sorts)...),
		domain.WithSkip(skip),
		domain.WithLimit(limit),
	)
	query.Condition = cond
	entities, err := c.manager.Select(ctx, query)
	if err != nil {
		return err
	}
	for _, e := range entities {
		if err := c.print(e.Map()); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) insertAction(ctx context.Context, name, doc string, ttl time.Duration) error {
	e, err := data.ParseEntity(name, []byte(doc))
	if err != nil {
		return err
	}
	stored, err := c.manager.Insert(ctx, e, domain.WithTTL(ttl))
	if err != nil {
		return err
	}
	return c.print(stored.Map())
}

func (c *client) deleteAction(ctx context.Context, name string, where, fields []string) error {
	cond, err := parseWhere(where)
	if err != nil {
		return err
	}
	query := domain.NewDeleteQuery(name, domain.WithDeleteFields(fields...))
	query.Condition = cond
	return c.manager.Delete(ctx, query)
}

func (c *client) getAction(ctx context.Context, keys []string) error {
	kvs, err := c.bucket.GetMany(ctx, keys...)
	if err != nil {
		return err
	}
	for _, kv := range kvs {
		v, _ := kv.Value.(domain.Value)
		if _, err := fmt.Fprintf(c.out, "%s\t%s\n", kv.Key, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) putAction(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.bucket.Put(ctx, domain.NewKeyValue(key, value), domain.WithPutTTL(ttl))
}
