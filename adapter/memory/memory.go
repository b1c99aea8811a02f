// Package memory contains in-process implementations of [domain.Manager] and
// [domain.BucketManager].
//
// It is the reference adapter: conditions are evaluated by a
// [domain.Matcher] instead of being lowered into a query language, so every
// operator is supported, and it needs no running database.
package memory

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/matcher"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/persistence"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/projector"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/timegetter"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/ctxsync"
)

// Driver is the name reported in errors and logs.
const Driver = "memory"

// IDElement is the element holding the entity identifier.
const IDElement = "_id"

// Config configures the in-memory adapter.
type Config struct {
	// DefaultTTL applies to inserts and puts made without an explicit TTL.
	DefaultTTL time.Duration `yaml:"default_ttl"`
	// Filename is the datafile read by [Open]. Empty keeps everything in
	// memory only.
	Filename string `yaml:"filename"`
}

type record struct {
	entity  *domain.Entity
	expires time.Time
}

// Manager implements [domain.Manager].
type Manager struct {
	cfg            Config
	mu             *ctxsync.Mutex
	collections    map[string][]record
	closed         bool
	log            logrus.FieldLogger
	idGenerator    domain.IDGenerator
	matcher        domain.Matcher
	comparer       domain.Comparer
	fieldNavigator domain.FieldNavigator
	projector      domain.Projector
	timeGetter     domain.TimeGetter
	persistence    *persistence.Persistence
}

// NewManager returns a new implementation of [domain.Manager]. The manager
// starts empty and is never written to disk; use [Open] for a manager backed
// by Config.Filename.
func NewManager(cfg Config, options ...Option) domain.Manager {
	comp := comparer.NewComparer()
	fn := fieldnavigator.NewFieldNavigator()
	m := &Manager{
		cfg:            cfg,
		mu:             ctxsync.NewMutex(),
		collections:    make(map[string][]record),
		log:            logrus.StandardLogger(),
		idGenerator:    idgenerator.NewIDGenerator(),
		comparer:       comp,
		fieldNavigator: fn,
		projector:      projector.NewProjector(projector.WithKeep(IDElement)),
		timeGetter:     timegetter.NewTimeGetter(),
	}
	for _, option := range options {
		option(m)
	}
	if m.matcher == nil {
		m.matcher = matcher.NewMatcher(
			matcher.WithComparer(m.comparer),
			matcher.WithFieldNavigator(m.fieldNavigator),
		)
	}
	return m
}

// Open returns a manager loaded from Config.Filename. Every change is then
// appended to the datafile, which is compacted again on Close. Without a
// filename it is the same as [NewManager].
func Open(ctx context.Context, cfg Config, options ...Option) (*Manager, error) {
	m := NewManager(cfg, options...).(*Manager)
	if cfg.Filename == "" {
		return m, nil
	}
	p, err := persistence.NewPersistence(cfg.Filename, IDElement, persistence.WithLogger(m.log))
	if err != nil {
		return nil, err
	}
	records, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := m.timeGetter.GetTime()
	for _, rec := range records {
		if timegetter.Expired(now, rec.Expires) {
			continue
		}
		name := rec.Entity.Name()
		m.collections[name] = append(m.collections[name], record{entity: rec.Entity, expires: rec.Expires})
	}
	m.persistence = p
	m.log.WithFields(logrus.Fields{
		"driver":   Driver,
		"filename": cfg.Filename,
		"entities": len(records),
	}).Debug("open")
	return m, nil
}

func (m *Manager) lock(ctx context.Context) error {
	if err := m.mu.LockWithContext(ctx); err != nil {
		return err
	}
	if m.closed {
		m.mu.Unlock()
		return domain.ErrClosed
	}
	return nil
}

// Insert implements [domain.Manager].
func (m *Manager) Insert(ctx context.Context, entity *domain.Entity, options ...domain.InsertOption) (*domain.Entity, error) {
	res, err := m.InsertMany(ctx, []*domain.Entity{entity}, options...)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// InsertMany implements [domain.Manager]. Either every entity is stored or
// none is.
func (m *Manager) InsertMany(ctx context.Context, entities []*domain.Entity, options ...domain.InsertOption) ([]*domain.Entity, error) {
	opts := domain.NewInsertOptions(options...)
	ttl := opts.TTL
	if ttl == 0 {
		ttl = m.cfg.DefaultTTL
	}
	for _, e := range entities {
		if err := domain.ValidateEntity(e); err != nil {
			return nil, err
		}
	}

	if err := m.lock(ctx); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	now := m.timeGetter.GetTime()
	deadline := timegetter.Deadline(now, ttl)

	stored := make([]*domain.Entity, len(entities))
	pending := make(map[string][]record)
	for n, e := range entities {
		c := e.Clone()
		if _, ok := c.Find(IDElement); !ok {
			id, err := m.idGenerator.GenerateID()
			if err != nil {
				return nil, err
			}
			c.Add(IDElement, id)
		}
		name := c.Name()
		if m.indexOf(name, c.Value(IDElement), now) >= 0 || hasID(pending[name], c.Value(IDElement), m.comparer) {
			return nil, domain.ErrDuplicateID
		}
		pending[name] = append(pending[name], record{entity: c, expires: deadline})
		stored[n] = c.Clone()
	}
	if m.persistence != nil {
		toPersist := make([]persistence.Record, len(stored))
		for n, e := range stored {
			toPersist[n] = persistence.Record{Entity: e, Expires: deadline}
		}
		if err := m.persistence.Append(ctx, toPersist...); err != nil {
			return nil, err
		}
	}
	for name, records := range pending {
		m.collections[name] = append(m.collections[name], records...)
	}

	m.log.WithFields(logrus.Fields{
		"driver":   Driver,
		"entities": len(entities),
		"ttl":      ttl,
	}).Debug("insert")
	return stored, nil
}

// Update implements [domain.Manager]. The stored entity with the same _id is
// replaced; [domain.ErrNotFound] is returned when there is none.
func (m *Manager) Update(ctx context.Context, entity *domain.Entity) (*domain.Entity, error) {
	res, err := m.UpdateMany(ctx, []*domain.Entity{entity})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// UpdateMany implements [domain.Manager].
func (m *Manager) UpdateMany(ctx context.Context, entities []*domain.Entity) ([]*domain.Entity, error) {
	for _, e := range entities {
		if err := domain.ValidateEntity(e); err != nil {
			return nil, err
		}
		if _, ok := e.Find(IDElement); !ok {
			return nil, domain.ErrMissingID
		}
	}

	if err := m.lock(ctx); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	now := m.timeGetter.GetTime()
	positions := make([]int, len(entities))
	for n, e := range entities {
		positions[n] = m.indexOf(e.Name(), e.Value(IDElement), now)
		if positions[n] < 0 {
			return nil, domain.ErrNotFound
		}
	}

	if m.persistence != nil {
		toPersist := make([]persistence.Record, len(entities))
		for n, e := range entities {
			toPersist[n] = persistence.Record{
				Entity:  e,
				Expires: m.collections[e.Name()][positions[n]].expires,
			}
		}
		if err := m.persistence.Append(ctx, toPersist...); err != nil {
			return nil, err
		}
	}

	res := make([]*domain.Entity, len(entities))
	for n, e := range entities {
		records := m.collections[e.Name()]
		records[positions[n]].entity = e.Clone()
		res[n] = e.Clone()
	}
	m.log.WithFields(logrus.Fields{"driver": Driver, "entities": len(entities)}).Debug("update")
	return res, nil
}

// Delete implements [domain.Manager]. When the query names fields, only those
// elements are removed from matching entities.
func (m *Manager) Delete(ctx context.Context, query domain.DeleteQuery) error {
	if err := query.Validate(); err != nil {
		return err
	}
	if err := m.lock(ctx); err != nil {
		return err
	}
	defer m.mu.Unlock()

	now := m.timeGetter.GetTime()
	records := m.collections[query.Name]
	kept := make([]record, 0, len(records))
	var changes []persistence.Record
	removed := 0
	for _, r := range records {
		if timegetter.Expired(now, r.expires) {
			continue
		}
		ok, err := m.matches(r.entity, query.Condition)
		if err != nil {
			return err
		}
		switch {
		case !ok:
		case len(query.Fields) > 0:
			c := r.entity.Clone()
			for _, f := range query.Fields {
				if f != IDElement {
					c.Remove(f)
				}
			}
			r.entity = c
			changes = append(changes, persistence.Record{Entity: c, Expires: r.expires})
		default:
			changes = append(changes, persistence.Record{Entity: r.entity, Deleted: true})
			removed++
			continue
		}
		kept = append(kept, r)
	}

	if m.persistence != nil {
		if err := m.persistence.Append(ctx, changes...); err != nil {
			return err
		}
	}
	m.collections[query.Name] = kept

	m.log.WithFields(logrus.Fields{
		"driver":  Driver,
		"entity":  query.Name,
		"removed": removed,
	}).Debug("delete")
	return nil
}

// Select implements [domain.Manager].
func (m *Manager) Select(ctx context.Context, query domain.SelectQuery) ([]*domain.Entity, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := m.lock(ctx); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	now := m.timeGetter.GetTime()
	var res []*domain.Entity
	for _, r := range m.collections[query.Name] {
		if timegetter.Expired(now, r.expires) {
			continue
		}
		ok, err := m.matches(r.entity, query.Condition)
		if err != nil {
			return nil, err
		}
		if ok {
			res = append(res, r.entity)
		}
	}

	if err := m.sort(res, query.Sorts); err != nil {
		return nil, err
	}
	res = domain.Paginate(res, query.Skip, query.Limit)

	out := make([]*domain.Entity, len(res))
	for n, e := range res {
		out[n] = m.projector.Project(e.Clone(), query.Fields)
	}

	m.log.WithFields(logrus.Fields{
		"driver":  Driver,
		"entity":  query.Name,
		"results": len(out),
	}).Debug("select")
	return out, nil
}

// Count implements [domain.Manager].
func (m *Manager) Count(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, domain.ErrNoEntityName
	}
	if err := m.lock(ctx); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()

	now := m.timeGetter.GetTime()
	var count int64
	for _, r := range m.collections[name] {
		if !timegetter.Expired(now, r.expires) {
			count++
		}
	}
	return count, nil
}

// Close implements [domain.Manager].
func (m *Manager) Close(ctx context.Context) error {
	if err := m.lock(ctx); err != nil {
		return err
	}
	defer m.mu.Unlock()
	if m.persistence != nil {
		if err := m.persistence.Compact(ctx, m.live()); err != nil {
			return err
		}
	}
	m.closed = true
	m.collections = nil
	return nil
}

// live returns the records that have not expired, sorted by entity name.
func (m *Manager) live() []persistence.Record {
	now := m.timeGetter.GetTime()
	names := slices.Sorted(maps.Keys(m.collections))
	var res []persistence.Record
	for _, name := range names {
		for _, r := range m.collections[name] {
			if !timegetter.Expired(now, r.expires) {
				res = append(res, persistence.Record{Entity: r.entity, Expires: r.expires})
			}
		}
	}
	return res
}

func (m *Manager) matches(e *domain.Entity, c *domain.Condition) (bool, error) {
	if c == nil {
		return true, nil
	}
	return m.matcher.Match(e, *c)
}

// indexOf returns the position of the live entity with the given id.
func (m *Manager) indexOf(name string, id any, now time.Time) int {
	return slices.IndexFunc(m.collections[name], func(r record) bool {
		if timegetter.Expired(now, r.expires) {
			return false
		}
		comp, err := m.comparer.Compare(r.entity.Value(IDElement), id)
		return err == nil && comp == 0
	})
}

func hasID(records []record, id any, c domain.Comparer) bool {
	return slices.ContainsFunc(records, func(r record) bool {
		comp, err := c.Compare(r.entity.Value(IDElement), id)
		return err == nil && comp == 0
	})
}
