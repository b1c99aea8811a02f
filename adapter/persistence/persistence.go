// Package persistence keeps the content of the memory adapter in a local
// datafile.
//
// The datafile is append-only: every change adds one line per entity and
// deletions add a tombstone. When the file is loaded, lines are replayed in
// order and the result is written back as a compacted file.
package persistence

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dolmen-go/contextio"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/deserializer"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/serializer"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/storage"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

const (
	DefaultDirMode  os.FileMode = 0o755
	DefaultFileMode os.FileMode = 0o644

	// DefaultCorruptAlertThreshold is the share of unreadable lines
	// tolerated when loading a datafile.
	DefaultCorruptAlertThreshold = 0.1
)

// Reserved members of a datafile line.
const (
	entityKey  = "$$entity"
	expiresKey = "$$expires"
	deletedKey = "$$deleted"
	docKey     = "doc"
)

// ErrDatafileName is returned for filenames that cannot be used.
type ErrDatafileName struct {
	Name   string
	Reason string
}

// Error implements [error].
func (e ErrDatafileName) Error() string {
	return fmt.Sprintf("invalid datafile name %q: %s", e.Name, e.Reason)
}

// ErrCorruptFiles is returned when too many lines of the datafile cannot be
// read.
type ErrCorruptFiles struct {
	CorruptionRate        float64
	CorruptItems          int
	DataLength            int
	CorruptAlertThreshold float64
}

// Error implements [error].
func (e ErrCorruptFiles) Error() string {
	return fmt.Sprintf(
		"%.1f%% of the data file is corrupt (%d of %d lines), more than the given threshold of %.1f%%",
		e.CorruptionRate*100, e.CorruptItems, e.DataLength, e.CorruptAlertThreshold*100,
	)
}

// Record is the stored state of one entity.
type Record struct {
	Entity *domain.Entity
	// Expires is the zero time for entities without expiry.
	Expires time.Time
	// Deleted records are written as tombstones holding only the id.
	Deleted bool
}

// Persistence reads and writes a datafile.
type Persistence struct {
	filename              string
	idElement             string
	corruptAlertThreshold float64
	fileMode              os.FileMode
	dirMode               os.FileMode
	storage               *storage.Storage
	serializer            *serializer.Serializer
	deserializer          *deserializer.Deserializer
	log                   logrus.FieldLogger
}

// NewPersistence returns a Persistence for filename. Entities are identified
// by idElement.
func NewPersistence(filename string, idElement string, options ...Option) (*Persistence, error) {
	if filename == "" {
		return nil, ErrDatafileName{Name: filename, Reason: "cannot be empty"}
	}
	if strings.HasSuffix(filename, "~") {
		return nil, ErrDatafileName{Name: filename, Reason: "cannot end with '~', reserved for backup files"}
	}
	p := &Persistence{
		filename:              filename,
		idElement:             idElement,
		corruptAlertThreshold: DefaultCorruptAlertThreshold,
		fileMode:              DefaultFileMode,
		dirMode:               DefaultDirMode,
		storage:               storage.NewStorage(),
		serializer:            serializer.NewSerializer(),
		deserializer:          deserializer.NewDeserializer(),
		log:                   logrus.StandardLogger(),
	}
	for _, option := range options {
		option(p)
	}
	return p, nil
}

// Filename returns the datafile path.
func (p *Persistence) Filename() string {
	return p.filename
}

// Load replays the datafile and returns the live records in the order they
// were first stored. The file is compacted afterwards.
func (p *Persistence) Load(ctx context.Context) ([]Record, error) {
	if err := p.storage.EnsureParentDirectoryExists(p.filename, p.dirMode); err != nil {
		return nil, err
	}
	if err := p.storage.EnsureDatafileIntegrity(p.filename, p.fileMode); err != nil {
		return nil, err
	}
	f, err := p.storage.ReadFileStream(p.filename, p.fileMode)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := p.TreatRawStream(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := p.Compact(ctx, records); err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"filename": p.filename,
		"records":  len(records),
	}).Debug("load datafile")
	return records, nil
}

// TreatRawStream replays datafile lines read from r. Later lines replace
// earlier ones for the same entity and id, and tombstones remove them.
func (p *Persistence) TreatRawStream(ctx context.Context, r io.Reader) ([]Record, error) {
	var order []string
	byKey := make(map[string]Record)
	corruptItems, dataLength := 0, 0

	scanner := bufio.NewScanner(contextio.NewReader(ctx, r))
	scanner.Buffer(nil, 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		dataLength++
		rec, deleted, err := p.parseLine(ctx, line)
		if err != nil {
			corruptItems++
			continue
		}
		key, err := p.key(ctx, rec.Entity)
		if err != nil {
			corruptItems++
			continue
		}
		if deleted {
			delete(byKey, key)
			continue
		}
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = rec
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if dataLength > 0 {
		rate := float64(corruptItems) / float64(dataLength)
		if rate > p.corruptAlertThreshold {
			return nil, ErrCorruptFiles{
				CorruptionRate:        rate,
				CorruptItems:          corruptItems,
				DataLength:            dataLength,
				CorruptAlertThreshold: p.corruptAlertThreshold,
			}
		}
		if corruptItems > 0 {
			p.log.WithFields(logrus.Fields{
				"filename": p.filename,
				"corrupt":  corruptItems,
				"lines":    dataLength,
			}).Warn("skipped corrupt datafile lines")
		}
	}

	records := make([]Record, 0, len(byKey))
	for _, key := range order {
		if rec, ok := byKey[key]; ok {
			records = append(records, rec)
			delete(byKey, key)
		}
	}
	return records, nil
}

// Append adds records to the end of the datafile in a single write. Deleted
// records become tombstones.
func (p *Persistence) Append(ctx context.Context, records ...Record) error {
	lines := make([][]byte, 0, len(records))
	for _, rec := range records {
		if rec.Deleted {
			id := domain.NewElement(p.idElement, rec.Entity.Value(p.idElement))
			rec = Record{Entity: domain.NewEntity(rec.Entity.Name(), id), Deleted: true}
		}
		line, err := p.line(ctx, rec)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	return p.appendLines(lines)
}

// Compact rewrites the datafile so it holds only records.
func (p *Persistence) Compact(ctx context.Context, records []Record) error {
	lines := make([][]byte, 0, len(records))
	for _, rec := range records {
		line, err := p.line(ctx, rec)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	return p.storage.CrashSafeWriteFileLines(p.filename, lines, p.dirMode, p.fileMode)
}

// Drop removes the datafile.
func (p *Persistence) Drop(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	exists, err := p.storage.Exists(p.filename)
	if err != nil || !exists {
		return err
	}
	return p.storage.Remove(p.filename)
}

func (p *Persistence) appendLines(lines [][]byte) error {
	if len(lines) == 0 {
		return nil
	}
	buf := new(bytes.Buffer)
	for _, line := range lines {
		buf.Write(line)
		buf.WriteByte('\n')
	}
	_, err := p.storage.AppendFile(p.filename, p.fileMode, buf.Bytes())
	return err
}

func (p *Persistence) line(ctx context.Context, rec Record) ([]byte, error) {
	elements := []domain.Element{domain.NewElement(entityKey, rec.Entity.Name())}
	if !rec.Expires.IsZero() {
		elements = append(elements, domain.NewElement(expiresKey, rec.Expires))
	}
	if rec.Deleted {
		elements = append(elements, domain.NewElement(deletedKey, true))
	}
	elements = append(elements, domain.NewElement(docKey, rec.Entity.Elements()))
	return p.serializer.Serialize(ctx, elements)
}

func (p *Persistence) parseLine(ctx context.Context, line []byte) (Record, bool, error) {
	elements, err := p.deserializer.Deserialize(ctx, line)
	if err != nil {
		return Record{}, false, err
	}
	meta := domain.NewEntity("", elements...)

	name, ok := meta.Value(entityKey).(string)
	if !ok || name == "" {
		return Record{}, false, domain.ErrNoEntityName
	}
	doc, ok := meta.Value(docKey).([]domain.Element)
	if !ok {
		return Record{}, false, domain.ErrEmptyEntity
	}
	e := domain.NewEntity(name, doc...)
	if _, ok := e.Find(p.idElement); !ok {
		return Record{}, false, domain.ErrMissingID
	}

	rec := Record{Entity: e}
	if expires, ok := meta.Value(expiresKey).(time.Time); ok {
		rec.Expires = expires
	}
	deleted, _ := meta.Value(deletedKey).(bool)
	return rec, deleted, nil
}

func (p *Persistence) key(ctx context.Context, e *domain.Entity) (string, error) {
	id, err := p.serializer.Serialize(ctx, e.Value(p.idElement))
	if err != nil {
		return "", err
	}
	return e.Name() + "\x00" + string(id), nil
}
