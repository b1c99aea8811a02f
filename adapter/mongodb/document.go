package mongodb

import (
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toDocument converts an entity into an ordered BSON document.
func toDocument(e *domain.Entity) bson.D {
	return elementsDocument(e.Elements())
}

func elementsDocument(elements []domain.Element) bson.D {
	doc := make(bson.D, len(elements))
	for n, el := range elements {
		doc[n] = bson.E{Key: el.Name, Value: toBSON(el.Value)}
	}
	return doc
}

// toBSON converts an element value into a value the driver can encode.
func toBSON(v any) any {
	switch t := v.(type) {
	case domain.Element:
		return bson.D{{Key: t.Name, Value: toBSON(t.Value)}}
	case []domain.Element:
		return elementsDocument(t)
	case [][]domain.Element:
		a := make(bson.A, len(t))
		for n, sub := range t {
			a[n] = elementsDocument(sub)
		}
		return a
	case domain.UDT:
		return elementsDocument(t.Elements)
	case []domain.UDT:
		a := make(bson.A, len(t))
		for n, u := range t {
			a[n] = elementsDocument(u.Elements)
		}
		return a
	case []any:
		a := make(bson.A, len(t))
		for n, item := range t {
			a[n] = toBSON(item)
		}
		return a
	case *domain.Entity:
		return toDocument(t)
	default:
		return v
	}
}

// toEntity rebuilds an entity from a result document.
func toEntity(name string, doc bson.D) *domain.Entity {
	return domain.NewEntity(name, documentElements(doc)...)
}

func documentElements(doc bson.D) []domain.Element {
	elements := make([]domain.Element, len(doc))
	for n, e := range doc {
		elements[n] = domain.NewElement(e.Key, fromBSON(e.Value))
	}
	return elements
}

func fromBSON(v any) any {
	switch t := v.(type) {
	case bson.D:
		return documentElements(t)
	case bson.A:
		return fromArray(t)
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Binary:
		return t.Data
	default:
		return v
	}
}

// fromArray returns [][]domain.Element when every item is a sub-document.
func fromArray(a bson.A) any {
	docs := make([][]domain.Element, 0, len(a))
	for _, item := range a {
		d, ok := item.(bson.D)
		if !ok {
			break
		}
		docs = append(docs, documentElements(d))
	}
	if len(a) > 0 && len(docs) == len(a) {
		return docs
	}
	l := make([]any, len(a))
	for n, item := range a {
		l[n] = fromBSON(item)
	}
	return l
}
