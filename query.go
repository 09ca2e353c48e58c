package petstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/afinana/go-server-petstore/kv"
)

// Query asks for the documents holding a value in an indexed field.
// Operator is carried on the wire but only equality is implemented; Field
// names the index namespace ("pets:status", "pets:tags", "users:username");
// Value is a single string or a list of strings.
type Query struct {
	Operator string `json:"operator"`
	Field    string `json:"field"`
	Value    any    `json:"value"`
}

func (q Query) values() ([]string, error) {
	switch v := q.Value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		vals := make([]string, 0, len(v))
		for _, el := range v {
			s, ok := el.(string)
			if !ok {
				return nil, fmt.Errorf("%w: value must hold strings, got %T", ErrInvalidQuery, el)
			}
			vals = append(vals, s)
		}
		return vals, nil
	default:
		return nil, fmt.Errorf("%w: missing value", ErrInvalidQuery)
	}
}

// fieldName strips the collection qualifier off the query field. A bare
// field name is taken as already belonging to the queried collection.
func (q Query) fieldName(collection string) (string, error) {
	prefix, field, found := strings.Cut(q.Field, ":")
	if !found {
		return q.Field, nil
	}
	if prefix != collection {
		return "", fmt.Errorf("%w: field %q does not belong to %q", ErrInvalidQuery, q.Field, collection)
	}
	return field, nil
}

// FindOne fetches a document from its primary slot.
func (s *Store) FindOne(ctx context.Context, collection, id string) (Document, error) {
	blob, found, err := s.kv.Get(PrimaryKey(collection, id))
	if err != nil {
		return Document{}, s.storeErr(ctx, "findone", collection, err)
	}
	if !found {
		return Document{}, fmt.Errorf("%w: %s:%s", ErrNotFound, collection, id)
	}
	doc, err := DecodeDocument(blob)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s:%s: %v", ErrParse, collection, id, err)
	}
	return doc, nil
}

// Find answers a field query from the field-index sets. Ids whose primary
// slot is missing or undecodable are skipped; the indexes are allowed to
// drift ahead of the documents. With a multi-value query the result is the
// union of the per-value matches, in value order, and a document indexed
// under two requested values appears twice.
func (s *Store) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	if q.Operator == "" {
		return nil, fmt.Errorf("%w: missing operator", ErrInvalidQuery)
	}
	if q.Field == "" {
		return nil, fmt.Errorf("%w: missing field", ErrInvalidQuery)
	}
	field, err := q.fieldName(collection)
	if err != nil {
		return nil, err
	}
	values, err := q.values()
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0)
	for _, value := range values {
		ids, err := s.kv.Members(FieldIndexKey(collection, field, value))
		if err != nil {
			return nil, s.storeErr(ctx, "find", collection, err)
		}
		matched, err := s.fetchAll(ctx, collection, ids)
		if err != nil {
			return nil, err
		}
		docs = append(docs, matched...)
	}
	return docs, nil
}

// FindAll returns every document of a collection via its membership set.
func (s *Store) FindAll(ctx context.Context, collection string) ([]Document, error) {
	ids, err := s.kv.Members(MembershipKey(collection))
	if err != nil {
		return nil, s.storeErr(ctx, "findall", collection, err)
	}
	return s.fetchAll(ctx, collection, ids)
}

// fetchAll resolves ids to documents, skipping ids that no longer point at
// a readable document. Set members come back in arbitrary order, so ids are
// sorted first to keep results stable.
func (s *Store) fetchAll(ctx context.Context, collection string, ids []string) ([]Document, error) {
	sortIDs(ids)
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.FindOne(ctx, collection, id)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrParse) {
			s.log.DebugCtx(ctx, "skipping stale index entry",
				"collection", collection, "id", id, "err", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// sortIDs orders decimal id strings numerically (shorter first, then
// lexicographic).
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
}

func (s *Store) storeErr(ctx context.Context, op, collection string, err error) error {
	if errors.Is(err, ErrStoreCommand) {
		return err
	}
	if errors.Is(err, kv.ErrCommandFailed) {
		OpCount.WithLabelValues(collection, op, "store_error").Inc()
		return fmt.Errorf("%w: %v", ErrStoreCommand, err)
	}
	OpCount.WithLabelValues(collection, op, "conn_error").Inc()
	return err
}
