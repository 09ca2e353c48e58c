package petstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/afinana/go-server-petstore/kv"
	"github.com/afinana/go-server-petstore/utils"
)

// Store keeps a document blob, its collection membership and the derived
// per-field indexes consistent across insert, update and delete. Every
// mutation is one pipelined batch against the kv client; the batch is
// best-effort, there is no cross-key transaction. A failed batch may have
// applied some of its commands (see Insert/Delete).
type Store struct {
	kv  *kv.Client
	log utils.Logger
}

func NewStore(client *kv.Client, log utils.Logger) *Store {
	return &Store{kv: client, log: log}
}

// indexKeys lists every field-index set the document belongs to: the
// collection's required scalar field plus one set per tag name. Values are
// taken from doc itself, never from anywhere else.
func indexKeys(collection string, doc Document) []string {
	var keys []string
	if field, ok := requiredField[collection]; ok {
		if value, ok := doc.StringField(field); ok {
			keys = append(keys, FieldIndexKey(collection, field, value))
		}
	}
	for _, tag := range doc.TagNames() {
		keys = append(keys, FieldIndexKey(collection, TagsField, tag))
	}
	return keys
}

// Insert stores a new document: id into each field index, id into the
// membership set, blob into the primary slot, all in one pipelined batch.
// On ErrStoreCommand some of those keys may already have been written;
// there is no rollback, a compensating Delete is the caller's move.
func (s *Store) Insert(ctx context.Context, collection string, doc Document) error {
	if err := doc.Validate(collection); err != nil {
		OpCount.WithLabelValues(collection, "insert", "invalid").Inc()
		return err
	}
	id, err := doc.IDString()
	if err != nil {
		return err
	}
	blob, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode %s:%s: %v", ErrInvalidDocument, collection, id, err)
	}

	var batch kv.Batch
	for _, key := range indexKeys(collection, doc) {
		batch.Add("SADD", key, id)
	}
	batch.Add("SADD", MembershipKey(collection), id)
	batch.Add("SET", PrimaryKey(collection, id), blob)

	if err := s.runBatch(ctx, "insert", collection, &batch); err != nil {
		return err
	}
	s.log.DebugCtx(ctx, "inserted document", "collection", collection, "id", id)
	return nil
}

// Update replaces a stored document with doc, as an explicit delete of the
// old revision followed by an insert of the new one. The two phases are not
// atomic: ErrNotFound means nothing was deleted, while an insert failure
// after a successful delete leaves the document absent.
func (s *Store) Update(ctx context.Context, collection string, doc Document) error {
	id, err := doc.IDString()
	if err != nil {
		return err
	}
	if err := s.Delete(ctx, collection, id); err != nil {
		return err
	}
	return s.Insert(ctx, collection, doc)
}

// Delete destroys a document. Which index sets hold the id is learned by
// reading the stored document first, so the removals always match what was
// actually indexed, not what a caller believes is there. The batch removes
// the id from the field indexes and the membership set and deletes the
// primary slot; like Insert it is best-effort.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	doc, err := s.FindOne(ctx, collection, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			OpCount.WithLabelValues(collection, "delete", "not_found").Inc()
		}
		return err
	}

	var batch kv.Batch
	for _, key := range indexKeys(collection, doc) {
		batch.Add("SREM", key, id)
	}
	batch.Add("SREM", MembershipKey(collection), id)
	batch.Add("DEL", PrimaryKey(collection, id))

	if err := s.runBatch(ctx, "delete", collection, &batch); err != nil {
		return err
	}
	s.log.DebugCtx(ctx, "deleted document", "collection", collection, "id", id)
	return nil
}

func (s *Store) runBatch(ctx context.Context, op, collection string, batch *kv.Batch) error {
	BatchCommands.WithLabelValues(collection, op).Observe(float64(batch.Len()))
	err := s.kv.RunBatch(batch)
	switch {
	case err == nil:
		OpCount.WithLabelValues(collection, op, "ok").Inc()
		return nil
	case errors.Is(err, kv.ErrCommandFailed):
		OpCount.WithLabelValues(collection, op, "store_error").Inc()
		s.log.ErrorCtx(ctx, "batch failed, keys may be partially applied",
			"op", op, "collection", collection, "err", err)
		return fmt.Errorf("%w: %v", ErrStoreCommand, err)
	default:
		// desync or closed connection, surface untouched
		OpCount.WithLabelValues(collection, op, "conn_error").Inc()
		return err
	}
}
