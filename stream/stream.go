// Package stream applies DynamoDB stream events of the item table to an
// in-memory mirror storage and cascades deletes to descendants.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/jacentio/fakedb/dynamo"
	"github.com/jacentio/fakedb/store"
)

// Handler keeps a mirror storage in step with the item table.
type Handler struct {
	mirror *store.Storage
	store  *dynamo.Store
	logger *slog.Logger
}

// NewHandler creates a new stream handler. A nil dynamo store disables
// cascading TTL to descendants; the mirror is still updated.
func NewHandler(mirror *store.Storage, st *dynamo.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		mirror: mirror,
		store:  st,
		logger: logger,
	}
}

// Mirror returns the storage the handler writes to.
func (h *Handler) Mirror() *store.Storage {
	return h.mirror
}

// HandleStream processes a batch of stream records in order. It can be
// used directly as an AWS Lambda handler.
func (h *Handler) HandleStream(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err
		}
	}
	return nil
}

func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	ref := getStringAttr(record.Change.Keys, "id")
	if ref == "" {
		h.logger.Debug("skipping record without item key", "eventID", record.EventID)
		return nil
	}

	image := record.Change.NewImage
	if record.EventName == string(events.DynamoDBOperationTypeRemove) {
		image = record.Change.OldImage
	}
	if db := getStringAttr(image, "database"); db != "" && db != h.mirror.Name() {
		h.logger.Debug("skipping record of other database", "ref", ref, "database", db)
		return nil
	}

	switch record.EventName {
	case string(events.DynamoDBOperationTypeInsert):
		return h.apply(record.Change.NewImage)
	case string(events.DynamoDBOperationTypeModify):
		oldTTL := getNumberAttr(record.Change.OldImage, "ttl")
		newTTL := getNumberAttr(record.Change.NewImage, "ttl")
		switch {
		case oldTTL == 0 && newTTL != 0:
			return h.cascade(ctx, ref, getStringAttr(record.Change.NewImage, "parent_ref"), newTTL)
		case oldTTL != 0:
			return nil
		}
		return h.apply(record.Change.NewImage)
	case string(events.DynamoDBOperationTypeRemove):
		h.remove(ref)
	}
	return nil
}

// apply decodes a new image and writes it to the mirror.
func (h *Handler) apply(image map[string]events.DynamoDBAttributeValue) error {
	var rec dynamo.Record
	if err := attributevalue.UnmarshalMap(ConvertImage(image), &rec); err != nil {
		h.logger.Warn("skipping undecodable record", "error", err)
		return nil
	}

	switch rec.Kind {
	case dynamo.KindBlob:
		blob, err := rec.Blob()
		if err != nil {
			h.logger.Warn("skipping malformed blob", "ref", rec.Ref, "error", err)
			return nil
		}
		h.mirror.SetBlob(blob.ID, blob.Data)
	case dynamo.KindItem:
		item, err := rec.Item()
		if err != nil {
			h.logger.Warn("skipping malformed item", "ref", rec.Ref, "error", err)
			return nil
		}
		node, err := item.Node()
		if err != nil {
			h.logger.Warn("skipping malformed item", "ref", rec.Ref, "error", err)
			return nil
		}
		if err := h.mirror.Upsert(node); err != nil {
			return fmt.Errorf("apply %s: %w", rec.Ref, err)
		}
	default:
		h.logger.Debug("skipping record of unknown kind", "ref", rec.Ref, "kind", rec.Kind)
	}
	return nil
}

// remove drops the item or blob behind ref from the mirror.
func (h *Handler) remove(ref string) {
	if _, blobID, err := dynamo.ParseBlobRef(ref); err == nil {
		h.mirror.RemoveBlob(blobID)
		return
	}
	_, itemID, err := dynamo.ParseItemRef(ref)
	if err != nil {
		h.logger.Warn("skipping malformed ref", "ref", ref, "error", err)
		return
	}
	h.mirror.RemoveFakeItem(itemID)
}

// cascade removes a newly expired record from the mirror and propagates
// its TTL to the records of its children and to its own relationship
// record.
func (h *Handler) cascade(ctx context.Context, ref, parentRef string, ttl int64) error {
	h.logger.Info("processing cascade delete",
		"ref", ref,
		"parentRef", parentRef,
		"ttl", ttl,
	)
	h.remove(ref)
	if h.store == nil {
		return nil
	}

	// Already expired children are included so a retried batch is idempotent.
	children, err := h.store.QueryAllChildren(ctx, ref, true)
	if err != nil {
		return fmt.Errorf("query children: %w", err)
	}

	for _, child := range children {
		if err := h.store.SetTTLByKey(ctx, child.TableName, child.Key, ttl); err != nil {
			h.logger.Warn("failed to set TTL on child",
				"child", child.Ref,
				"error", err,
			)
		}
	}

	if parentRef != "" {
		if err := h.store.SetRelationshipTTL(ctx, ref, parentRef, ttl); err != nil {
			h.logger.Warn("failed to set relationship TTL",
				"ref", ref,
				"parent", parentRef,
				"error", err,
			)
		}
	}

	h.logger.Info("cascade delete completed",
		"ref", ref,
		"childrenProcessed", len(children),
	)
	return nil
}
