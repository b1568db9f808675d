package mq

import (
	"context"
	"encoding/json"
	"time"

	"DocMCP/internal/modules/document/domain/entity"
	"DocMCP/internal/modules/document/domain/repository"
	"DocMCP/pkg/zlog"

	"go.uber.org/zap"
)

// 文档变更事件类型
const (
	EventDocumentCreated = "document.created"
	EventDocumentUpdated = "document.updated"
	EventDocumentDeleted = "document.deleted"
)

// DocumentChangedEvent 写操作成功后发布
type DocumentChangedEvent struct {
	Type         string `json:"type"`
	DatabaseID   string `json:"databaseId"`
	CollectionID string `json:"collectionId"`
	DocumentID   string `json:"documentId"`
	OccurredAt   string `json:"occurredAt"`
}

// EventPublishingRepository 在写操作成功后发布变更事件，发布失败只记录日志
type EventPublishingRepository struct {
	next      repository.DocumentRepository
	publisher Publisher
	topic     string
	now       func() time.Time
}

func NewEventPublishingRepository(next repository.DocumentRepository, publisher Publisher, topic string) *EventPublishingRepository {
	return &EventPublishingRepository{
		next:      next,
		publisher: publisher,
		topic:     topic,
		now:       time.Now,
	}
}

func (r *EventPublishingRepository) publish(ctx context.Context, eventType, databaseID, collectionID, documentID string) {
	evt := DocumentChangedEvent{
		Type:         eventType,
		DatabaseID:   databaseID,
		CollectionID: collectionID,
		DocumentID:   documentID,
		OccurredAt:   r.now().UTC().Format(time.RFC3339Nano),
	}
	value, err := json.Marshal(evt)
	if err != nil {
		zlog.Error("encode document event failed", zap.Error(err))
		return
	}
	res, err := r.publisher.Publish(ctx, Message{
		Topic:   r.topic,
		Key:     []byte(documentID),
		Value:   value,
		Headers: map[string]string{"event_type": eventType, HeaderCollectionID: collectionID},
	})
	if err != nil {
		zlog.Warn("publish document event failed",
			zap.String("event_type", eventType),
			zap.String("document_id", documentID),
			zap.Error(err))
		return
	}
	zlog.Debug("document event published",
		zap.String("event_type", eventType),
		zap.Int32("partition", res.Partition),
		zap.Int64("offset", res.Offset))
}

func (r *EventPublishingRepository) Get(ctx context.Context, databaseID, collectionID, documentID string) (*entity.Document, error) {
	return r.next.Get(ctx, databaseID, collectionID, documentID)
}

func (r *EventPublishingRepository) List(ctx context.Context, databaseID, collectionID string, limit int) (*entity.DocumentList, error) {
	return r.next.List(ctx, databaseID, collectionID, limit)
}

func (r *EventPublishingRepository) Create(ctx context.Context, databaseID, collectionID, documentID string, fields map[string]interface{}) (*entity.Document, error) {
	doc, err := r.next.Create(ctx, databaseID, collectionID, documentID, fields)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, EventDocumentCreated, databaseID, collectionID, doc.ID)
	return doc, nil
}

func (r *EventPublishingRepository) Update(ctx context.Context, databaseID, collectionID, documentID string, fields map[string]interface{}) (*entity.Document, error) {
	doc, err := r.next.Update(ctx, databaseID, collectionID, documentID, fields)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, EventDocumentUpdated, databaseID, collectionID, doc.ID)
	return doc, nil
}

func (r *EventPublishingRepository) Delete(ctx context.Context, databaseID, collectionID, documentID string) error {
	if err := r.next.Delete(ctx, databaseID, collectionID, documentID); err != nil {
		return err
	}
	r.publish(ctx, EventDocumentDeleted, databaseID, collectionID, documentID)
	return nil
}

var _ repository.DocumentRepository = (*EventPublishingRepository)(nil)
