package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"DocMCP/internal/modules/document/domain/entity"
	"DocMCP/internal/modules/document/domain/repository"
	"DocMCP/pkg/util"

	"gorm.io/gorm"
)

// TimestampLayout 与 Appwrite 返回的时间格式一致
const TimestampLayout = "2006-01-02T15:04:05.000-07:00"

// DocumentRecord documents 表
type DocumentRecord struct {
	DatabaseID   string    `gorm:"column:database_id;type:varchar(64);primaryKey"`
	CollectionID string    `gorm:"column:collection_id;type:varchar(64);primaryKey"`
	DocumentID   string    `gorm:"column:document_id;type:varchar(64);primaryKey"`
	Fields       string    `gorm:"column:fields;type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;index"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (DocumentRecord) TableName() string {
	return "documents"
}

type documentRepositoryImpl struct {
	db *gorm.DB
}

// NewDocumentRepository 基于 gorm 的文档存储（mysql / sqlite）
func NewDocumentRepository(db *gorm.DB) repository.DocumentRepository {
	return &documentRepositoryImpl{db: db}
}

func (r *documentRepositoryImpl) find(ctx context.Context, databaseID, collectionID, documentID string) (*DocumentRecord, error) {
	var rec DocumentRecord
	err := r.db.WithContext(ctx).
		Where("database_id = ? AND collection_id = ? AND document_id = ?", databaseID, collectionID, documentID).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document %s: %w", documentID, repository.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *documentRepositoryImpl) Get(ctx context.Context, databaseID, collectionID, documentID string) (*entity.Document, error) {
	rec, err := r.find(ctx, databaseID, collectionID, documentID)
	if err != nil {
		return nil, err
	}
	return toEntity(rec)
}

func (r *documentRepositoryImpl) List(ctx context.Context, databaseID, collectionID string, limit int) (*entity.DocumentList, error) {
	query := r.db.WithContext(ctx).Model(&DocumentRecord{}).
		Where("database_id = ? AND collection_id = ?", databaseID, collectionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var recs []DocumentRecord
	q := r.db.WithContext(ctx).
		Where("database_id = ? AND collection_id = ?", databaseID, collectionID).
		Order("created_at ASC").Order("document_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}

	docs := make([]*entity.Document, 0, len(recs))
	for i := range recs {
		doc, err := toEntity(&recs[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return &entity.DocumentList{Total: total, Documents: docs}, nil
}

func (r *documentRepositoryImpl) Create(ctx context.Context, databaseID, collectionID, documentID string, fields map[string]interface{}) (*entity.Document, error) {
	if documentID == repository.AutoID {
		documentID = util.GenerateShortUUID()
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	rec := &DocumentRecord{
		DatabaseID:   databaseID,
		CollectionID: collectionID,
		DocumentID:   documentID,
		Fields:       string(raw),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return toEntity(rec)
}

func (r *documentRepositoryImpl) Update(ctx context.Context, databaseID, collectionID, documentID string, fields map[string]interface{}) (*entity.Document, error) {
	var out *entity.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &documentRepositoryImpl{db: tx}
		rec, err := txRepo.find(ctx, databaseID, collectionID, documentID)
		if err != nil {
			return err
		}
		current, err := decodeFields(rec.Fields)
		if err != nil {
			return err
		}
		for k, v := range fields {
			current[k] = v
		}
		raw, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("encode fields: %w", err)
		}
		rec.Fields = string(raw)
		rec.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
		if err := tx.Model(&DocumentRecord{}).
			Where("database_id = ? AND collection_id = ? AND document_id = ?", databaseID, collectionID, documentID).
			Updates(map[string]interface{}{"fields": rec.Fields, "updated_at": rec.UpdatedAt}).Error; err != nil {
			return err
		}
		out, err = toEntity(rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepositoryImpl) Delete(ctx context.Context, databaseID, collectionID, documentID string) error {
	res := r.db.WithContext(ctx).
		Where("database_id = ? AND collection_id = ? AND document_id = ?", databaseID, collectionID, documentID).
		Delete(&DocumentRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("document %s: %w", documentID, repository.ErrDocumentNotFound)
	}
	return nil
}

func decodeFields(raw string) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	if raw == "" {
		return fields, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	for k, v := range fields {
		fields[k] = normalizeNumber(v)
	}
	return fields, nil
}

// normalizeNumber 整数字段保持整数输出
func normalizeNumber(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func toEntity(rec *DocumentRecord) (*entity.Document, error) {
	fields, err := decodeFields(rec.Fields)
	if err != nil {
		return nil, err
	}
	return &entity.Document{
		ID:        rec.DocumentID,
		CreatedAt: rec.CreatedAt.UTC().Format(TimestampLayout),
		UpdatedAt: rec.UpdatedAt.UTC().Format(TimestampLayout),
		Fields:    fields,
	}, nil
}
