package repository

import (
	"context"
	"errors"

	"DocMCP/internal/modules/document/domain/entity"
)

// AutoID 请求存储端自动分配文档 ID
const AutoID = ""

// ErrDocumentNotFound 文档不存在
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository 文档存储端口，每个方法对应一次远端调用
type DocumentRepository interface {
	// Get 按 ID 读取文档
	Get(ctx context.Context, databaseID, collectionID, documentID string) (*entity.Document, error)

	// List 列出集合中的文档，最多返回 limit 条
	List(ctx context.Context, databaseID, collectionID string, limit int) (*entity.DocumentList, error)

	// Create 创建文档，documentID 为 AutoID 时由存储端分配
	Create(ctx context.Context, databaseID, collectionID, documentID string, fields map[string]interface{}) (*entity.Document, error)

	// Update 部分更新文档字段
	Update(ctx context.Context, databaseID, collectionID, documentID string, fields map[string]interface{}) (*entity.Document, error)

	// Delete 删除文档
	Delete(ctx context.Context, databaseID, collectionID, documentID string) error
}
