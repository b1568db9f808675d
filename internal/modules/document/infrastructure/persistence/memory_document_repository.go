package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"DocMCP/internal/modules/document/domain/entity"
	"DocMCP/internal/modules/document/domain/repository"
	"DocMCP/pkg/util"
)

// 调用计数的操作名
const (
	OpGet    = "get"
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ErrDocumentExists 创建时 ID 已存在
var ErrDocumentExists = errors.New("document with the requested ID already exists")

// MemoryDocumentRepository 进程内文档存储，同时作为测试替身
type MemoryDocumentRepository struct {
	mu    sync.Mutex
	docs  map[string]*entity.Document // database/collection/id -> doc
	calls map[string]int
	fails map[string]error
	now   func() time.Time
}

// NewMemoryDocumentRepository 创建空存储
func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{
		docs:  make(map[string]*entity.Document),
		calls: make(map[string]int),
		fails: make(map[string]error),
		now:   time.Now,
	}
}

// FailOn 让指定操作返回 err，err 为 nil 时取消
func (m *MemoryDocumentRepository) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fails, op)
		return
	}
	m.fails[op] = err
}

// Calls 返回某操作被调用的次数
func (m *MemoryDocumentRepository) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls 所有操作调用次数之和
func (m *MemoryDocumentRepository) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// SetClock 固定时间（测试使用）
func (m *MemoryDocumentRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Seed 直接写入文档，不计入调用次数
func (m *MemoryDocumentRepository) Seed(databaseID, collectionID string, doc *entity.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[docKey(databaseID, collectionID, doc.ID)] = cloneDocument(doc)
}

func docKey(databaseID, collectionID, documentID string) string {
	return databaseID + "/" + collectionID + "/" + documentID
}

func (m *MemoryDocumentRepository) enter(op string) error {
	m.calls[op]++
	return m.fails[op]
}

func (m *MemoryDocumentRepository) timestamp() string {
	return m.now().UTC().Format(TimestampLayout)
}

func (m *MemoryDocumentRepository) Get(ctx context.Context, databaseID, collectionID, documentID string) (*entity.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpGet); err != nil {
		return nil, err
	}
	doc, ok := m.docs[docKey(databaseID, collectionID, documentID)]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", documentID, repository.ErrDocumentNotFound)
	}
	return cloneDocument(doc), nil
}

func (m *MemoryDocumentRepository) List(ctx context.Context, databaseID, collectionID string, limit int) (*entity.DocumentList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpList); err != nil {
		return nil, err
	}

	prefix := databaseID + "/" + collectionID + "/"
	matched := make([]*entity.Document, 0)
	for k, doc := range m.docs {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			matched = append(matched, doc)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt == matched[j].CreatedAt {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt < matched[j].CreatedAt
	})

	total := int64(len(matched))
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]*entity.Document, 0, len(matched))
	for _, doc := range matched {
		out = append(out, cloneDocument(doc))
	}
	return &entity.DocumentList{Total: total, Documents: out}, nil
}

func (m *MemoryDocumentRepository) Create(ctx context.Context, databaseID, collectionID, documentID string, fields map[string]interface{}) (*entity.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCreate); err != nil {
		return nil, err
	}
	if documentID == repository.AutoID {
		documentID = util.GenerateShortUUID()
	}
	key := docKey(databaseID, collectionID, documentID)
	if _, exists := m.docs[key]; exists {
		return nil, ErrDocumentExists
	}

	ts := m.timestamp()
	doc := &entity.Document{
		ID:        documentID,
		CreatedAt: ts,
		UpdatedAt: ts,
		Fields:    copyFields(fields),
	}
	m.docs[key] = doc
	return cloneDocument(doc), nil
}

func (m *MemoryDocumentRepository) Update(ctx context.Context, databaseID, collectionID, documentID string, fields map[string]interface{}) (*entity.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpUpdate); err != nil {
		return nil, err
	}
	doc, ok := m.docs[docKey(databaseID, collectionID, documentID)]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", documentID, repository.ErrDocumentNotFound)
	}
	if doc.Fields == nil {
		doc.Fields = make(map[string]interface{}, len(fields))
	}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	doc.UpdatedAt = m.timestamp()
	return cloneDocument(doc), nil
}

func (m *MemoryDocumentRepository) Delete(ctx context.Context, databaseID, collectionID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDelete); err != nil {
		return err
	}
	key := docKey(databaseID, collectionID, documentID)
	if _, ok := m.docs[key]; !ok {
		return fmt.Errorf("document %s: %w", documentID, repository.ErrDocumentNotFound)
	}
	delete(m.docs, key)
	return nil
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func cloneDocument(doc *entity.Document) *entity.Document {
	c := *doc
	c.Fields = copyFields(doc.Fields)
	return &c
}

var _ repository.DocumentRepository = (*MemoryDocumentRepository)(nil)
