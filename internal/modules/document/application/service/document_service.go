package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"DocMCP/internal/modules/document/application/dto/request"
	"DocMCP/internal/modules/document/application/dto/respond"
	"DocMCP/internal/modules/document/domain/entity"
	"DocMCP/internal/modules/document/domain/repository"
	"DocMCP/pkg/zlog"

	"go.uber.org/zap"
)

var (
	// ErrConfigurationMissing 未配置 DATABASE_ID
	ErrConfigurationMissing = errors.New("DATABASE_ID environment variable is not set")
	// ErrNoFieldsProvided 更新时未提供任何字段
	ErrNoFieldsProvided = errors.New("No fields provided to update. Provide company_name and/or company_id.")
)

// DocumentService 文档操作，所有失败都以 ErrorRespond 返回
type DocumentService interface {
	GetDocument(ctx context.Context, req request.GetDocumentRequest) respond.Envelope
	ListDocuments(ctx context.Context, req request.ListDocumentsRequest) respond.Envelope
	CreateDocument(ctx context.Context, req request.CreateDocumentRequest) respond.Envelope
	UpdateDocument(ctx context.Context, req request.UpdateDocumentRequest) respond.Envelope
	DeleteDocument(ctx context.Context, req request.DeleteDocumentRequest) respond.Envelope
	UpsertDocument(ctx context.Context, req request.UpsertDocumentRequest) respond.Envelope
}

// Options 服务配置
type Options struct {
	DatabaseID string
	// StrictUpsertProbe 为 true 时仅 ErrDocumentNotFound 走创建分支
	StrictUpsertProbe bool
}

type documentServiceImpl struct {
	repo repository.DocumentRepository
	opts Options
}

// NewDocumentService repo 为 nil 时所有调用返回配置错误
func NewDocumentService(repo repository.DocumentRepository, opts Options) DocumentService {
	opts.DatabaseID = strings.TrimSpace(opts.DatabaseID)
	return &documentServiceImpl{repo: repo, opts: opts}
}

func (s *documentServiceImpl) preflight() error {
	if s.opts.DatabaseID == "" {
		return ErrConfigurationMissing
	}
	if s.repo == nil {
		return errors.New("document store is not configured")
	}
	return nil
}

func collectionOrDefault(id string) string {
	if strings.TrimSpace(id) == "" {
		return request.DefaultCollectionID
	}
	return id
}

func fail(op string, err error) respond.Envelope {
	zlog.Warn(op+" failed", zap.Error(err))
	return respond.NewErrorRespond(err)
}

func (s *documentServiceImpl) GetDocument(ctx context.Context, req request.GetDocumentRequest) respond.Envelope {
	if err := s.preflight(); err != nil {
		return fail("getDocument", err)
	}
	collectionID := collectionOrDefault(req.CollectionID)
	zlog.Debug("getDocument", zap.String("document_id", req.DocumentID), zap.String("collection_id", collectionID))

	doc, err := s.repo.Get(ctx, s.opts.DatabaseID, collectionID, req.DocumentID)
	if err != nil {
		return fail("getDocument", err)
	}
	return &respond.GetDocumentRespond{Success: true, Document: respond.NewDocumentItem(doc)}
}

func (s *documentServiceImpl) ListDocuments(ctx context.Context, req request.ListDocumentsRequest) respond.Envelope {
	if err := s.preflight(); err != nil {
		return fail("listDocuments", err)
	}
	collectionID := collectionOrDefault(req.CollectionID)
	limit := req.Limit
	if limit <= 0 {
		limit = request.DefaultListLimit
	}
	zlog.Debug("listDocuments", zap.String("collection_id", collectionID), zap.Int("limit", limit))

	list, err := s.repo.List(ctx, s.opts.DatabaseID, collectionID, limit)
	if err != nil {
		return fail("listDocuments", err)
	}

	docs := list.Documents
	if len(docs) > limit {
		docs = docs[:limit]
	}
	items := make([]*respond.DocumentItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, respond.NewDocumentItem(d))
	}
	total := list.Total
	if total < 0 {
		total = 0
	}
	zlog.Debug("listDocuments result", zap.Int("count", len(items)), zap.Int64("total", total))
	return &respond.ListDocumentsRespond{Success: true, Total: total, Documents: items}
}

func (s *documentServiceImpl) CreateDocument(ctx context.Context, req request.CreateDocumentRequest) respond.Envelope {
	if err := s.preflight(); err != nil {
		return fail("createDocument", err)
	}
	collectionID := collectionOrDefault(req.CollectionID)
	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		documentID = repository.AutoID
	}

	doc, err := s.repo.Create(ctx, s.opts.DatabaseID, collectionID, documentID, map[string]interface{}{
		entity.FieldCompanyName: req.CompanyName,
		entity.FieldCompanyID:   req.CompanyID,
	})
	if err != nil {
		return fail("createDocument", err)
	}
	zlog.Info("createDocument done", zap.String("document_id", doc.ID), zap.String("collection_id", collectionID))
	return &respond.MutationRespond{Success: true, Message: respond.MessageCreated, Document: respond.NewDocumentItem(doc)}
}

func (s *documentServiceImpl) UpdateDocument(ctx context.Context, req request.UpdateDocumentRequest) respond.Envelope {
	if err := s.preflight(); err != nil {
		return fail("updateDocument", err)
	}
	fields := make(map[string]interface{}, 2)
	if req.CompanyName != nil {
		fields[entity.FieldCompanyName] = *req.CompanyName
	}
	if req.CompanyID != nil {
		fields[entity.FieldCompanyID] = req.CompanyID
	}
	if len(fields) == 0 {
		return fail("updateDocument", ErrNoFieldsProvided)
	}
	collectionID := collectionOrDefault(req.CollectionID)

	doc, err := s.repo.Update(ctx, s.opts.DatabaseID, collectionID, req.DocumentID, fields)
	if err != nil {
		return fail("updateDocument", err)
	}
	zlog.Info("updateDocument done", zap.String("document_id", doc.ID), zap.String("collection_id", collectionID))
	return &respond.MutationRespond{Success: true, Message: respond.MessageUpdated, Document: respond.NewDocumentItem(doc)}
}

func (s *documentServiceImpl) DeleteDocument(ctx context.Context, req request.DeleteDocumentRequest) respond.Envelope {
	if err := s.preflight(); err != nil {
		return fail("deleteDocument", err)
	}
	collectionID := collectionOrDefault(req.CollectionID)

	if err := s.repo.Delete(ctx, s.opts.DatabaseID, collectionID, req.DocumentID); err != nil {
		return fail("deleteDocument", err)
	}
	zlog.Info("deleteDocument done", zap.String("document_id", req.DocumentID), zap.String("collection_id", collectionID))
	return &respond.DeleteDocumentRespond{Success: true, Message: respond.MessageDeleted, DeletedDocumentID: req.DocumentID}
}

// UpsertDocument 先读后写，不是原子操作：探测与创建之间的并发创建会使创建失败
func (s *documentServiceImpl) UpsertDocument(ctx context.Context, req request.UpsertDocumentRequest) respond.Envelope {
	if err := s.preflight(); err != nil {
		return fail("upsertDocument", err)
	}
	collectionID := collectionOrDefault(req.CollectionID)
	fields := map[string]interface{}{
		entity.FieldCompanyName: req.CompanyName,
		entity.FieldCompanyID:   req.CompanyID,
	}

	_, probeErr := s.repo.Get(ctx, s.opts.DatabaseID, collectionID, req.DocumentID)
	if probeErr == nil {
		doc, err := s.repo.Update(ctx, s.opts.DatabaseID, collectionID, req.DocumentID, fields)
		if err != nil {
			return fail("upsertDocument", err)
		}
		return &respond.UpsertDocumentRespond{
			Success:   true,
			Operation: respond.OperationUpdated,
			Message:   respond.MessageUpdated,
			Document:  respond.NewDocumentItem(doc),
		}
	}

	if s.opts.StrictUpsertProbe && !errors.Is(probeErr, repository.ErrDocumentNotFound) {
		return fail("upsertDocument", fmt.Errorf("probe document %s: %w", req.DocumentID, probeErr))
	}
	zlog.Debug("upsertDocument probe missed, creating", zap.String("document_id", req.DocumentID), zap.Error(probeErr))

	doc, err := s.repo.Create(ctx, s.opts.DatabaseID, collectionID, req.DocumentID, fields)
	if err != nil {
		return fail("upsertDocument", err)
	}
	return &respond.UpsertDocumentRespond{
		Success:   true,
		Operation: respond.OperationCreated,
		Message:   respond.MessageCreated,
		Document:  respond.NewDocumentItem(doc),
	}
}
