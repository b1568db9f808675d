package request

// DefaultCollectionID 未指定集合时使用
const DefaultCollectionID = "company_names"

// DefaultListLimit 列表默认条数
const DefaultListLimit = 25

type GetDocumentRequest struct {
	DocumentID   string
	CollectionID string
}

type ListDocumentsRequest struct {
	CollectionID string
	Limit        int
}

// CreateDocumentRequest DocumentID 为空时由存储端分配
type CreateDocumentRequest struct {
	DocumentID   string
	CollectionID string
	CompanyName  string
	CompanyID    interface{}
}

// UpdateDocumentRequest 为 nil 的字段不更新
type UpdateDocumentRequest struct {
	DocumentID   string
	CollectionID string
	CompanyName  *string
	CompanyID    interface{}
}

type DeleteDocumentRequest struct {
	DocumentID   string
	CollectionID string
}

type UpsertDocumentRequest struct {
	DocumentID   string
	CollectionID string
	CompanyName  string
	CompanyID    interface{}
}
