package respond

import (
	"bytes"
	"encoding/json"

	"DocMCP/internal/modules/document/domain/entity"
)

const (
	MessageCreated = "Document created successfully"
	MessageUpdated = "Document updated successfully"
	MessageDeleted = "Document deleted successfully"

	OperationCreated = "created"
	OperationUpdated = "updated"

	unknownError = "Unknown error occurred"
)

// Envelope 所有文档工具的统一返回
type Envelope interface {
	Succeeded() bool
}

// DocumentItem 对外暴露的文档字段，存储中缺失的字段不输出
type DocumentItem struct {
	ID          string      `json:"id"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
	CompanyName interface{} `json:"company_name,omitempty"`
	CompanyID   interface{} `json:"company_id,omitempty"`
}

type GetDocumentRespond struct {
	Success  bool          `json:"success"`
	Document *DocumentItem `json:"document"`
}

type ListDocumentsRespond struct {
	Success   bool            `json:"success"`
	Total     int64           `json:"total"`
	Documents []*DocumentItem `json:"documents"`
}

// MutationRespond create / update 共用
type MutationRespond struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Document *DocumentItem `json:"document"`
}

type DeleteDocumentRespond struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	DeletedDocumentID string `json:"deletedDocumentId"`
}

type UpsertDocumentRespond struct {
	Success   bool          `json:"success"`
	Operation string        `json:"operation"`
	Message   string        `json:"message"`
	Document  *DocumentItem `json:"document"`
}

type ErrorRespond struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (r *GetDocumentRespond) Succeeded() bool    { return r.Success }
func (r *ListDocumentsRespond) Succeeded() bool  { return r.Success }
func (r *MutationRespond) Succeeded() bool       { return r.Success }
func (r *DeleteDocumentRespond) Succeeded() bool { return r.Success }
func (r *UpsertDocumentRespond) Succeeded() bool { return r.Success }
func (r *ErrorRespond) Succeeded() bool          { return r.Success }

// NewDocumentItem 从实体提取对外字段
func NewDocumentItem(doc *entity.Document) *DocumentItem {
	if doc == nil {
		return nil
	}
	item := &DocumentItem{
		ID:        doc.ID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if v, ok := doc.Field(entity.FieldCompanyName); ok {
		item.CompanyName = v
	}
	if v, ok := doc.Field(entity.FieldCompanyID); ok {
		item.CompanyID = v
	}
	return item
}

// NewErrorRespond err 为空消息时使用通用描述
func NewErrorRespond(err error) *ErrorRespond {
	msg := unknownError
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &ErrorRespond{Success: false, Error: msg}
}

// Render 两空格缩进、不转义 HTML、无结尾换行
func Render(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
