package appwrite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"DocMCP/internal/config"
	"DocMCP/internal/modules/document/domain/entity"
	"DocMCP/internal/modules/document/domain/repository"
	"DocMCP/pkg/zlog"

	sdkappwrite "github.com/appwrite/sdk-for-go/appwrite"
	sdkclient "github.com/appwrite/sdk-for-go/client"
	"github.com/appwrite/sdk-for-go/databases"
	"github.com/appwrite/sdk-for-go/query"
	"go.uber.org/zap"
)

// UniqueID Appwrite 自动分配 ID 的占位符
const UniqueID = "unique()"

// ErrNotConfigured 端点、项目或密钥缺失
var ErrNotConfigured = errors.New("appwrite client is not configured")

// APIError Appwrite 返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	cause      error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return fmt.Sprintf("appwrite request failed with status %d", e.StatusCode)
}

// Unwrap 404 映射为 ErrDocumentNotFound
func (e *APIError) Unwrap() []error {
	errs := []error{e.cause}
	if e.StatusCode == http.StatusNotFound {
		errs = append(errs, repository.ErrDocumentNotFound)
	}
	return errs
}

// Client 基于 Appwrite Go SDK 的 Databases 仓储，实现 DocumentRepository
type Client struct {
	db      *databases.Databases
	timeout time.Duration
	enabled bool
}

// NewClient 配置不全时返回的客户端所有调用均失败
func NewClient(conf config.AppwriteConfig) *Client {
	c := &Client{
		timeout: time.Duration(conf.TimeoutSeconds) * time.Second,
		enabled: conf.Enabled(),
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if !c.enabled {
		zlog.Error("Missing required Appwrite environment variables")
		return c
	}

	clt := sdkclient.New(
		sdkappwrite.WithEndpoint(strings.TrimRight(strings.TrimSpace(conf.Endpoint), "/")),
		sdkappwrite.WithProject(strings.TrimSpace(conf.ProjectID)),
		sdkappwrite.WithKey(strings.TrimSpace(conf.APIKey)),
	)
	c.db = databases.New(clt)
	return c
}

// call SDK 不接受 context，这里用 ctx 和超时兜住调用方的等待
func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	if !c.enabled {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err != nil {
			apiErr := toAPIError(err)
			zlog.Debug("appwrite request failed",
				zap.String("op", op),
				zap.Int("status", apiErr.StatusCode),
				zap.String("type", apiErr.Type))
			return apiErr
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("appwrite %s: %w", op, ctx.Err())
	}
}

func (c *Client) Get(ctx context.Context, databaseID, collectionID, documentID string) (*entity.Document, error) {
	var raw map[string]interface{}
	err := c.call(ctx, "getDocument", func() error {
		doc, err := c.db.GetDocument(databaseID, collectionID, documentID)
		if err != nil {
			return err
		}
		return doc.Decode(&raw)
	})
	if err != nil {
		return nil, err
	}
	return decodeDocument(raw), nil
}

func (c *Client) List(ctx context.Context, databaseID, collectionID string, limit int) (*entity.DocumentList, error) {
	var raw struct {
		Total     int64                    `json:"total"`
		Documents []map[string]interface{} `json:"documents"`
	}
	err := c.call(ctx, "listDocuments", func() error {
		var opts []databases.ListDocumentsOption
		if limit > 0 {
			opts = append(opts, c.db.WithListDocumentsQueries([]string{query.Limit(limit)}))
		}
		list, err := c.db.ListDocuments(databaseID, collectionID, opts...)
		if err != nil {
			return err
		}
		return list.Decode(&raw)
	})
	if err != nil {
		return nil, err
	}

	docs := make([]*entity.Document, 0, len(raw.Documents))
	for _, d := range raw.Documents {
		docs = append(docs, decodeDocument(d))
	}
	return &entity.DocumentList{Total: raw.Total, Documents: docs}, nil
}

func (c *Client) Create(ctx context.Context, databaseID, collectionID, documentID string, fields map[string]interface{}) (*entity.Document, error) {
	if documentID == repository.AutoID {
		documentID = UniqueID
	}
	var raw map[string]interface{}
	err := c.call(ctx, "createDocument", func() error {
		doc, err := c.db.CreateDocument(databaseID, collectionID, documentID, fields)
		if err != nil {
			return err
		}
		return doc.Decode(&raw)
	})
	if err != nil {
		return nil, err
	}
	return decodeDocument(raw), nil
}

func (c *Client) Update(ctx context.Context, databaseID, collectionID, documentID string, fields map[string]interface{}) (*entity.Document, error) {
	var raw map[string]interface{}
	err := c.call(ctx, "updateDocument", func() error {
		doc, err := c.db.UpdateDocument(databaseID, collectionID, documentID, c.db.WithUpdateDocumentData(fields))
		if err != nil {
			return err
		}
		return doc.Decode(&raw)
	})
	if err != nil {
		return nil, err
	}
	return decodeDocument(raw), nil
}

func (c *Client) Delete(ctx context.Context, databaseID, collectionID, documentID string) error {
	return c.call(ctx, "deleteDocument", func() error {
		_, err := c.db.DeleteDocument(databaseID, collectionID, documentID)
		return err
	})
}

// toAPIError 从 SDK 错误里取出状态码和服务端 message
func toAPIError(err error) *APIError {
	apiErr := &APIError{cause: err}

	var coded interface{ GetStatusCode() int }
	if errors.As(err, &coded) {
		apiErr.StatusCode = coded.GetStatusCode()
	}

	// SDK 错误文本携带响应体 JSON
	text := err.Error()
	if i := strings.Index(text, "{"); i >= 0 {
		var body struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
			Type    string `json:"type"`
		}
		if json.Unmarshal([]byte(text[i:]), &body) == nil {
			apiErr.Message = body.Message
			apiErr.Type = body.Type
			if apiErr.StatusCode == 0 {
				apiErr.StatusCode = body.Code
			}
		}
	}
	return apiErr
}

// decodeDocument $ 开头的是系统属性，其余为用户字段
func decodeDocument(raw map[string]interface{}) *entity.Document {
	doc := &entity.Document{Fields: make(map[string]interface{})}
	for k, v := range raw {
		switch k {
		case "$id":
			doc.ID, _ = v.(string)
		case "$createdAt":
			doc.CreatedAt, _ = v.(string)
		case "$updatedAt":
			doc.UpdatedAt, _ = v.(string)
		default:
			if strings.HasPrefix(k, "$") {
				continue
			}
			doc.Fields[k] = normalizeNumber(v)
		}
	}
	return doc
}

// normalizeNumber 整数值的 float64 还原成 int64
func normalizeNumber(v interface{}) interface{} {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return v
	}
	return int64(f)
}

var _ repository.DocumentRepository = (*Client)(nil)
