package handlers

import (
	"context"

	"DocMCP/internal/modules/document/application/dto/request"
	"DocMCP/internal/modules/document/application/dto/respond"
	"DocMCP/internal/modules/document/application/service"
	"DocMCP/internal/modules/document/infrastructure/mcp/registry"
	"DocMCP/internal/modules/document/infrastructure/mcp/types"
)

// 工具名
const (
	ToolGetDocument    = "getDocument"
	ToolListDocuments  = "listDocuments"
	ToolCreateDocument = "createDocument"
	ToolUpdateDocument = "updateDocument"
	ToolDeleteDocument = "deleteDocument"
	ToolUpsertDocument = "upsertDocument"
)

const (
	argDocumentID   = "documentId"
	argCollectionID = "collectionId"
	argLimit        = "limit"
	argCompanyName  = "company_name"
	argCompanyID    = "company_id"
)

var collectionField = types.Field{
	Name:        argCollectionID,
	Type:        types.TypeString,
	Description: "The collection ID (defaults to 'company_names')",
}

// DocumentToolHandler 文档 CRUD 工具
type DocumentToolHandler struct {
	svc service.DocumentService
}

func NewDocumentToolHandler(svc service.DocumentService) *DocumentToolHandler {
	return &DocumentToolHandler{svc: svc}
}

// Definitions 六个文档工具的参数声明
func (h *DocumentToolHandler) Definitions() []types.ToolDefinition {
	return []types.ToolDefinition{
		{
			Name:        ToolGetDocument,
			Description: "Get a document by its unique ID from the Appwrite database",
			Fields: []types.Field{
				{Name: argDocumentID, Type: types.TypeString, Required: true, Description: "The unique ID of the document to retrieve"},
				collectionField,
			},
		},
		{
			Name:        ToolListDocuments,
			Description: "List all documents from the companies collection",
			Fields: []types.Field{
				collectionField,
				{
					Name:        argLimit,
					Type:        types.TypeNumber,
					Default:     request.DefaultListLimit,
					Min:         types.MinValue(1),
					Description: "Maximum number of documents to return (defaults to 25)",
				},
			},
		},
		{
			Name:        ToolCreateDocument,
			Description: "Create a new company document in the Appwrite database",
			Fields: []types.Field{
				{Name: argCompanyName, Type: types.TypeString, Required: true, Description: "The company name"},
				{Name: argCompanyID, Type: types.TypeStringOrInteger, Required: true, Description: "The company identifier"},
				{Name: argDocumentID, Type: types.TypeString, Description: "Custom document ID (auto-generated when omitted)"},
				collectionField,
			},
		},
		{
			Name:        ToolUpdateDocument,
			Description: "Update fields of an existing document in the Appwrite database",
			Fields: []types.Field{
				{Name: argDocumentID, Type: types.TypeString, Required: true, Description: "The unique ID of the document to update"},
				{Name: argCompanyName, Type: types.TypeString, Description: "New company name"},
				{Name: argCompanyID, Type: types.TypeStringOrInteger, Description: "New company identifier"},
				collectionField,
			},
		},
		{
			Name:        ToolDeleteDocument,
			Description: "Delete a document by its unique ID from the Appwrite database",
			Fields: []types.Field{
				{Name: argDocumentID, Type: types.TypeString, Required: true, Description: "The unique ID of the document to delete"},
				collectionField,
			},
		},
		{
			Name:        ToolUpsertDocument,
			Description: "Create a document with the given ID, or update it if it already exists",
			Fields: []types.Field{
				{Name: argDocumentID, Type: types.TypeString, Required: true, Description: "The unique ID of the document"},
				{Name: argCompanyName, Type: types.TypeString, Required: true, Description: "The company name"},
				{Name: argCompanyID, Type: types.TypeStringOrInteger, Required: true, Description: "The company identifier"},
				collectionField,
			},
		},
	}
}

// RegisterTools 注册所有文档工具
func (h *DocumentToolHandler) RegisterTools(reg *registry.ToolRegistry) error {
	handlers := map[string]types.ToolHandler{
		ToolGetDocument:    h.handleGetDocument,
		ToolListDocuments:  h.handleListDocuments,
		ToolCreateDocument: h.handleCreateDocument,
		ToolUpdateDocument: h.handleUpdateDocument,
		ToolDeleteDocument: h.handleDeleteDocument,
		ToolUpsertDocument: h.handleUpsertDocument,
	}
	for _, def := range h.Definitions() {
		if err := reg.Register(def, handlers[def.Name]); err != nil {
			return err
		}
	}
	return nil
}

func envelopeResult(env respond.Envelope) (*types.Result, error) {
	text, err := respond.Render(env)
	if err != nil {
		return nil, err
	}
	return &types.Result{Text: text, Success: env.Succeeded()}, nil
}

func (h *DocumentToolHandler) handleGetDocument(ctx context.Context, args types.Args) (*types.Result, error) {
	return envelopeResult(h.svc.GetDocument(ctx, request.GetDocumentRequest{
		DocumentID:   args.String(argDocumentID),
		CollectionID: args.String(argCollectionID),
	}))
}

func (h *DocumentToolHandler) handleListDocuments(ctx context.Context, args types.Args) (*types.Result, error) {
	return envelopeResult(h.svc.ListDocuments(ctx, request.ListDocumentsRequest{
		CollectionID: args.String(argCollectionID),
		Limit:        args.Int(argLimit),
	}))
}

func (h *DocumentToolHandler) handleCreateDocument(ctx context.Context, args types.Args) (*types.Result, error) {
	return envelopeResult(h.svc.CreateDocument(ctx, request.CreateDocumentRequest{
		DocumentID:   args.String(argDocumentID),
		CollectionID: args.String(argCollectionID),
		CompanyName:  args.String(argCompanyName),
		CompanyID:    args.Value(argCompanyID),
	}))
}

func (h *DocumentToolHandler) handleUpdateDocument(ctx context.Context, args types.Args) (*types.Result, error) {
	return envelopeResult(h.svc.UpdateDocument(ctx, request.UpdateDocumentRequest{
		DocumentID:   args.String(argDocumentID),
		CollectionID: args.String(argCollectionID),
		CompanyName:  args.StringPtr(argCompanyName),
		CompanyID:    args.Value(argCompanyID),
	}))
}

func (h *DocumentToolHandler) handleDeleteDocument(ctx context.Context, args types.Args) (*types.Result, error) {
	return envelopeResult(h.svc.DeleteDocument(ctx, request.DeleteDocumentRequest{
		DocumentID:   args.String(argDocumentID),
		CollectionID: args.String(argCollectionID),
	}))
}

func (h *DocumentToolHandler) handleUpsertDocument(ctx context.Context, args types.Args) (*types.Result, error) {
	return envelopeResult(h.svc.UpsertDocument(ctx, request.UpsertDocumentRequest{
		DocumentID:   args.String(argDocumentID),
		CollectionID: args.String(argCollectionID),
		CompanyName:  args.String(argCompanyName),
		CompanyID:    args.Value(argCompanyID),
	}))
}
