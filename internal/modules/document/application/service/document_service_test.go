package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"DocMCP/internal/modules/document/application/dto/request"
	"DocMCP/internal/modules/document/application/dto/respond"
	"DocMCP/internal/modules/document/domain/entity"
	"DocMCP/internal/modules/document/domain/repository"
	"DocMCP/internal/modules/document/infrastructure/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDB = "db-test"

func newTestService(t *testing.T, opts Options) (DocumentService, *persistence.MemoryDocumentRepository) {
	t.Helper()
	repo := persistence.NewMemoryDocumentRepository()
	repo.SetClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) })
	if opts.DatabaseID == "" {
		opts.DatabaseID = testDB
	}
	return NewDocumentService(repo, opts), repo
}

func seed(repo *persistence.MemoryDocumentRepository, collection, id string) {
	repo.Seed(testDB, collection, &entity.Document{
		ID:        id,
		CreatedAt: "2024-01-01T00:00:00.000+00:00",
		UpdatedAt: "2024-01-01T00:00:00.000+00:00",
		Fields: map[string]interface{}{
			entity.FieldCompanyName: "Acme",
			entity.FieldCompanyID:   int64(7),
		},
	})
}

func strPtr(s string) *string { return &s }

func requireError(t *testing.T, env respond.Envelope) *respond.ErrorRespond {
	t.Helper()
	errEnv, ok := env.(*respond.ErrorRespond)
	require.Truef(t, ok, "expected error envelope, got %T", env)
	assert.False(t, errEnv.Success)
	assert.NotEmpty(t, errEnv.Error)
	return errEnv
}

func TestGetDocumentSuccess(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	seed(repo, request.DefaultCollectionID, "doc-1")

	env := svc.GetDocument(context.Background(), request.GetDocumentRequest{DocumentID: "doc-1"})

	got, ok := env.(*respond.GetDocumentRespond)
	require.True(t, ok)
	assert.True(t, got.Success)
	assert.Equal(t, &respond.DocumentItem{
		ID:          "doc-1",
		CreatedAt:   "2024-01-01T00:00:00.000+00:00",
		UpdatedAt:   "2024-01-01T00:00:00.000+00:00",
		CompanyName: "Acme",
		CompanyID:   int64(7),
	}, got.Document)
	assert.Equal(t, 1, repo.Calls(persistence.OpGet))
}

func TestGetDocumentIsIdempotent(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	seed(repo, request.DefaultCollectionID, "doc-1")
	req := request.GetDocumentRequest{DocumentID: "doc-1"}

	first, err := respond.Render(svc.GetDocument(context.Background(), req))
	require.NoError(t, err)
	second, err := respond.Render(svc.GetDocument(context.Background(), req))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestListDocumentsDefaults(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	for i := 0; i < 30; i++ {
		seed(repo, request.DefaultCollectionID, fmt.Sprintf("doc-%02d", i))
	}
	seed(repo, "other", "elsewhere")

	env := svc.ListDocuments(context.Background(), request.ListDocumentsRequest{})

	got, ok := env.(*respond.ListDocumentsRespond)
	require.True(t, ok)
	assert.True(t, got.Success)
	assert.Equal(t, int64(30), got.Total)
	assert.Len(t, got.Documents, request.DefaultListLimit)
}

func TestListDocumentsEmptyCollectionRendersEmptyArray(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	text, err := respond.Render(svc.ListDocuments(context.Background(), request.ListDocumentsRequest{CollectionID: "empty", Limit: 5}))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"success\": true,\n  \"total\": 0,\n  \"documents\": []\n}", text)
}

func TestCreateDocument(t *testing.T) {
	svc, repo := newTestService(t, Options{})

	env := svc.CreateDocument(context.Background(), request.CreateDocumentRequest{
		DocumentID:  "acme",
		CompanyName: "Acme",
		CompanyID:   "ACME-1",
	})

	got, ok := env.(*respond.MutationRespond)
	require.True(t, ok)
	assert.Equal(t, respond.MessageCreated, got.Message)
	assert.Equal(t, "acme", got.Document.ID)
	assert.Equal(t, "ACME-1", got.Document.CompanyID)
	assert.Equal(t, 1, repo.Calls(persistence.OpCreate))
	assert.Equal(t, 1, repo.TotalCalls())
}

func TestCreateDocumentWithoutIDRequestsAutoID(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	env := svc.CreateDocument(context.Background(), request.CreateDocumentRequest{CompanyName: "Acme", CompanyID: int64(1)})

	got, ok := env.(*respond.MutationRespond)
	require.True(t, ok)
	assert.NotEmpty(t, got.Document.ID)
}

func TestUpdateDocument(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	seed(repo, request.DefaultCollectionID, "doc-1")

	env := svc.UpdateDocument(context.Background(), request.UpdateDocumentRequest{
		DocumentID:  "doc-1",
		CompanyName: strPtr("Acme Corp"),
	})

	got, ok := env.(*respond.MutationRespond)
	require.True(t, ok)
	assert.Equal(t, respond.MessageUpdated, got.Message)
	assert.Equal(t, "Acme Corp", got.Document.CompanyName)
	assert.Equal(t, int64(7), got.Document.CompanyID)
	assert.Equal(t, "2024-06-01T12:00:00.000+00:00", got.Document.UpdatedAt)
}

func TestUpdateDocumentWithoutFieldsMakesNoRemoteCall(t *testing.T) {
	svc, repo := newTestService(t, Options{})

	env := svc.UpdateDocument(context.Background(), request.UpdateDocumentRequest{DocumentID: "doc-1"})

	errEnv := requireError(t, env)
	assert.Equal(t, ErrNoFieldsProvided.Error(), errEnv.Error)
	assert.Contains(t, errEnv.Error, "No fields provided")
	assert.Equal(t, 0, repo.TotalCalls())
}

func TestDeleteDocument(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	seed(repo, "custom", "doc-1")

	env := svc.DeleteDocument(context.Background(), request.DeleteDocumentRequest{DocumentID: "doc-1", CollectionID: "custom"})

	got, ok := env.(*respond.DeleteDocumentRespond)
	require.True(t, ok)
	assert.Equal(t, "doc-1", got.DeletedDocumentID)
	assert.Equal(t, respond.MessageDeleted, got.Message)
	assert.Equal(t, 1, repo.Calls(persistence.OpDelete))
}

func TestUpsertCreatesWhenMissing(t *testing.T) {
	svc, repo := newTestService(t, Options{})

	env := svc.UpsertDocument(context.Background(), request.UpsertDocumentRequest{
		DocumentID:  "new-doc",
		CompanyName: "Acme",
		CompanyID:   int64(3),
	})

	got, ok := env.(*respond.UpsertDocumentRespond)
	require.True(t, ok)
	assert.Equal(t, respond.OperationCreated, got.Operation)
	assert.Equal(t, "new-doc", got.Document.ID)
	assert.Equal(t, 1, repo.Calls(persistence.OpGet))
	assert.Equal(t, 1, repo.Calls(persistence.OpCreate))
	assert.Equal(t, 0, repo.Calls(persistence.OpUpdate))
}

func TestUpsertUpdatesWhenPresent(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	seed(repo, request.DefaultCollectionID, "doc-1")

	env := svc.UpsertDocument(context.Background(), request.UpsertDocumentRequest{
		DocumentID:  "doc-1",
		CompanyName: "Renamed",
		CompanyID:   "R-1",
	})

	got, ok := env.(*respond.UpsertDocumentRespond)
	require.True(t, ok)
	assert.Equal(t, respond.OperationUpdated, got.Operation)
	assert.Equal(t, "Renamed", got.Document.CompanyName)
	assert.Equal(t, 1, repo.Calls(persistence.OpGet))
	assert.Equal(t, 1, repo.Calls(persistence.OpUpdate))
	assert.Equal(t, 0, repo.Calls(persistence.OpCreate))
}

func TestUpsertTreatsAnyProbeFailureAsMissing(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	repo.FailOn(persistence.OpGet, errors.New("connection reset"))

	env := svc.UpsertDocument(context.Background(), request.UpsertDocumentRequest{DocumentID: "d", CompanyName: "A", CompanyID: "1"})

	got, ok := env.(*respond.UpsertDocumentRespond)
	require.True(t, ok)
	assert.Equal(t, respond.OperationCreated, got.Operation)
	assert.Equal(t, 1, repo.Calls(persistence.OpCreate))
}

func TestStrictUpsertProbeOnlyCreatesOnNotFound(t *testing.T) {
	svc, repo := newTestService(t, Options{StrictUpsertProbe: true})
	repo.FailOn(persistence.OpGet, errors.New("connection reset"))

	env := svc.UpsertDocument(context.Background(), request.UpsertDocumentRequest{DocumentID: "d", CompanyName: "A", CompanyID: "1"})
	errEnv := requireError(t, env)
	assert.Contains(t, errEnv.Error, "connection reset")
	assert.Equal(t, 0, repo.Calls(persistence.OpCreate))

	repo.FailOn(persistence.OpGet, nil)
	env = svc.UpsertDocument(context.Background(), request.UpsertDocumentRequest{DocumentID: "d", CompanyName: "A", CompanyID: "1"})
	got, ok := env.(*respond.UpsertDocumentRespond)
	require.True(t, ok)
	assert.Equal(t, respond.OperationCreated, got.Operation)
}

func TestUpsertCreateConflictPropagates(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	repo.FailOn(persistence.OpGet, fmt.Errorf("probe: %w", repository.ErrDocumentNotFound))
	repo.FailOn(persistence.OpCreate, persistence.ErrDocumentExists)

	env := svc.UpsertDocument(context.Background(), request.UpsertDocumentRequest{DocumentID: "d", CompanyName: "A", CompanyID: "1"})

	errEnv := requireError(t, env)
	assert.Equal(t, persistence.ErrDocumentExists.Error(), errEnv.Error)
	assert.Equal(t, 1, repo.Calls(persistence.OpGet), "no retry")
	assert.Equal(t, 1, repo.Calls(persistence.OpCreate), "no retry")
}

// allOperations 每个操作及其失败时应被调用的存储操作
func allOperations() []struct {
	name string
	op   string
	call func(DocumentService) respond.Envelope
} {
	ctx := context.Background()
	return []struct {
		name string
		op   string
		call func(DocumentService) respond.Envelope
	}{
		{"get", persistence.OpGet, func(s DocumentService) respond.Envelope {
			return s.GetDocument(ctx, request.GetDocumentRequest{DocumentID: "d"})
		}},
		{"list", persistence.OpList, func(s DocumentService) respond.Envelope {
			return s.ListDocuments(ctx, request.ListDocumentsRequest{})
		}},
		{"create", persistence.OpCreate, func(s DocumentService) respond.Envelope {
			return s.CreateDocument(ctx, request.CreateDocumentRequest{CompanyName: "A", CompanyID: "1"})
		}},
		{"update", persistence.OpUpdate, func(s DocumentService) respond.Envelope {
			return s.UpdateDocument(ctx, request.UpdateDocumentRequest{DocumentID: "d", CompanyID: "1"})
		}},
		{"delete", persistence.OpDelete, func(s DocumentService) respond.Envelope {
			return s.DeleteDocument(ctx, request.DeleteDocumentRequest{DocumentID: "d"})
		}},
		{"upsert", persistence.OpCreate, func(s DocumentService) respond.Envelope {
			return s.UpsertDocument(ctx, request.UpsertDocumentRequest{DocumentID: "d", CompanyName: "A", CompanyID: "1"})
		}},
	}
}

func TestRemoteFailureBecomesEnvelopeWithoutRetry(t *testing.T) {
	for _, tc := range allOperations() {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newTestService(t, Options{})
			repo.FailOn(tc.op, errors.New("remote exploded"))

			errEnv := requireError(t, tc.call(svc))
			assert.Equal(t, "remote exploded", errEnv.Error)
			assert.Equal(t, 1, repo.Calls(tc.op))
		})
	}
}

func TestMissingDatabaseIDShortCircuits(t *testing.T) {
	for _, tc := range allOperations() {
		t.Run(tc.name, func(t *testing.T) {
			repo := persistence.NewMemoryDocumentRepository()
			svc := NewDocumentService(repo, Options{DatabaseID: "  "})

			errEnv := requireError(t, tc.call(svc))
			assert.Equal(t, "DATABASE_ID environment variable is not set", errEnv.Error)
			assert.Equal(t, 0, repo.TotalCalls())
		})
	}
}

func TestEmptyErrorMessageFallsBack(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	repo.FailOn(persistence.OpList, errors.New(""))

	errEnv := requireError(t, svc.ListDocuments(context.Background(), request.ListDocumentsRequest{}))
	assert.Equal(t, "Unknown error occurred", errEnv.Error)
}

func TestNilRepositoryReportsConfigurationError(t *testing.T) {
	svc := NewDocumentService(nil, Options{DatabaseID: testDB})

	errEnv := requireError(t, svc.GetDocument(context.Background(), request.GetDocumentRequest{DocumentID: "d"}))
	assert.Equal(t, "document store is not configured", errEnv.Error)
}
