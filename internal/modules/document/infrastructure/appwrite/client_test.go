package appwrite

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"DocMCP/internal/config"
	"DocMCP/internal/modules/document/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.AppwriteConfig{
		Endpoint:  srv.URL + "/v1",
		ProjectID: "proj-1",
		APIKey:    "key-1",
	})
}

func TestGetSendsHeadersAndDecodesDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/databases/db/collections/company_names/documents/doc-1", r.URL.Path)
		assert.Equal(t, "proj-1", r.Header.Get("X-Appwrite-Project"))
		assert.Equal(t, "key-1", r.Header.Get("X-Appwrite-Key"))
		_, _ = io.WriteString(w, `{
			"$id": "doc-1",
			"$collectionId": "company_names",
			"$createdAt": "2024-05-01T10:00:00.000+00:00",
			"$updatedAt": "2024-05-02T10:00:00.000+00:00",
			"$permissions": [],
			"company_name": "Acme",
			"company_id": 42
		}`)
	})

	doc, err := client.Get(context.Background(), "db", "company_names", "doc-1")
	require.NoError(t, err)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "2024-05-01T10:00:00.000+00:00", doc.CreatedAt)
	assert.Equal(t, "2024-05-02T10:00:00.000+00:00", doc.UpdatedAt)
	assert.Equal(t, "Acme", doc.Fields["company_name"])
	assert.Equal(t, int64(42), doc.Fields["company_id"])
	assert.NotContains(t, doc.Fields, "$permissions")
}

func TestGetMapsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Document with the requested ID could not be found.","code":404,"type":"document_not_found"}`)
	})

	_, err := client.Get(context.Background(), "db", "c", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
	assert.Equal(t, "Document with the requested ID could not be found.", err.Error())
}

func TestServerErrorIsNotNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Get(context.Background(), "db", "c", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDocumentNotFound)
	assert.NotEmpty(t, err.Error())
}

func TestListSendsLimitQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var queries []string
		for _, vs := range r.URL.Query() {
			queries = append(queries, vs...)
		}
		require.Len(t, queries, 1)
		assert.JSONEq(t, `{"method":"limit","values":[25]}`, queries[0])
		_, _ = io.WriteString(w, `{"total": 2, "documents": [
			{"$id":"a","$createdAt":"t1","$updatedAt":"t1","company_name":"A","company_id":"x-1"},
			{"$id":"b","$createdAt":"t2","$updatedAt":"t2","company_name":"B","company_id":7}
		]}`)
	})

	list, err := client.List(context.Background(), "db", "company_names", 25)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Documents, 2)
	assert.Equal(t, "x-1", list.Documents[0].Fields["company_id"])
	assert.Equal(t, int64(7), list.Documents[1].Fields["company_id"])
}

func TestCreateUsesUniqueSentinelForAutoID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		var body struct {
			DocumentID string                 `json:"documentId"`
			Data       map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, UniqueID, body.DocumentID)
		assert.Equal(t, "Acme", body.Data["company_name"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"$id":"generated","$createdAt":"t","$updatedAt":"t","company_name":"Acme","company_id":1}`)
	})

	doc, err := client.Create(context.Background(), "db", "c", repository.AutoID, map[string]interface{}{
		"company_name": "Acme",
		"company_id":   1,
	})
	require.NoError(t, err)
	assert.Equal(t, "generated", doc.ID)
}

func TestUpdateUsesPatchAndDeleteAcceptsEmptyBody(t *testing.T) {
	var methods []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = io.WriteString(w, `{"$id":"d","$createdAt":"t","$updatedAt":"t2","company_name":"New"}`)
	})

	doc, err := client.Update(context.Background(), "db", "c", "d", map[string]interface{}{"company_name": "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", doc.Fields["company_name"])

	require.NoError(t, client.Delete(context.Background(), "db", "c", "d"))
	assert.Equal(t, []string{http.MethodPatch, http.MethodDelete}, methods)
}

func TestUnconfiguredClientNeverCallsOut(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(config.AppwriteConfig{Endpoint: srv.URL})
	_, err := client.Get(context.Background(), "db", "c", "d")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, called)
}

func TestCallHonoursCancelledContext(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "db", "c", "d")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestToAPIErrorReadsResponseBody(t *testing.T) {
	err := toAPIError(errors.New(`{"message":"Collection not found","code":404,"type":"collection_not_found"}`))

	assert.Equal(t, 404, err.StatusCode)
	assert.Equal(t, "collection_not_found", err.Type)
	assert.Equal(t, "Collection not found", err.Error())
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)

	plain := toAPIError(errors.New("connection refused"))
	assert.Equal(t, "connection refused", plain.Error())
	assert.NotErrorIs(t, plain, repository.ErrDocumentNotFound)
}

func TestNormalizeNumber(t *testing.T) {
	assert.Equal(t, int64(42), normalizeNumber(float64(42)))
	assert.Equal(t, 2.5, normalizeNumber(2.5))
	assert.Equal(t, float64(1e19), normalizeNumber(float64(1e19)))
	assert.Equal(t, "x", normalizeNumber("x"))
}
