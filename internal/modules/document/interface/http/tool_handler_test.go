package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"DocMCP/internal/modules/document/application/service"
	"DocMCP/internal/modules/document/domain/entity"
	"DocMCP/internal/modules/document/infrastructure/mcp/registry"
	"DocMCP/internal/modules/document/infrastructure/mcp/server/handlers"
	"DocMCP/internal/modules/document/infrastructure/persistence"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newToolEngine(t *testing.T) (*gin.Engine, *persistence.MemoryDocumentRepository) {
	t.Helper()
	repo := persistence.NewMemoryDocumentRepository()
	svc := service.NewDocumentService(repo, service.Options{DatabaseID: "db"})
	reg := registry.NewToolRegistry()
	require.NoError(t, handlers.NewDocumentToolHandler(svc).RegisterTools(reg))
	require.NoError(t, handlers.NewCourseToolHandler().RegisterTools(reg))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewToolHandler(reg)
	r.GET("/api/tools", h.ListTools)
	r.POST("/api/tools/:name", h.CallTool)
	return r, repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) apiResponse {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestListTools(t *testing.T) {
	r, _ := newToolEngine(t)

	resp := doJSON(t, r, http.MethodGet, "/api/tools", "")

	assert.Equal(t, 200, resp.Code)
	var tools []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &tools))
	require.Len(t, tools, 7)
	assert.Equal(t, "getDocument", tools[0]["name"])
	assert.Equal(t, "courseRecommender", tools[6]["name"])
}

func TestCallToolReturnsEnvelope(t *testing.T) {
	r, repo := newToolEngine(t)
	repo.Seed("db", "company_names", &entity.Document{ID: "a", Fields: map[string]interface{}{"company_name": "Acme"}})

	resp := doJSON(t, r, http.MethodPost, "/api/tools/getDocument", `{"documentId":"a"}`)

	assert.Equal(t, 200, resp.Code)
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &env))
	assert.Equal(t, true, env["success"])
	assert.Equal(t, "Acme", env["document"].(map[string]interface{})["company_name"])
}

func TestCallToolPlainText(t *testing.T) {
	r, _ := newToolEngine(t)

	resp := doJSON(t, r, http.MethodPost, "/api/tools/courseRecommender", `{"experienceLevel":"beginner"}`)

	var text string
	require.NoError(t, json.Unmarshal(resp.Data, &text))
	assert.Equal(t, "I recommend you take the Beginner JS course", text)
}

func TestCallToolErrors(t *testing.T) {
	r, repo := newToolEngine(t)

	resp := doJSON(t, r, http.MethodPost, "/api/tools/nope", `{}`)
	assert.Equal(t, 404, resp.Code)
	assert.Equal(t, "tool 'nope' not found", resp.Message)

	resp = doJSON(t, r, http.MethodPost, "/api/tools/getDocument", `{}`)
	assert.Equal(t, 400, resp.Code)
	assert.Contains(t, resp.Message, "documentId")

	resp = doJSON(t, r, http.MethodPost, "/api/tools/getDocument", `not json`)
	assert.Equal(t, 400, resp.Code)

	resp = doJSON(t, r, http.MethodPost, "/api/tools/getDocument", `[1,2]`)
	assert.Equal(t, 400, resp.Code)

	resp = doJSON(t, r, http.MethodPost, "/api/tools/getDocument", ``)
	assert.Equal(t, 400, resp.Code)
	assert.Contains(t, resp.Message, "documentId")

	assert.Equal(t, 0, repo.TotalCalls())
}

func TestCallToolEmptyBodyMeansNoArguments(t *testing.T) {
	r, repo := newToolEngine(t)

	resp := doJSON(t, r, http.MethodPost, "/api/tools/listDocuments", ``)

	assert.Equal(t, 200, resp.Code)
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &env))
	assert.Equal(t, true, env["success"])
	assert.Equal(t, float64(0), env["total"])
	assert.Equal(t, 1, repo.TotalCalls())
}
