package initial

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"DocMCP/internal/config"
	"DocMCP/internal/modules/document/infrastructure/persistence"
	"DocMCP/pkg/zlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGormLogsGoThroughZlogNotStdout(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer zlog.ReplaceLogger(zap.New(core))()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	conf := config.Default()
	conf.StoreConfig.Backend = BackendSqlite
	conf.SqliteConfig.Path = filepath.Join(t.TempDir(), "docs.db")
	db, err := NewGormDB(conf)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := persistence.NewDocumentRepository(db)
	ctx := context.Background()
	_, err = repo.Create(ctx, "db", "company_names", "dup", map[string]interface{}{"company_name": "Acme"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, "db", "company_names", "dup", map[string]interface{}{"company_name": "Acme"})
	require.Error(t, err)

	os.Stdout = stdout
	require.NoError(t, w.Close())
	written, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, string(written))

	gormLogs := logs.FilterField(zap.String("component", "gorm")).All()
	require.NotEmpty(t, gormLogs)
	var messages []string
	for _, e := range gormLogs {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, strings.Join(messages, "\n"), "UNIQUE constraint failed")
}
