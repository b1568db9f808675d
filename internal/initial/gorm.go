package initial

import (
	"fmt"
	"strings"
	"time"

	"DocMCP/internal/config"
	"DocMCP/internal/modules/document/infrastructure/persistence"
	"DocMCP/pkg/zlog"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MysqlDSN 由配置拼出 DSN
func MysqlDSN(conf config.MysqlConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.User, conf.Password, conf.Host, conf.Port, conf.DatabaseName)
}

// NewGormDB 按后端打开数据库并自动迁移文档表
func NewGormDB(conf *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch conf.StoreConfig.Backend {
	case BackendMysql:
		dialector = mysql.Open(MysqlDSN(conf.MysqlConfig))
	case BackendSqlite:
		dialector = sqlite.Open(conf.SqliteConfig.Path)
	default:
		return nil, fmt.Errorf("backend %q has no sql database", conf.StoreConfig.Backend)
	}

	gormLogger := logger.New(
		gormWriter{},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.StoreConfig.Backend, err)
	}
	// 自动迁移，如果没有建表，会自动创建对应的表
	if err := db.AutoMigrate(&persistence.DocumentRecord{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return db, nil
}

// gormWriter 把 gorm 的日志转到 zlog，stdio 模式下 stdout 只留给 JSON-RPC
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	zlog.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), zap.String("component", "gorm"))
}
