package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultConfigPath 默认配置文件路径
const DefaultConfigPath = "configs/config_local.toml"

type MainConfig struct {
	AppName     string   `toml:"appName"`
	Version     string   `toml:"version"`
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	TLSRedirect bool     `toml:"tlsRedirect"`
	CorsOrigins []string `toml:"corsOrigins"`
	ChangeFeed  bool     `toml:"changeFeed"`
}

// AppwriteConfig 远端文档数据库配置
type AppwriteConfig struct {
	Endpoint       string `toml:"endpoint"`
	ProjectID      string `toml:"projectID"`
	APIKey         string `toml:"apiKey"`
	DatabaseID     string `toml:"databaseID"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

// Enabled 端点、项目、密钥三者齐全时客户端才可用
func (c AppwriteConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.ProjectID) != "" &&
		strings.TrimSpace(c.APIKey) != ""
}

// StoreConfig 文档存储后端: appwrite | mysql | sqlite | memory
type StoreConfig struct {
	Backend string `toml:"backend"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type SqliteConfig struct {
	Path string `toml:"path"`
}

type KafkaConfig struct {
	Brokers           []string `toml:"brokers"`
	ClientID          string   `toml:"clientID"`
	DocumentTopic     string   `toml:"documentTopic"`
	EnsureTopic       bool     `toml:"ensureTopic"`
	Partitions        int32    `toml:"partitions"`
	ReplicationFactor int16    `toml:"replicationFactor"`
	RetentionHours    int      `toml:"retentionHours"`
	FeedFromKafka     bool     `toml:"feedFromKafka"`
	QueueSize         int      `toml:"queueSize"`
}

type JwtConfig struct {
	Key         string `toml:"key"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	LogPath    string `toml:"logPath"`
	MaxSizeMB  int    `toml:"maxSizeMB"`
	MaxBackups int    `toml:"maxBackups"`
	MaxAgeDays int    `toml:"maxAgeDays"`
}

// MCPConfig MCP Server 配置
type MCPConfig struct {
	Name              string `toml:"name"`
	Version           string `toml:"version"`
	EnableDemoTools   bool   `toml:"enableDemoTools"`
	StrictUpsertProbe bool   `toml:"strictUpsertProbe"`
	BaseURL           string `toml:"baseURL"`
}

type OtelConfig struct {
	Endpoint    string `toml:"endpoint"`
	Insecure    bool   `toml:"insecure"`
	ServiceName string `toml:"serviceName"`
}

type Config struct {
	MainConfig     `toml:"mainConfig"`
	AppwriteConfig `toml:"appwriteConfig"`
	StoreConfig    `toml:"storeConfig"`
	MysqlConfig    `toml:"mysqlConfig"`
	SqliteConfig   `toml:"sqliteConfig"`
	KafkaConfig    `toml:"kafkaConfig"`
	JwtConfig      `toml:"jwtConfig"`
	LogConfig      `toml:"logConfig"`
	MCPConfig      `toml:"mcpConfig"`
	OtelConfig     `toml:"otelConfig"`
}

// Default 返回带默认值的配置
func Default() *Config {
	return &Config{
		MainConfig: MainConfig{
			AppName:     "DocMCP",
			Version:     "1.0.0",
			Host:        "0.0.0.0",
			Port:        3000,
			CorsOrigins: []string{"*"},
		},
		AppwriteConfig: AppwriteConfig{TimeoutSeconds: 30},
		StoreConfig:    StoreConfig{Backend: "appwrite"},
		SqliteConfig:   SqliteConfig{Path: "docmcp.db"},
		KafkaConfig:    KafkaConfig{ClientID: "docmcp", DocumentTopic: "document-changes"},
		JwtConfig:      JwtConfig{ExpireHours: 24},
		LogConfig:      LogConfig{Level: "info"},
		MCPConfig: MCPConfig{
			Name:            "docmcp",
			Version:         "1.0.0",
			EnableDemoTools: true,
		},
		OtelConfig: OtelConfig{ServiceName: "docmcp"},
	}
}

// LoadConfig 读取配置文件并叠加环境变量；文件不存在时使用默认值
func LoadConfig(path string) (*Config, error) {
	conf := Default()
	if strings.TrimSpace(path) == "" {
		path = DefaultConfigPath
	}
	if _, err := toml.DecodeFile(path, conf); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	conf.ApplyEnv(os.LookupEnv)
	return conf, nil
}

// ApplyEnv 环境变量优先于配置文件。
// Appwrite 相关变量只要出现就覆盖，空值等同于未设置（例如 DATABASE_ID= 会清掉文件里的值）；
// 其余变量为空时保留文件配置。
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	override := func(dst *string, key string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	override(&c.AppwriteConfig.Endpoint, "APPWRITE_ENDPOINT")
	override(&c.AppwriteConfig.ProjectID, "APPWRITE_PROJECT_ID")
	override(&c.AppwriteConfig.APIKey, "APPWRITE_API_KEY")
	override(&c.AppwriteConfig.DatabaseID, "DATABASE_ID")
	set(&c.StoreConfig.Backend, "DOCMCP_STORE_BACKEND")
	set(&c.JwtConfig.Key, "DOCMCP_JWT_KEY")
	set(&c.OtelConfig.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// MaskedAPIKey 日志输出用
func (c AppwriteConfig) MaskedAPIKey() string {
	if strings.TrimSpace(c.APIKey) == "" {
		return "NOT SET"
	}
	return "***SET***"
}
