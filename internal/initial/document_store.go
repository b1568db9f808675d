package initial

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"DocMCP/internal/config"
	"DocMCP/internal/modules/document/domain/repository"
	"DocMCP/internal/modules/document/infrastructure/appwrite"
	"DocMCP/internal/modules/document/infrastructure/mq"
	"DocMCP/internal/modules/document/infrastructure/mq/kafka"
	"DocMCP/internal/modules/document/infrastructure/persistence"
	"DocMCP/pkg/util"
	"DocMCP/pkg/ws"
	"DocMCP/pkg/zlog"

	"go.uber.org/zap"
)

// 文档存储后端
const (
	BackendAppwrite = "appwrite"
	BackendMysql    = "mysql"
	BackendSqlite   = "sqlite"
	BackendMemory   = "memory"
)

// DocumentStore 组装好的存储及其释放函数
type DocumentStore struct {
	Repo    repository.DocumentRepository
	closers []func() error

	feed     mq.Consumer
	feedSink mq.Handler
}

// StartFeedRelay 后台消费 kafka 变更事件并推给本机 websocket 订阅者；未启用时什么都不做
func (s *DocumentStore) StartFeedRelay(ctx context.Context) {
	if s.feed == nil {
		return
	}
	go func() {
		if err := s.feed.Run(ctx, s.feedSink); err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error("document feed relay stopped", zap.Error(err))
		}
	}()
}

// Close 按打开的逆序释放资源
func (s *DocumentStore) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			zlog.Warn("close document store", zap.Error(err))
		}
	}
}

// NewDocumentStore 按配置选择后端；配置了 kafka 或传入 hub 时包一层变更事件发布
func NewDocumentStore(conf *config.Config, hub *ws.Hub) (*DocumentStore, error) {
	store := &DocumentStore{}
	backend := strings.ToLower(strings.TrimSpace(conf.StoreConfig.Backend))
	conf.StoreConfig.Backend = backend

	switch backend {
	case "", BackendAppwrite:
		zlog.Info("Appwrite Config",
			zap.String("endpoint", conf.AppwriteConfig.Endpoint),
			zap.String("project_id", conf.AppwriteConfig.ProjectID),
			zap.String("database_id", conf.AppwriteConfig.DatabaseID),
			zap.String("api_key", conf.AppwriteConfig.MaskedAPIKey()))
		store.Repo = appwrite.NewClient(conf.AppwriteConfig)
	case BackendMysql, BackendSqlite:
		db, err := NewGormDB(conf)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, sqlDB.Close)
		store.Repo = persistence.NewDocumentRepository(db)
	case BackendMemory:
		store.Repo = persistence.NewMemoryDocumentRepository()
	default:
		return nil, fmt.Errorf("unknown store backend %q", conf.StoreConfig.Backend)
	}
	zlog.Info("document store ready", zap.String("backend", backend))

	var publishers mq.MultiPublisher
	if len(conf.KafkaConfig.Brokers) > 0 {
		pubConf := kafka.PublisherConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			ClientID: conf.KafkaConfig.ClientID,
		}
		if conf.KafkaConfig.EnsureTopic {
			ensureDocumentTopic(pubConf, conf.KafkaConfig)
		}
		publisher, err := kafka.NewSaramaPublisher(pubConf)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		publishers = append(publishers, mq.NewAsyncPublisher(publisher, conf.KafkaConfig.QueueSize))
		zlog.Info("document change events enabled", zap.String("topic", conf.KafkaConfig.DocumentTopic))
	}
	if hub != nil {
		hubPub := mq.NewHubPublisher(hub)
		if len(publishers) > 0 && conf.KafkaConfig.FeedFromKafka {
			if err := store.attachFeedRelay(conf.KafkaConfig, hubPub); err != nil {
				publishers.Close()
				store.Close()
				return nil, err
			}
		} else {
			publishers = append(publishers, hubPub)
		}
		zlog.Info("document change feed enabled", zap.Bool("via_kafka", store.feed != nil))
	}
	if len(publishers) > 0 {
		store.closers = append(store.closers, publishers.Close)
		store.Repo = mq.NewEventPublishingRepository(store.Repo, publishers, conf.KafkaConfig.DocumentTopic)
	}
	return store, nil
}

// attachFeedRelay 每个实例独立的消费组，保证所有实例都收到全部事件
func (s *DocumentStore) attachFeedRelay(conf config.KafkaConfig, hubPub *mq.HubPublisher) error {
	groupID := conf.ClientID + "-feed-" + util.GenerateShortUUID()
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:  conf.Brokers,
		GroupID:  groupID,
		Topics:   []string{conf.DocumentTopic},
		ClientID: conf.ClientID,
	})
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	s.feed = consumer
	s.feedSink = hubPub
	s.closers = append(s.closers, hubPub.Close, consumer.Close)
	zlog.Info("document feed relay ready", zap.String("group_id", groupID))
	return nil
}

// ensureDocumentTopic 失败只记录日志，发布时仍可能依赖 broker 自动建 topic
func ensureDocumentTopic(pubConf kafka.PublisherConfig, conf config.KafkaConfig) {
	admin, err := kafka.NewClusterAdmin(pubConf)
	if err != nil {
		zlog.Warn("kafka admin unavailable", zap.Error(err))
		return
	}
	defer admin.Close()

	created, err := kafka.EnsureTopic(admin, conf.DocumentTopic, kafka.TopicSpec{
		Partitions:        conf.Partitions,
		ReplicationFactor: conf.ReplicationFactor,
		Retention:         time.Duration(conf.RetentionHours) * time.Hour,
	})
	if err != nil {
		zlog.Warn("ensure kafka topic failed", zap.String("topic", conf.DocumentTopic), zap.Error(err))
		return
	}
	zlog.Info("kafka topic ready", zap.String("topic", conf.DocumentTopic), zap.Bool("created", created))
}
