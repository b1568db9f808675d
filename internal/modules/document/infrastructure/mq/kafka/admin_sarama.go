package kafka

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

// TopicSpec 创建 topic 时使用的参数
type TopicSpec struct {
	Partitions        int32
	ReplicationFactor int16
	Retention         time.Duration
}

// NewClusterAdmin 与生产者共用 broker 和 client id
func NewClusterAdmin(cfg PublisherConfig) (sarama.ClusterAdmin, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers is empty")
	}
	sc := sarama.NewConfig()
	sc.Version = sarama.V2_8_0_0
	sc.ClientID = strings.TrimSpace(cfg.ClientID)
	return sarama.NewClusterAdmin(cfg.Brokers, sc)
}

// EnsureTopic topic 不存在时创建，已存在视为成功
func EnsureTopic(admin sarama.ClusterAdmin, topic string, spec TopicSpec) (created bool, err error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return false, errors.New("kafka topic is empty")
	}
	if spec.Partitions <= 0 {
		spec.Partitions = 1
	}
	if spec.ReplicationFactor <= 0 {
		spec.ReplicationFactor = 1
	}
	if spec.Retention <= 0 {
		spec.Retention = 24 * time.Hour
	}

	topics, err := admin.ListTopics()
	if err != nil {
		return false, err
	}
	if _, ok := topics[topic]; ok {
		return false, nil
	}

	retention := strconv.FormatInt(spec.Retention.Milliseconds(), 10)
	td := &sarama.TopicDetail{
		NumPartitions:     spec.Partitions,
		ReplicationFactor: spec.ReplicationFactor,
		ConfigEntries: map[string]*string{
			"retention.ms": &retention,
		},
	}
	if err := admin.CreateTopic(topic, td, false); err != nil {
		if errors.Is(err, sarama.ErrTopicAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
