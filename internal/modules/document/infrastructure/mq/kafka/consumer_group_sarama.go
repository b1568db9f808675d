package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"DocMCP/internal/modules/document/infrastructure/mq"

	"github.com/IBM/sarama"
)

type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topics   []string
	ClientID string
}

type saramaConsumer struct {
	cg     sarama.ConsumerGroup
	topics []string
}

// NewConsumer 消费组从最新位点开始读，变更推送不回放历史
func NewConsumer(cfg ConsumerConfig) (mq.Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers is empty")
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, errors.New("kafka consumer group id is empty")
	}
	if len(cfg.Topics) == 0 {
		return nil, errors.New("kafka topics is empty")
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V2_8_0_0
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Group.Rebalance.Timeout = 30 * time.Second
	sc.Consumer.Group.Session.Timeout = 30 * time.Second
	sc.ClientID = strings.TrimSpace(cfg.ClientID)

	cg, err := sarama.NewConsumerGroup(cfg.Brokers, strings.TrimSpace(cfg.GroupID), sc)
	if err != nil {
		return nil, err
	}
	return NewConsumerWithGroup(cg, cfg.Topics), nil
}

// NewConsumerWithGroup 使用已有的消费组
func NewConsumerWithGroup(cg sarama.ConsumerGroup, topics []string) mq.Consumer {
	return &saramaConsumer{cg: cg, topics: topics}
}

// Run 阻塞直到 ctx 结束或消费组关闭
func (c *saramaConsumer) Run(ctx context.Context, handler mq.Handler) error {
	if handler == nil {
		return errors.New("handler is nil")
	}
	h := &consumerGroupHandler{h: handler}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.cg.Consume(ctx, c.topics, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
	}
}

func (c *saramaConsumer) Close() error {
	if c == nil {
		return nil
	}
	return c.cg.Close()
}

type consumerGroupHandler struct {
	h mq.Handler
}

func (consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for m := range claim.Messages() {
		if err := h.h.Handle(sess.Context(), toMessage(m)); err == nil {
			sess.MarkMessage(m, "")
		}
	}
	return nil
}

func toMessage(m *sarama.ConsumerMessage) mq.Message {
	msg := mq.Message{
		Topic: m.Topic,
		Key:   m.Key,
		Value: m.Value,
	}
	if len(m.Headers) == 0 {
		return msg
	}
	msg.Headers = make(map[string]string, len(m.Headers))
	for _, hdr := range m.Headers {
		if hdr == nil || len(hdr.Key) == 0 {
			continue
		}
		msg.Headers[string(hdr.Key)] = string(hdr.Value)
	}
	return msg
}
