package mq

import (
	"context"
	"errors"

	"DocMCP/pkg/ws"
)

// HeaderCollectionID 消息头中的集合 ID，变更推送按它分频道
const HeaderCollectionID = "collection_id"

// MultiPublisher 依次发布到所有下游，任一失败时返回合并后的错误
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, msg Message) (PublishResult, error) {
	var (
		res  PublishResult
		errs []error
	)
	for _, p := range m {
		r, err := p.Publish(ctx, msg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res = r
	}
	return res, errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

// HubPublisher 把变更事件推给 websocket 订阅者
type HubPublisher struct {
	hub *ws.Hub
}

func NewHubPublisher(hub *ws.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

// Publish Offset 为本次投递到的连接数
func (p *HubPublisher) Publish(ctx context.Context, msg Message) (PublishResult, error) {
	channel := msg.Headers[HeaderCollectionID]
	if channel == "" {
		channel = ws.AllChannels
	}
	n := p.hub.Broadcast(channel, msg.Value)
	return PublishResult{Partition: -1, Offset: int64(n)}, nil
}

// Handle 作为 kafka 消费者的处理器，把其他实例发布的事件转给本机订阅者
func (p *HubPublisher) Handle(ctx context.Context, msg Message) error {
	_, err := p.Publish(ctx, msg)
	return err
}

func (p *HubPublisher) Close() error {
	p.hub.CloseAll()
	return nil
}
