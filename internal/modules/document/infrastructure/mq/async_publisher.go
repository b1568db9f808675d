package mq

import (
	"context"
	"errors"
	"sync"

	"DocMCP/pkg/zlog"

	"go.uber.org/zap"
)

// ErrPublishQueueFull 后台队列已满，事件被丢弃
var ErrPublishQueueFull = errors.New("publish queue is full")

// ErrPublisherClosed 关闭后不再接收事件
var ErrPublisherClosed = errors.New("publisher is closed")

type queuedMessage struct {
	ctx context.Context
	msg Message
}

// AsyncPublisher 把发布移出调用方的请求路径：入队即返回，单个后台协程按入队顺序发送
type AsyncPublisher struct {
	next  Publisher
	queue chan queuedMessage

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsyncPublisher(next Publisher, queueSize int) *AsyncPublisher {
	if queueSize <= 0 {
		queueSize = 256
	}
	p := &AsyncPublisher{
		next:  next,
		queue: make(chan queuedMessage, queueSize),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish 不等待 broker 确认，PublishResult 的分区和位点为 -1
func (p *AsyncPublisher) Publish(ctx context.Context, msg Message) (PublishResult, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return PublishResult{}, ErrPublisherClosed
	}
	select {
	case p.queue <- queuedMessage{ctx: context.WithoutCancel(ctx), msg: msg}:
		return PublishResult{Partition: -1, Offset: -1}, nil
	default:
		return PublishResult{}, ErrPublishQueueFull
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for q := range p.queue {
		res, err := p.next.Publish(q.ctx, q.msg)
		if err != nil {
			zlog.Warn("async publish failed",
				zap.String("topic", q.msg.Topic),
				zap.ByteString("key", q.msg.Key),
				zap.Error(err))
			continue
		}
		zlog.Debug("async publish done",
			zap.String("topic", q.msg.Topic),
			zap.Int32("partition", res.Partition),
			zap.Int64("offset", res.Offset))
	}
}

// Close 发送完已入队的事件后关闭下游
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.next.Close()
}
