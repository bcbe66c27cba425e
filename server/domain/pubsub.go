package domain

import (
	"context"
	"log/slog"
	"sync"
)

//go:generate go tool mockgen -destination=./mocks/pubsub_mock.go -package=mocks . PubSub

// Topic は PubSub の宛先です。"session:<id>" や "room:<id>" の形式を取ります。
type Topic string

func SessionTopic(id SessionID) Topic { return Topic("session:" + id.String()) }
func RoomTopic(id RoomID) Topic       { return Topic("room:" + id.String()) }
func RoomCtrlTopic(id RoomID) Topic   { return Topic("room:" + id.String() + ":ctrl") }

// Message は PubSub で配送される 1 メッセージです。
type Message struct {
	SessionID SessionID
	Data      []byte
}

// PubSub はセッションとルームの間のメッセージ配送を担当します。
type PubSub interface {
	Publish(ctx context.Context, topic Topic, msg Message)
	Subscribe(topic Topic) <-chan Message
	Unsubscribe(topic Topic, ch <-chan Message)
}

const subscriberBuffer = 1024

// SimplePubSub はプロセス内で完結する PubSub 実装です。
// 購読者のチャネルが満杯の場合、メッセージは破棄されます。
type SimplePubSub struct {
	mu   sync.RWMutex
	subs map[Topic][]chan Message
}

var _ PubSub = (*SimplePubSub)(nil)

func NewSimplePubSub() *SimplePubSub {
	return &SimplePubSub{subs: make(map[Topic][]chan Message)}
}

func (p *SimplePubSub) Publish(ctx context.Context, topic Topic, msg Message) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subs[topic] {
		select {
		case ch <- msg:
		default:
			slog.WarnContext(ctx, "pubsub: subscriber full, message dropped", "topic", topic)
		}
	}
}

func (p *SimplePubSub) Subscribe(topic Topic) <-chan Message {
	ch := make(chan Message, subscriberBuffer)
	p.mu.Lock()
	p.subs[topic] = append(p.subs[topic], ch)
	p.mu.Unlock()
	return ch
}

func (p *SimplePubSub) Unsubscribe(topic Topic, ch <-chan Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	subs := p.subs[topic]
	for i, c := range subs {
		if c == ch {
			p.subs[topic] = append(subs[:i], subs[i+1:]...)
			close(c)
			break
		}
	}
	if len(p.subs[topic]) == 0 {
		delete(p.subs, topic)
	}
}
