// Package progress broadcasts run progress over a nanomsg PUB socket so that
// dashboards and other processes can follow a long run.
//
// Each message is the topic, one space, then a JSON envelope. Subscribers
// filter on "topic " prefixes.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports (tcp, ipc, inproc, ws)
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// Published topics
const (
	TopicRound  = "round"
	TopicResult = "result"
)

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("progress publisher closed")

// Message is the envelope every publication carries.
type Message struct {
	Topic string          `json:"topic"`
	RunID string          `json:"run_id,omitempty"`
	Time  time.Time       `json:"time"`
	Data  json.RawMessage `json:"data"`
}

// Publisher sends progress messages to every connected subscriber. Slow or
// absent subscribers never block a publication.
type Publisher struct {
	sock   mangos.Socket
	addr   string
	runID  string
	mu     sync.Mutex
	closed bool
}

// NewPublisher listens on addr, for example "tcp://127.0.0.1:7600".
func NewPublisher(addr, runID string) (*Publisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to bind PUB socket to %s: %w", addr, err)
	}
	return &Publisher{sock: sock, addr: addr, runID: runID}, nil
}

// Addr returns the address the publisher listens on.
func (p *Publisher) Addr() string {
	return p.addr
}

// Publish JSON-encodes v and sends it on topic.
func (p *Publisher) Publish(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", topic, err)
	}
	envelope, err := json.Marshal(Message{
		Topic: topic,
		RunID: p.runID,
		Time:  time.Now().UTC(),
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", topic, err)
	}

	msg := make([]byte, 0, len(topic)+1+len(envelope))
	msg = append(msg, topic...)
	msg = append(msg, ' ')
	msg = append(msg, envelope...)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return p.sock.Send(msg)
}

// Close closes the socket. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.sock.Close()
}

// Subscriber receives messages from a Publisher.
type Subscriber struct {
	sock mangos.Socket
}

// NewSubscriber dials addr and subscribes to topics, or to everything when
// none are given.
func NewSubscriber(addr string, topics ...string) (*Subscriber, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}
	if len(topics) == 0 {
		topics = []string{""}
	}
	for _, topic := range topics {
		prefix := topic
		if prefix != "" {
			prefix += " "
		}
		if err := sock.SetOption(mangos.OptionSubscribe, []byte(prefix)); err != nil {
			sock.Close()
			return nil, fmt.Errorf("failed to subscribe to %q: %w", topic, err)
		}
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to connect SUB socket to %s: %w", addr, err)
	}
	return &Subscriber{sock: sock}, nil
}

// Next waits up to timeout for the next message.
func (s *Subscriber) Next(timeout time.Duration) (Message, error) {
	if err := s.sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
		return Message{}, err
	}
	raw, err := s.sock.Recv()
	if err != nil {
		return Message{}, err
	}

	for i, b := range raw {
		if b == ' ' {
			raw = raw[i+1:]
			break
		}
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("malformed progress message: %w", err)
	}
	return msg, nil
}

// Close closes the socket.
func (s *Subscriber) Close() error {
	return s.sock.Close()
}
