// Package ws fans rendered log updates out to streaming visitors.
package ws

import "sync"

// Topics carried by the hub.
const (
	TopicLogHTML = "log.html"
	TopicLogJSON = "log.json"
)

// DefaultQueueSize bounds the frames buffered for one subscriber before it is evicted.
const DefaultQueueSize = 8

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub manages stream subscriptions by topic. Each subscriber is written to
// from its own goroutine, so a stalled peer never holds up Broadcast.
type Hub struct {
	queueSize int

	peers     map[string]map[Subscriber]*peer
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
	count     chan chan int
	stop      chan struct{}
	stopOnce  sync.Once
	evicted   func(topic string)
}

type message struct {
	topic   string
	payload []byte
}

type subscription struct {
	topic  string
	client Subscriber
}

// peer owns the outbound queue of one subscriber.
type peer struct {
	topic  string
	client Subscriber
	queue  chan []byte
	quit   chan struct{}
	once   sync.Once
}

func (p *peer) detach() {
	p.once.Do(func() { close(p.quit) })
}

// HubOption customises a Hub.
type HubOption func(*Hub)

// WithQueueSize sets the per-subscriber queue length.
func WithQueueSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

// WithEvictionHook is called from the hub loop whenever a subscriber is
// dropped because its queue was full.
func WithEvictionHook(fn func(topic string)) HubOption {
	return func(h *Hub) { h.evicted = fn }
}

// NewHub creates a Hub and starts its loop.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		queueSize: DefaultQueueSize,
		peers:     make(map[string]map[Subscriber]*peer),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message, 64),
		count:     make(chan chan int),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.stop:
			for _, peers := range h.peers {
				for _, p := range peers {
					p.detach()
				}
			}
			h.peers = map[string]map[Subscriber]*peer{}
			return
		case sub := <-h.register:
			peers, ok := h.peers[sub.topic]
			if !ok {
				peers = make(map[Subscriber]*peer)
				h.peers[sub.topic] = peers
			}
			if _, exists := peers[sub.client]; exists {
				continue
			}
			p := &peer{
				topic:  sub.topic,
				client: sub.client,
				queue:  make(chan []byte, h.queueSize),
				quit:   make(chan struct{}),
			}
			peers[sub.client] = p
			go h.pump(p)
		case sub := <-h.unreg:
			h.remove(sub.topic, sub.client)
		case msg := <-h.broadcast:
			for _, p := range h.peers[msg.topic] {
				select {
				case p.queue <- msg.payload:
				default:
					h.remove(msg.topic, p.client)
					if h.evicted != nil {
						h.evicted(msg.topic)
					}
				}
			}
		case reply := <-h.count:
			total := 0
			for _, peers := range h.peers {
				total += len(peers)
			}
			reply <- total
		}
	}
}

func (h *Hub) remove(topic string, client Subscriber) {
	peers, ok := h.peers[topic]
	if !ok {
		return
	}
	if p, ok := peers[client]; ok {
		p.detach()
		delete(peers, client)
	}
	if len(peers) == 0 {
		delete(h.peers, topic)
	}
}

// pump drains one peer's queue. The subscriber is closed when the peer is
// detached or a write fails.
func (h *Hub) pump(p *peer) {
	defer p.client.Close()
	for {
		select {
		case <-p.quit:
			return
		case payload := <-p.queue:
			if err := p.client.Send(payload); err != nil {
				h.Unregister(p.topic, p.client)
				return
			}
		}
	}
}

// Register adds a client to a topic.
func (h *Hub) Register(topic string, client Subscriber) {
	select {
	case h.register <- subscription{topic: topic, client: client}:
	case <-h.stop:
		client.Close()
	}
}

// Unregister removes a client and closes it.
func (h *Hub) Unregister(topic string, client Subscriber) {
	select {
	case h.unreg <- subscription{topic: topic, client: client}:
	case <-h.stop:
	}
}

// Broadcast queues payload for every client of topic. It only waits on the
// hub loop, never on a client.
func (h *Hub) Broadcast(topic string, payload []byte) {
	select {
	case h.broadcast <- message{topic: topic, payload: payload}:
	case <-h.stop:
	}
}

// Clients reports the number of registered clients across topics.
func (h *Hub) Clients() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.stop:
		return 0
	}
}

// Close disconnects every client and stops the hub.
func (h *Hub) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
}
