package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/autopeer-io/cpeer-report/pkg/log"
)

type subscription struct {
	filter  string
	qos     int
	handler MessageHandler
}

type delivery struct {
	handler MessageHandler
	payload []byte
}

// router delivers received messages to matching subscriptions. Messages on
// one topic are handled one at a time in arrival order; different topics are
// handled concurrently. Each busy topic owns one goroutine that exits once its
// queue is empty.
type router struct {
	// subscriptions maps a topic filter to its subscription.
	subscriptions sync.Map

	mu     sync.Mutex
	queues map[string][]delivery
	active sync.WaitGroup
}

func newRouter() *router {
	return &router{queues: make(map[string][]delivery)}
}

func (r *router) add(filter string, qos int, handler MessageHandler) {
	r.subscriptions.Store(filter, subscription{filter: filter, qos: qos, handler: handler})
}

func (r *router) remove(filter string) {
	r.subscriptions.Delete(filter)
}

func (r *router) each(fn func(subscription)) {
	r.subscriptions.Range(func(_, value any) bool {
		fn(value.(subscription))
		return true
	})
}

// route queues payload for every subscription matching topic and returns the
// number of matches.
func (r *router) route(topic string, payload []byte) int {
	var matched []delivery
	r.each(func(sub subscription) {
		if topicsMatch(topicFilter(sub.filter), topic) {
			matched = append(matched, delivery{handler: sub.handler, payload: payload})
		}
	})
	if len(matched) == 0 {
		log.Debug("Received message on unhandled topic", "topic", topic)
		return 0
	}

	r.mu.Lock()
	queue, busy := r.queues[topic]
	r.queues[topic] = append(queue, matched...)
	if !busy {
		r.active.Add(1)
	}
	r.mu.Unlock()

	if !busy {
		go r.drain(topic)
	}
	return len(matched)
}

func (r *router) drain(topic string) {
	defer r.active.Done()

	for {
		r.mu.Lock()
		queue := r.queues[topic]
		if len(queue) == 0 {
			delete(r.queues, topic)
			r.mu.Unlock()
			return
		}
		next := queue[0]
		queue[0] = delivery{}
		r.queues[topic] = queue[1:]
		r.mu.Unlock()

		r.deliver(topic, next)
	}
}

func (r *router) deliver(topic string, d delivery) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error(fmt.Errorf("%v", rec), "Message handler panicked", "topic", topic)
		}
	}()
	d.handler(context.Background(), topic, d.payload)
}

// wait blocks until all queued messages have been handled.
func (r *router) wait() {
	r.active.Wait()
}

// topicsMatch reports whether topic matches filter, honoring + and #.
func topicsMatch(filter, topic string) bool {
	if filter == topic {
		return true
	}
	if !strings.ContainsAny(filter, "+#") {
		return false
	}

	filterParts := strings.Split(filter, "/")
	topicParts := strings.Split(topic, "/")

	for i, part := range filterParts {
		if part == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "+" && part != topicParts[i] {
			return false
		}
	}

	return len(filterParts) == len(topicParts)
}

// topicFilter strips a $share/{group}/ prefix.
func topicFilter(filter string) string {
	if rest, ok := strings.CutPrefix(filter, "$share/"); ok {
		if _, f, ok := strings.Cut(rest, "/"); ok {
			return f
		}
	}
	return filter
}
