package engine

import (
	"context"
	"sync"

	"fitcompkit/core"
)

type DispatchMode int

const (
	DispatchSync DispatchMode = iota
	DispatchAsync
)

type subscription struct {
	id int64
	fn func(context.Context, core.Event)
}

// EventBus provides thread-safe pub/sub with sync and async dispatch.
type EventBus struct {
	mode       DispatchMode
	mu         sync.RWMutex
	subs       map[core.EventType]map[int64]subscription
	nextID     int64
	asyncQueue chan core.Event
	workers    sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

const asyncWorkers = 4

func NewEventBus(mode DispatchMode) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	eb := &EventBus{
		mode:       mode,
		subs:       make(map[core.EventType]map[int64]subscription),
		asyncQueue: make(chan core.Event, 1024),
		ctx:        ctx,
		cancel:     cancel,
	}
	if mode == DispatchAsync {
		eb.startWorkers()
	}
	return eb
}

func (e *EventBus) startWorkers() {
	for i := 0; i < asyncWorkers; i++ {
		e.workers.Add(1)
		go func() {
			defer e.workers.Done()
			for {
				select {
				case ev := <-e.asyncQueue:
					e.dispatchSync(context.Background(), ev)
				case <-e.ctx.Done():
					return
				}
			}
		}()
	}
}

// Close stops async workers and waits for them to exit.
func (e *EventBus) Close() {
	e.cancel()
	e.workers.Wait()
}

// Subscribe registers a handler for an event type. Returns unsubscribe func.
func (e *EventBus) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	if e.subs[typ] == nil {
		e.subs[typ] = make(map[int64]subscription)
	}
	e.subs[typ][id] = subscription{id: id, fn: handler}
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if m := e.subs[typ]; m != nil {
			delete(m, id)
		}
	}
}

// Publish sends an event to subscribers. In async mode the event is dropped
// if the queue is full; command latency wins over delivery here.
func (e *EventBus) Publish(ctx context.Context, ev core.Event) {
	if e.mode == DispatchAsync {
		select {
		case e.asyncQueue <- ev:
		default:
		}
		return
	}
	e.dispatchSync(ctx, ev)
}

func (e *EventBus) dispatchSync(ctx context.Context, ev core.Event) {
	e.mu.RLock()
	handlers := make([]func(context.Context, core.Event), 0, len(e.subs[ev.Type]))
	for _, s := range e.subs[ev.Type] {
		handlers = append(handlers, s.fn)
	}
	e.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}
