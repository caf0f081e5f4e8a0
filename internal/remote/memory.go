package remote

import (
	"context"
	"sync"
)

// MemoryClient is an in-process DocumentClient. It backs tests and
// fully-offline runs, and supports fault injection so sync error
// paths can be exercised deterministically.
type MemoryClient struct {
	mu       sync.Mutex
	docs     map[string]map[string]interface{}
	subs     map[string][]func(Snapshot)
	failNext int
	failErr  error
	gate     chan struct{}

	// Counters for assertions.
	GetCalls map[string]int
	SetCalls map[string]int
}

// NewMemoryClient creates an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		docs:     map[string]map[string]interface{}{},
		subs:     map[string][]func(Snapshot){},
		GetCalls: map[string]int{},
		SetCalls: map[string]int{},
	}
}

// FailNext makes the next n operations fail with err.
func (c *MemoryClient) FailNext(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = n
	c.failErr = err
}

// GateWrites makes every SetDocument block until a token arrives on
// ch. Tests use it to hold a push in flight deterministically; a nil
// channel removes the gate.
func (c *MemoryClient) GateWrites(ch chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gate = ch
}

// takeFailure consumes one injected failure if armed.
func (c *MemoryClient) takeFailure() error {
	if c.failNext > 0 {
		c.failNext--
		return c.failErr
	}
	return nil
}

// GetDocument returns the stored document snapshot.
func (c *MemoryClient) GetDocument(ctx context.Context, path string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls[path]++
	if err := c.takeFailure(); err != nil {
		return Snapshot{}, err
	}
	fields, ok := c.docs[path]
	if !ok {
		return NewSnapshot(path, nil), nil
	}
	return NewSnapshot(path, cloneFields(fields)), nil
}

// SetDocument stores document fields and fans the new snapshot out
// to subscribers.
func (c *MemoryClient) SetDocument(ctx context.Context, path string, fields map[string]interface{}, merge bool) error {
	c.mu.Lock()
	gate := c.gate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}

	c.mu.Lock()
	c.SetCalls[path]++
	if err := c.takeFailure(); err != nil {
		c.mu.Unlock()
		return err
	}
	if merge {
		c.docs[path] = mergeFields(c.docs[path], fields)
	} else {
		c.docs[path] = cloneFields(fields)
	}
	snapshot := NewSnapshot(path, cloneFields(c.docs[path]))
	listeners := append([]func(Snapshot){}, c.subs[path]...)
	c.mu.Unlock()

	for _, onChange := range listeners {
		onChange(snapshot)
	}
	return nil
}

// Subscribe registers a snapshot listener.
func (c *MemoryClient) Subscribe(path string, onChange func(Snapshot), onError func(error)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return nil, err
	}
	c.subs[path] = append(c.subs[path], onChange)
	idx := len(c.subs[path]) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.subs[path]) {
			c.subs[path][idx] = func(Snapshot) {}
		}
	}, nil
}

// Document returns a copy of the stored fields for assertions, or
// nil when the document does not exist.
func (c *MemoryClient) Document(path string) map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields, ok := c.docs[path]
	if !ok {
		return nil
	}
	return cloneFields(fields)
}

// Seed stores a document without notifying subscribers.
func (c *MemoryClient) Seed(path string, fields map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[path] = cloneFields(fields)
}

// Push delivers a snapshot to subscribers as if another device wrote
// the document.
func (c *MemoryClient) Push(path string, fields map[string]interface{}) {
	c.mu.Lock()
	c.docs[path] = mergeFields(c.docs[path], fields)
	snapshot := NewSnapshot(path, cloneFields(c.docs[path]))
	listeners := append([]func(Snapshot){}, c.subs[path]...)
	c.mu.Unlock()

	for _, onChange := range listeners {
		onChange(snapshot)
	}
}

func cloneFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
