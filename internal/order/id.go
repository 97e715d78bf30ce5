package order

import (
	"context"
	"sync/atomic"
)

// IDAllocator hands out unique, strictly increasing order ids
type IDAllocator interface {
	Next(ctx context.Context) (int64, error)
}

// Counter is an in-process IDAllocator
type Counter struct {
	n atomic.Int64
}

// NewCounter returns a Counter whose first id is start+1
func NewCounter(start int64) *Counter {
	c := &Counter{}
	c.n.Store(start)
	return c
}

func (c *Counter) Next(context.Context) (int64, error) {
	return c.n.Add(1), nil
}
