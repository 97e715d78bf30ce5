package notification

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"
)

// Subject keeps an ordered observer set and broadcasts events to it.
// Pointer observers are matched by identity, any other observer by ID.
type Subject struct {
	mu        sync.RWMutex
	observers []Observer
}

// Attach adds o unless it is already attached. It reports whether o was added.
func (s *Subject) Attach(o Observer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.observers, sameAs(o)) {
		return false
	}
	s.observers = append(s.observers, o)
	return true
}

// Detach removes o and reports whether it was attached
func (s *Subject) Detach(o Observer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.observers, sameAs(o))
	if i < 0 {
		return false
	}
	s.observers = slices.Delete(s.observers, i, i+1)
	return true
}

// sameAs never compares interface values of uncomparable dynamic types
func sameAs(o Observer) func(Observer) bool {
	t := reflect.TypeOf(o)
	return func(other Observer) bool {
		if reflect.TypeOf(other) != t {
			return false
		}
		if t == nil || t.Kind() == reflect.Pointer {
			return other == o
		}
		return other.ID() == o.ID()
	}
}

func (s *Subject) Observers() []Observer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.observers)
}

func (s *Subject) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// Notify calls every observer in attachment order. A panicking observer yields
// one failed outcome and the remaining observers are still notified.
func (s *Subject) Notify(ctx context.Context, event EventType, payload Payload) []Outcome {
	var outs []Outcome
	for _, o := range s.Observers() {
		outs = append(outs, safeUpdate(ctx, o, event, payload)...)
	}
	return outs
}

func safeUpdate(ctx context.Context, o Observer, event EventType, payload Payload) (outs []Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outs = []Outcome{{
				ObserverID: o.ID(),
				Event:      event,
				Error:      fmt.Sprintf("observer panicked: %v", r),
				Timestamp:  time.Now(),
			}}
		}
	}()
	return o.Update(ctx, event, payload)
}
