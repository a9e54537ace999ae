package watch

import (
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime"
)

// Key identifies a resource within a Store.
type Key struct {
	Namespace string
	Name      string
}

func (k Key) String() string {
	if k.Namespace == "" {
		return k.Name
	}
	return k.Namespace + "/" + k.Name
}

// keyOf derives a Key from the object's metadata.
func keyOf[T runtime.Object](obj T) (Key, error) {
	m, err := meta.Accessor(obj)
	if err != nil {
		return Key{}, fmt.Errorf("store key: %w", err)
	}
	return Key{Namespace: m.GetNamespace(), Name: m.GetName()}, nil
}

// Store is an indexed mirror of a watched collection, keyed by namespace
// and name. The owning pipeline is the only writer; any number of
// goroutines may read concurrently. After a sequence of events the store
// holds exactly the keys that have been Applied and not subsequently
// Deleted, except that a Restarted event replaces the entire set.
type Store[T runtime.Object] struct {
	mu    sync.RWMutex
	items map[Key]T
}

// NewStore returns an empty store.
func NewStore[T runtime.Object]() *Store[T] {
	return &Store[T]{items: make(map[Key]T)}
}

// Apply folds one event into the store. Restarts build the replacement map
// before taking the write lock, so readers never observe a partially
// rebuilt set.
func (s *Store[T]) Apply(ev Event[T]) error {
	switch ev.Type {
	case Applied:
		k, err := keyOf(ev.Object)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.items[k] = ev.Object
		s.mu.Unlock()
		return nil

	case Deleted:
		k, err := keyOf(ev.Object)
		if err != nil {
			return err
		}
		s.mu.Lock()
		delete(s.items, k)
		s.mu.Unlock()
		return nil

	case Restarted:
		next := make(map[Key]T, len(ev.Objects))
		for _, obj := range ev.Objects {
			k, err := keyOf(obj)
			if err != nil {
				return err
			}
			next[k] = obj
		}
		s.mu.Lock()
		s.items = next
		s.mu.Unlock()
		return nil

	default:
		return fmt.Errorf("store: unhandled event type %q", ev.Type)
	}
}

// Get returns the resource stored under k, if any.
func (s *Store[T]) Get(k Key) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[k]
	return v, ok
}

// List returns a snapshot of all stored resources in unspecified order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out
}

// Keys returns a snapshot of all stored keys in unspecified order.
func (s *Store[T]) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Key, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	return out
}

// Len returns the number of stored resources.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
