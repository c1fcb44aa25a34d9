package hashmap

import "sync"

// NormalMap implements the Map interface by guarding a builtin map with a RWMutex
type NormalMap[K comparable, V any] struct {
	mtx        sync.RWMutex
	underlying map[K]V
}

var _ Map[int, any] = (*NormalMap[int, any])(nil)

// NewNormal creates a new normal thread safe Map
func NewNormal[K comparable, V any]() *NormalMap[K, V] {
	return &NormalMap[K, V]{
		underlying: make(map[K]V),
	}
}

// Size returns the amount of stored key-value pairs
func (obj *NormalMap[K, V]) Size() int {
	obj.mtx.RLock()
	defer obj.mtx.RUnlock()
	return len(obj.underlying)
}

// Has returns whether a value is assigned to the given key
func (obj *NormalMap[K, V]) Has(key K) bool {
	_, ok := obj.Lookup(key)
	return ok
}

// Lookup returns the value assigned to the given key and a boolean indicating if the value was set manually or is
// the type's zero value
func (obj *NormalMap[K, V]) Lookup(key K) (V, bool) {
	obj.mtx.RLock()
	defer obj.mtx.RUnlock()
	val, ok := obj.underlying[key]
	return val, ok
}

// Get returns the value assigned to the given key.
// May be the type's zero value if it was not set using Set before; use Has or Lookup for this information.
func (obj *NormalMap[K, V]) Get(key K) V {
	val, _ := obj.Lookup(key)
	return val
}

// Set sets a key-value pair
func (obj *NormalMap[K, V]) Set(key K, value V) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	obj.underlying[key] = value
}

// Unset deletes the value assigned to given key
func (obj *NormalMap[K, V]) Unset(key K) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	delete(obj.underlying, key)
}

// UnsetFunc deletes all key-value pairs the predicate returns true for and returns the amount of deleted pairs.
// The predicate is called while the map is locked and must not access the map itself.
func (obj *NormalMap[K, V]) UnsetFunc(predicate func(key K, value V) bool) int {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	n := 0
	for key, val := range obj.underlying {
		if predicate(key, val) {
			delete(obj.underlying, key)
			n++
		}
	}
	return n
}

// Clear clears the whole map (essentially re-creating the underlying map)
func (obj *NormalMap[K, V]) Clear() {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	obj.underlying = make(map[K]V)
}
