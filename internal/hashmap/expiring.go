package hashmap

import (
	"github.com/skybi/restkit/internal/task"
	"sync"
	"time"
)

type expiringEntry[T any] struct {
	raw      T
	inserted time.Time
}

// ExpiringMap implements the Map interface and wraps a NormalMap in order to implement value expiration.
// Expired values are never returned; they are removed from memory by the cleanup task.
type ExpiringMap[K comparable, V any] struct {
	normal   *NormalMap[K, *expiringEntry[V]]
	lifetime time.Duration
	now      func() time.Time

	mtx         sync.Mutex
	cleanupTask *task.RepeatingTask
}

var _ Map[int, any] = (*ExpiringMap[int, any])(nil)

// NewExpiring creates a new expiring map whose values exist for a specific lifetime
func NewExpiring[K comparable, V any](lifetime time.Duration) *ExpiringMap[K, V] {
	return &ExpiringMap[K, V]{
		normal:   NewNormal[K, *expiringEntry[V]](),
		lifetime: lifetime,
		now:      time.Now,
	}
}

func (obj *ExpiringMap[K, V]) expired(entry *expiringEntry[V]) bool {
	return obj.now().Sub(entry.inserted) > obj.lifetime
}

// ScheduleCleanupTask schedules the task that removes expired values in a specific interval.
// StopCleanupTask has to be called as soon as the map is no longer needed; the map will not be garbage collected
// otherwise.
func (obj *ExpiringMap[K, V]) ScheduleCleanupTask(tick time.Duration) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	if obj.cleanupTask != nil {
		return
	}
	obj.cleanupTask = task.NewRepeating(obj.Cleanup, tick)
	obj.cleanupTask.Start()
}

// StopCleanupTask stops the cleanup task if it is running
func (obj *ExpiringMap[K, V]) StopCleanupTask() {
	obj.mtx.Lock()
	cleanupTask := obj.cleanupTask
	obj.cleanupTask = nil
	obj.mtx.Unlock()
	if cleanupTask != nil {
		cleanupTask.Stop(true)
	}
}

// Cleanup removes all expired values
func (obj *ExpiringMap[K, V]) Cleanup() {
	obj.normal.UnsetFunc(func(_ K, entry *expiringEntry[V]) bool {
		return obj.expired(entry)
	})
}

// Size returns the amount of stored key-value pairs, possibly including expired ones that were not cleaned up yet
func (obj *ExpiringMap[K, V]) Size() int {
	return obj.normal.Size()
}

// Has returns whether a value is assigned to the given key
func (obj *ExpiringMap[K, V]) Has(key K) bool {
	_, ok := obj.Lookup(key)
	return ok
}

// Lookup returns the value assigned to the given key and a boolean indicating if the value was set manually or is
// the type's zero value
func (obj *ExpiringMap[K, V]) Lookup(key K) (V, bool) {
	entry, ok := obj.normal.Lookup(key)
	if !ok || obj.expired(entry) {
		var zero V
		return zero, false
	}
	return entry.raw, true
}

// Get returns the value assigned to the given key.
// Will be the type's zero value if it was not set using Set before or has expired.
func (obj *ExpiringMap[K, V]) Get(key K) V {
	val, _ := obj.Lookup(key)
	return val
}

// Set sets a key-value pair and resets its lifetime
func (obj *ExpiringMap[K, V]) Set(key K, value V) {
	obj.normal.Set(key, &expiringEntry[V]{
		raw:      value,
		inserted: obj.now(),
	})
}

// Unset deletes the value assigned to given key
func (obj *ExpiringMap[K, V]) Unset(key K) {
	obj.normal.Unset(key)
}

// UnsetFunc deletes all key-value pairs the predicate returns true for and returns the amount of deleted pairs
func (obj *ExpiringMap[K, V]) UnsetFunc(predicate func(key K, value V) bool) int {
	return obj.normal.UnsetFunc(func(key K, entry *expiringEntry[V]) bool {
		return predicate(key, entry.raw)
	})
}

// Clear clears the whole map
func (obj *ExpiringMap[K, V]) Clear() {
	obj.normal.Clear()
}
