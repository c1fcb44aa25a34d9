package cache

import (
	"context"
	"github.com/google/uuid"
	"github.com/skybi/restkit/internal/document"
	"github.com/skybi/restkit/internal/hashmap"
	"github.com/skybi/restkit/internal/storage"
	"github.com/skybi/restkit/internal/user"
	"time"
)

// Config configures the lifetime of cached records and the interval expired ones are removed in
type Config struct {
	Lifetime time.Duration
	Cleanup  time.Duration
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		Lifetime: 5 * time.Minute,
		Cleanup:  10 * time.Second,
	}
}

// Driver represents a storage driver implementation that wraps another one in order to implement in-memory caching
type Driver struct {
	underlying storage.Driver
	config     Config
	users      *UserRepository
	documents  *DocumentRepository
}

var _ storage.Driver = (*Driver)(nil)

// New returns a new caching storage driver.
// The underlying driver has to be initialized before.
func New(underlying storage.Driver, config Config) *Driver {
	return &Driver{
		underlying: underlying,
		config:     config,
	}
}

// Initialize initializes the caching repositories
func (driver *Driver) Initialize(_ context.Context) error {
	documentCache := hashmap.NewExpiring[uuid.UUID, *document.Document](driver.config.Lifetime)
	documentCache.ScheduleCleanupTask(driver.config.Cleanup)
	driver.documents = &DocumentRepository{
		repo:  driver.underlying.Documents(),
		cache: documentCache,
	}

	userCache := hashmap.NewExpiring[string, *user.User](driver.config.Lifetime)
	userCache.ScheduleCleanupTask(driver.config.Cleanup)
	driver.users = &UserRepository{
		repo:      driver.underlying.Users(),
		cache:     userCache,
		documents: documentCache,
	}

	return nil
}

// Users provides the caching user repository implementation
func (driver *Driver) Users() user.Repository {
	return driver.users
}

// Documents provides the caching document repository implementation
func (driver *Driver) Documents() document.Repository {
	return driver.documents
}

// Close closes the caching repositories and disposes their instances.
// The underlying driver is closed as well.
func (driver *Driver) Close() {
	driver.users.cache.StopCleanupTask()
	driver.users = nil
	driver.documents.cache.StopCleanupTask()
	driver.documents = nil
	driver.underlying.Close()
}
