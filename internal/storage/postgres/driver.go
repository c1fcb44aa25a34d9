package postgres

import (
	"context"
	"embed"
	"errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/skybi/restkit/internal/document"
	"github.com/skybi/restkit/internal/storage"
	"github.com/skybi/restkit/internal/user"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Driver represents the PostgreSQL storage driver implementation
type Driver struct {
	dsn       string
	db        *pgxpool.Pool
	users     *UserRepository
	documents *DocumentRepository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new empty PostgreSQL storage driver.
// Use Initialize to open the database connection and initialize the repository implementations.
func New(dsn string) *Driver {
	return &Driver{
		dsn: dsn,
	}
}

// Initialize opens the database connection, migrates the database and initializes the repository implementations
func (driver *Driver) Initialize(ctx context.Context) error {
	// Perform SQL migrations
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", source, driver.dsn)
	if err != nil {
		return err
	}
	defer migrator.Close()
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	version, _, _ := migrator.Version()
	log.Debug().Str("component", "postgres").Uint("version", version).Msg("Migrated the database")

	// Initialize the database connection pool
	pool, err := pgxpool.Connect(ctx, driver.dsn)
	if err != nil {
		return err
	}
	driver.db = pool

	// Initialize the repository implementations
	driver.users = &UserRepository{db: pool}
	driver.documents = &DocumentRepository{db: pool}

	return nil
}

// Users provides the PostgreSQL user repository implementation
func (driver *Driver) Users() user.Repository {
	return driver.users
}

// Documents provides the PostgreSQL document repository implementation
func (driver *Driver) Documents() document.Repository {
	return driver.documents
}

// Close discards the repository implementations and closes the database connection
func (driver *Driver) Close() {
	driver.users = nil
	driver.documents = nil

	driver.db.Close()
	driver.db = nil
}
