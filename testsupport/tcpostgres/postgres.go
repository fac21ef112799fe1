// Package tcpostgres provides a migrated postgres database for tests,
// either in a reusable testcontainer or external via TESTDB_URL.
package tcpostgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mpapenbr/lorawan-service-manager/pkg/db/migrate"
	database "github.com/mpapenbr/lorawan-service-manager/pkg/db/postgres"
)

const (
	defaultImage  = "postgres:17-alpine"
	containerName = "lorawan-service-manager-test"
	postgresPort  = nat.Port("5432/tcp")
)

type (
	Container struct {
		testcontainers.Container
		settings *settings
	}
	settings struct {
		image          string
		name           string
		user           string
		password       string
		dbName         string
		startupTimeout time.Duration
	}
	Option func(*settings)
)

func WithImage(image string) Option {
	return func(s *settings) {
		s.image = image
	}
}

func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

func WithCredentials(user, password, dbName string) Option {
	return func(s *settings) {
		s.user = user
		s.password = password
		s.dbName = dbName
	}
}

func WithStartupTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.startupTimeout = d
	}
}

// Start runs (or reuses) a postgres container. TESTDB_IMAGE replaces the
// default image.
func Start(ctx context.Context, opts ...Option) (*Container, error) {
	s := &settings{
		image:          defaultImage,
		name:           containerName,
		user:           "postgres",
		password:       "password",
		dbName:         "postgres",
		startupTimeout: 30 * time.Second,
	}
	if image := os.Getenv("TESTDB_IMAGE"); image != "" {
		s.image = image
	}
	for _, opt := range opts {
		opt(s)
	}
	req := testcontainers.ContainerRequest{
		Image: s.image,
		Name:  s.name,
		Env: map[string]string{
			"POSTGRES_USER":     s.user,
			"POSTGRES_PASSWORD": s.password,
			"POSTGRES_DB":       s.dbName,
		},
		ExposedPorts: []string{string(postgresPort)},
		Cmd:          []string{"postgres", "-c", "fsync=off"},
		// the server restarts once after running the init scripts
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort(postgresPort),
		).WithDeadline(s.startupTimeout),
	}
	c, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
			Reuse:            true,
		})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", s.image, err)
	}
	return &Container{Container: c, settings: s}, nil
}

func (c *Container) ConnectionString(ctx context.Context) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := c.MappedPort(ctx, postgresPort)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.settings.user, c.settings.password, host, port.Port(), c.settings.dbName), nil
}

// SetupTestDb returns a pool to a migrated database. TESTDB_URL selects an
// external database instead of a container.
func SetupTestDb() *pgxpool.Pool {
	dbURL := os.Getenv("TESTDB_URL")
	if dbURL == "" {
		ctx := context.Background()
		c, err := Start(ctx)
		if err != nil {
			log.Fatal(err)
		}
		if dbURL, err = c.ConnectionString(ctx); err != nil {
			log.Fatal(err)
		}
	}
	if err := migrate.MigrateDb(dbURL); err != nil {
		log.Fatal(err)
	}
	return database.InitWithURL(dbURL)
}
