package db

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"poetica/internal/config"
	"poetica/internal/models"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// setupTestDB starts a shared PostgreSQL container (once for the entire test run),
// migrates it and returns a connection. Tests are skipped unless
// POETICA_INTEGRATION=1 because they need Docker.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	if os.Getenv("POETICA_INTEGRATION") != "1" {
		t.Skip("set POETICA_INTEGRATION=1 to run Postgres integration tests")
	}

	once.Do(func() {
		sharedDSN, initErr = startContainer()
	})
	require.NoError(t, initErr, "failed to start test database")

	database, err := New(&config.DatabaseConfig{URL: sharedDSN}, "ERROR")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background()))

	t.Cleanup(func() {
		database.Exec("TRUNCATE users, tags, poems, comments, star_ratings, likes, announcements, poem_tags CASCADE")
		database.Exec("UPDATE site_settings SET featured_poem_id = NULL, featured_at = NULL")
		_ = database.Close()
	})
	return database
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port()), nil
}

func seedUser(t *testing.T, repos *Repositories, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Poet", Email: email, Password: "hash", Role: models.RoleUser}
	require.NoError(t, repos.CreateUser(context.Background(), u))
	return u
}

func seedPoem(t *testing.T, repos *Repositories, author *models.User, status models.PoemStatus, tags ...string) *models.Poem {
	t.Helper()
	p := &models.Poem{Title: "Ocean", Content: "waves\nand more waves", Status: status, AuthorID: author.ID}
	if status == models.StatusPublished {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
	require.NoError(t, repos.CreatePoem(context.Background(), p, tags))
	return p
}
