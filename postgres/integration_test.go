package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aalemi-dev/sqlguard/database"
)

// startPostgres runs a throwaway PostgreSQL server and returns its
// keyword/value connection string.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16",
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=testdb sslmode=disable", host, port.Port())
	require.NoError(t, waitForPostgresReady(dsn, 30*time.Second))
	return dsn
}

// waitForPostgresReady attempts to connect until the server answers or the
// timeout expires.
func waitForPostgresReady(dsn string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			err = db.Ping()
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for PostgreSQL: %w", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func TestDriver_Integration(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	driver := NewDriver(Config{})
	t.Cleanup(func() { _ = driver.Close() })

	db, err := database.NewGuarded(database.Config{
		Name:             "Users",
		ConnectionString: func() string { return dsn },
		CommandTimeout:   func() time.Duration { return 10 * time.Second },
	}, driver)
	require.NoError(t, err)

	for _, ddl := range []string{
		"CREATE TABLE users (id INT PRIMARY KEY, email TEXT NOT NULL)",
		"CREATE PROCEDURE users_add(p_id INT, p_email TEXT) LANGUAGE SQL AS $$ INSERT INTO users (id, email) VALUES (p_id, p_email) $$",
		"CREATE FUNCTION users_get(p_id INT) RETURNS TABLE (id INT, email TEXT) LANGUAGE SQL AS $$ SELECT id, email FROM users WHERE id = p_id $$",
	} {
		_, err := db.ExecuteNonQuery(ctx, database.Text(ddl))
		require.NoError(t, err, ddl)
	}

	t.Run("procedure call", func(t *testing.T) {
		_, err := db.ExecuteNonQuery(ctx, database.Procedure("users_add", 1, "ada@example.com"))
		require.NoError(t, err)
	})

	t.Run("set returning function", func(t *testing.T) {
		rows, err := db.ExecuteReader(ctx, database.Procedure("users_get", 1))
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "email"}, rows.Columns())
		require.True(t, rows.Next())
		assert.EqualValues(t, 1, rows.Row()["id"])
		assert.Equal(t, "ada@example.com", rows.Row()["email"])
		assert.False(t, rows.Next())
	})

	t.Run("text scalar", func(t *testing.T) {
		email, err := db.ExecuteScalar(ctx, database.Text("SELECT email FROM users WHERE id = ?", 1))
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", email)

		missing, err := db.ExecuteScalar(ctx, database.Text("SELECT email FROM users WHERE id = ?", 42))
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("command errors pass through without tripping", func(t *testing.T) {
		_, err := db.ExecuteNonQuery(ctx, database.Procedure("users_add", 1, "duplicate@example.com"))
		require.Error(t, err)
		assert.ErrorIs(t, driver.TranslateError(err), ErrDuplicateKey)
		assert.Equal(t, database.BreakerClosed, db.Breaker().State())
	})

	t.Run("read intent rejects writes", func(t *testing.T) {
		cmd := database.Text("INSERT INTO users (id, email) VALUES (?, ?)", 2, "grace@example.com")
		cmd.ApplicationIntent = database.IntentReadOnly
		_, err := db.ExecuteNonQuery(ctx, cmd)
		require.Error(t, err)
		assert.ErrorIs(t, driver.TranslateError(err), ErrReadOnlyTransaction)
		assert.False(t, driver.IsTransientConnectivityError(err))
	})
}
