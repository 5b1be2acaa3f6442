package cel2sql

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shibukawa/cel2sql/dialect"
	"github.com/shibukawa/cel2sql/schema"
)

// usersIntegrationRegistry describes the "users" table shape every
// integration test below creates on the real engine: a plain column, a
// native array column, and a JSON column, so the same CEL expression
// exercises scalar comparison, array membership, and JSON field access
// against a live database rather than only against the in-memory walker.
func usersIntegrationRegistry() *schema.Registry {
	return schema.NewRegistry(schema.NewSchema("users", []schema.FieldSchema{
		{Name: "id", Kind: schema.FieldScalar},
		{Name: "name", Kind: schema.FieldScalar},
		{Name: "age", Kind: schema.FieldScalar},
		{Name: "tags", Kind: schema.FieldArray, ElementType: "string"},
		{Name: "metadata", Kind: schema.FieldJSON, IsBinaryJSON: true},
	}))
}

// translateForIntegration runs the full Parse+Translate pipeline for one
// dialect and returns the resulting WHERE-clause fragment.
func translateForIntegration(t *testing.T, source string, dialectName dialect.Name) string {
	t.Helper()

	root, err := Parse(source)
	assert.NoError(t, err)

	cfg := &Config{Dialect: string(dialectName), Mode: ModeInline}

	artifact, err := Translate(root, usersIntegrationRegistry(), cfg, false)
	assert.NoError(t, err)

	return artifact.SQL
}

// TestSQLiteIntegration runs translated WHERE clauses against a real
// in-memory SQLite connection. SQLite needs no container: mattn/go-sqlite3
// links the engine directly into the test binary.
func TestSQLiteIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, err := sql.Open("sqlite3", ":memory:")
	assert.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			name TEXT,
			age INTEGER,
			tags TEXT,
			metadata TEXT
		)
	`)
	assert.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (id, name, age, tags, metadata) VALUES
		(1, 'alice', 30, '["admin","eng"]', '{"role":"admin"}'),
		(2, 'bob',   17, '["eng"]',         '{"role":"guest"}'),
		(3, 'carol', 42, '["admin"]',       '{"role":"admin"}')
	`)
	assert.NoError(t, err)

	where := translateForIntegration(t, `age >= 18 && "admin" in tags`, dialect.SQLite)

	rows, err := db.Query(fmt.Sprintf("SELECT id FROM users WHERE %s ORDER BY id", where))
	assert.NoError(t, err)
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		assert.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	assert.NoError(t, rows.Err())

	assert.Equal(t, []int{1, 3}, ids)
}

// TestPostgreSQLIntegration runs translated WHERE clauses, including a
// native array membership test and a jsonb field access, against a real
// PostgreSQL container.
func TestPostgreSQLIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := t.Context()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	assert.NoError(t, err)
	defer func() { assert.NoError(t, container.Terminate(ctx)) }()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	assert.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	assert.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE users (
			id SERIAL PRIMARY KEY,
			name TEXT,
			age INT,
			tags TEXT[],
			metadata JSONB
		)
	`)
	assert.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (name, age, tags, metadata) VALUES
		('alice', 30, ARRAY['admin','eng'], '{"role":"admin"}'),
		('bob',   17, ARRAY['eng'],         '{"role":"guest"}'),
		('carol', 42, ARRAY['admin'],       '{"role":"admin"}')
	`)
	assert.NoError(t, err)

	where := translateForIntegration(t, `age >= 18 && "admin" in tags && users.metadata.role == "admin"`, dialect.PostgreSQL)

	var count int
	err = db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM users WHERE %s", where)).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

// TestMySQLIntegration runs translated WHERE clauses against a real MySQL
// container, exercising MySQL's JSON_CONTAINS-based array membership
// rewrite.
func TestMySQLIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := t.Context()

	container, err := mysql.Run(ctx,
		"mysql:8.4",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("testuser"),
		mysql.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(60*time.Second)),
	)
	assert.NoError(t, err)
	defer func() { assert.NoError(t, container.Terminate(ctx)) }()

	connStr, err := container.ConnectionString(ctx)
	assert.NoError(t, err)

	db, err := sql.Open("mysql", connStr)
	assert.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.Ping())

	_, err = db.Exec(`
		CREATE TABLE users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255),
			age INT,
			tags JSON,
			metadata JSON
		)
	`)
	assert.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (name, age, tags, metadata) VALUES
		('alice', 30, '["admin","eng"]', '{"role":"admin"}'),
		('bob',   17, '["eng"]',         '{"role":"guest"}'),
		('carol', 42, '["admin"]',       '{"role":"admin"}')
	`)
	assert.NoError(t, err)

	where := translateForIntegration(t, `age >= 18 && "admin" in tags`, dialect.MySQL)

	var count int
	err = db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM users WHERE %s", where)).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}
