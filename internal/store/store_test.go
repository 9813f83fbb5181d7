// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"inkwell/internal/database"
	"inkwell/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "inkwell")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "inkwell")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by username. Posts, comments and post_tags
// rows go with them through the foreign keys.
func cleanUsers(t *testing.T, db *sql.DB, usernames ...string) {
	t.Helper()
	for _, name := range usernames {
		db.Exec("DELETE FROM users WHERE username = $1", name)
	}
}

// cleanTags removes test tags by slug.
func cleanTags(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM tags WHERE slug = $1", slug)
	}
}

// mustUser creates a throwaway user and schedules its removal.
func mustUser(t *testing.T, db *sql.DB, username string) *models.User {
	t.Helper()
	t.Cleanup(func() { cleanUsers(t, db, username) })
	cleanUsers(t, db, username)

	u, err := NewUserStore(db).Create(context.Background(), username, username+"@store-test.local", "pw1")
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// mustPost creates a post owned by userID.
func mustPost(t *testing.T, db *sql.DB, userID int64, slug string, published bool) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:       "Post " + slug,
		Slug:        slug,
		Content:     "Body of " + slug,
		IsPublished: published,
		UserID:      userID,
	}
	if published {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}
	created, err := NewPostStore(db).Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create post %s: %v", slug, err)
	}
	return created
}

// mustTag creates a tag whose slug equals its name and schedules its removal.
func mustTag(t *testing.T, db *sql.DB, name string) *models.Tag {
	t.Helper()
	t.Cleanup(func() { cleanTags(t, db, name) })
	cleanTags(t, db, name)

	tag, err := NewTagStore(db).Create(context.Background(), name, name, models.DefaultTagColor)
	if err != nil {
		t.Fatalf("create tag %s: %v", name, err)
	}
	return tag
}

func commentFor(userID, postID int64, parentID *int64) *models.Comment {
	return &models.Comment{
		Content:  "A comment.",
		UserID:   userID,
		PostID:   postID,
		ParentID: parentID,
	}
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	username := "tx-rollback"
	t.Cleanup(func() { cleanUsers(t, db, username) })

	boom := errors.New("boom")
	err := WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := NewUserStore(tx).Create(ctx, username, "tx-rollback@store-test.local", "pw1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}

	u, err := NewUserStore(db).FindByUsername(ctx, username)
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if u != nil {
		t.Error("user created inside a failed transaction must not persist")
	}
}

func TestWithTx_Commits(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	username := "tx-commit"
	t.Cleanup(func() { cleanUsers(t, db, username) })

	err := WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := NewUserStore(tx).Create(ctx, username, "tx-commit@store-test.local", "pw1")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	u, err := NewUserStore(db).FindByUsername(ctx, username)
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if u == nil {
		t.Fatal("expected committed user")
	}
}

func TestUniqueViolation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	mustUser(t, db, "dup-user")

	_, err := NewUserStore(db).Create(ctx, "dup-user", "other@store-test.local", "pw1")
	if err == nil {
		t.Fatal("expected error for duplicate username")
	}
	constraint, ok := UniqueViolation(err)
	if !ok {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if constraint != "users_username_key" {
		t.Errorf("constraint = %q, want users_username_key", constraint)
	}

	if _, ok := UniqueViolation(errors.New("plain")); ok {
		t.Error("plain error must not be reported as unique violation")
	}
}
