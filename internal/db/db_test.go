package db_test

import (
	"context"
	"testing"
	"time"

	dbpkg "github.com/garnizeh/crewboard/internal/db"
)

func TestNew_Close_GetConn(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Use in-memory SQLite
	d, err := dbpkg.New(ctx, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	conn := d.GetConn()
	if conn == nil {
		t.Fatalf("expected non-nil sql.DB from GetConn")
	}

	// Close should not error
	if err := d.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestExec_QueryRow(t *testing.T) {
	ctx := context.Background()
	d, err := dbpkg.New(ctx, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer d.Close()

	// create table
	_, err = d.Exec(ctx, `CREATE TABLE IF NOT EXISTS items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT);`)
	if err != nil {
		t.Fatalf("Exec create table returned error: %v", err)
	}

	// insert
	res, err := d.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, "foo")
	if err != nil {
		t.Fatalf("Exec insert returned error: %v", err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("LastInsertId returned error: %v", err)
	}
	if lastID == 0 {
		t.Fatalf("expected last insert id > 0")
	}

	// query
	row := d.QueryRow(ctx, `SELECT name FROM items WHERE id = ?`, lastID)
	var name string
	if err := row.Scan(&name); err != nil {
		t.Fatalf("QueryRow scan returned error: %v", err)
	}
	if name != "foo" {
		t.Fatalf("expected name 'foo' got %q", name)
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	ctx := context.Background()
	d, err := dbpkg.New(ctx, "file:schema_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer d.Close()

	if err := dbpkg.EnsureSchema(ctx, d); err != nil {
		t.Fatalf("EnsureSchema returned error: %v", err)
	}
	// a second run must be a no-op
	if err := dbpkg.EnsureSchema(ctx, d); err != nil {
		t.Fatalf("EnsureSchema second run returned error: %v", err)
	}

	// all four tables should exist
	for _, table := range []string{"workers", "jobs", "operators", "audit_events"} {
		row := d.QueryRow(ctx, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		var n int
		if err := row.Scan(&n); err != nil {
			t.Fatalf("scan sqlite_master for %s: %v", table, err)
		}
		if n != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestQueryRows(t *testing.T) {
	ctx := context.Background()
	d, err := dbpkg.New(ctx, "file:rows_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(ctx, `CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT);`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if _, err := d.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, name); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rows, err := d.QueryRows(ctx, `SELECT name FROM items ORDER BY id`)
	if err != nil {
		t.Fatalf("QueryRows returned error: %v", err)
	}
	defer rows.Close()

	var got []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows error: %v", err)
	}
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("unexpected rows: %#v", got)
	}
}
