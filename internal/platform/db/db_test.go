package db

import (
	"path/filepath"
	"testing"
)

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y IN (?, ?)"

	if got := Rebind(SQLite, q); got != q {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}

	want := "SELECT a FROM t WHERE x = $1 AND y IN ($2, $3)"
	if got := Rebind(Postgres, q); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPlaceholders(t *testing.T) {
	cases := map[int]string{0: "", 1: "?", 3: "?, ?, ?"}
	for n, want := range cases {
		if got := Placeholders(n); got != want {
			t.Errorf("Placeholders(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{"": SQLite, "sqlite": SQLite, "postgres": Postgres, "PGX": Postgres} {
		got, err := ParseDialect(in)
		if err != nil || got != want {
			t.Errorf("ParseDialect(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDialect("mysql"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestOpenSQLite(t *testing.T) {
	conn, err := Open(SQLite, filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Exec("CREATE TABLE t (id INTEGER)"); err != nil {
		t.Fatalf("exec: %v", err)
	}
}
