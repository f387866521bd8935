package infra

import (
	"strings"
	"testing"
)

func TestMigrationsAreEmbeddedInOrder(t *testing.T) {
	names, err := Migrations()
	if err != nil {
		t.Fatalf("Migrations: %v", err)
	}
	if len(names) == 0 || names[0] != "migrations/001_init.sql" {
		t.Fatalf("unexpected migrations: %v", names)
	}
	body, err := migrationFiles.ReadFile(names[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{"create table if not exists accounts", "accounts_email_key", "donations_ngo_assigned"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("001_init.sql missing %q", want)
		}
	}
}
