package shared

import (
	"testing"
)

func TestMigrations(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i, m := range migrations {
			if m.Up == "" {
				t.Errorf("migration %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration %d missing down SQL", m.Version)
			}
			if i > 0 && migrations[i-1].Version >= m.Version {
				t.Error("migrations not sorted by version")
			}
		}
	})

	t.Run("RunMigrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='sync_history'").Scan(&name)
		if err != nil {
			t.Fatalf("sync_history table should exist: %v", err)
		}

		// Re-running must be a no-op
		if err := RunMigrations(db); err != nil {
			t.Fatalf("re-running migrations should succeed: %v", err)
		}
	})

	t.Run("RollbackMigration", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='sync_history'").Scan(&count)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if count != 0 {
			t.Error("sync_history table should be dropped after rollback")
		}
	})

	t.Run("removeComments", func(t *testing.T) {
		sql := "SELECT 1 -- trailing comment\n-- full line comment\nFROM t"
		got := removeComments(sql)
		want := "SELECT 1\nFROM t"
		if got != want {
			t.Errorf("removeComments() = %q, want %q", got, want)
		}
	})
}
