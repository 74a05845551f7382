package migrations

import (
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"single", "CREATE TABLE a (x UInt8) ENGINE = Memory;", 1, false},
		{"comments and blanks", "-- header\n\nCREATE TABLE a (x UInt8) ENGINE = Memory;\n-- two\nCREATE TABLE b (x UInt8) ENGINE = Memory;\n", 2, false},
		{"no trailing semicolon", "SELECT 1;\nSELECT 2", 2, false},
		{"escaped quote", "SELECT 'it''s';", 1, false},
		{"semicolon in string", "SELECT 'a;b';", 0, true},
		{"unterminated", "SELECT 'abc;", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitStatements(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("expected %d statements, got %d: %q", tc.want, len(got), got)
			}
			for _, stmt := range got {
				if strings.Contains(stmt, ";") || strings.HasPrefix(stmt, "--") {
					t.Errorf("statement not clean: %q", stmt)
				}
			}
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	for _, dir := range []string{"postgres", "clickhouse"} {
		fsys := PostgresFS
		if dir == "clickhouse" {
			fsys = ClickhouseFS
		}
		files, err := load(fsys, dir)
		if err != nil {
			t.Fatalf("load %s: %v", dir, err)
		}
		if len(files) == 0 {
			t.Errorf("no %s migrations embedded", dir)
		}
		for i := 1; i < len(files); i++ {
			if files[i-1].name >= files[i].name {
				t.Errorf("%s migrations out of order: %s before %s", dir, files[i-1].name, files[i].name)
			}
		}
	}
}
