package migrations

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	chstore "github.com/Akondltd/radbot/internal/storage/clickhouse"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RunClickhouseMigrations creates database if needed, applies the embedded
// ClickHouse files and returns a connection bound to database.
func RunClickhouseMigrations(ctx context.Context, dsn, database string) (*chstore.Conn, error) {
	if !identifier.MatchString(database) {
		return nil, fmt.Errorf("invalid clickhouse database name %q", database)
	}

	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	err = admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+database)
	admin.Close()
	if err != nil {
		return nil, fmt.Errorf("create database %s: %w", database, err)
	}

	files, err := load(ClickhouseFS, "clickhouse")
	if err != nil {
		return nil, err
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, database)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}
	for _, m := range files {
		stmts, err := splitStatements(m.sql)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("split migration %s: %w", m.name, err)
		}
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
	}
	return conn, nil
}

// splitStatements breaks a file into statements on ';'. The native protocol
// runs one statement per Exec. Only "--" comments are supported and a ';'
// inside a quoted string is rejected.
func splitStatements(input string) ([]string, error) {
	var (
		stmts   []string
		current strings.Builder
		quoted  bool
	)
	for _, line := range strings.Split(input, "\n") {
		if trimmed := strings.TrimSpace(line); !quoted && (trimmed == "" || strings.HasPrefix(trimmed, "--")) {
			continue
		}
		for i := 0; i < len(line); i++ {
			ch := line[i]
			switch {
			case ch == '\'':
				quoted = !quoted
			case ch == ';' && quoted:
				return nil, fmt.Errorf("semicolon inside string literal")
			case ch == ';':
				if stmt := strings.TrimSpace(current.String()); stmt != "" {
					stmts = append(stmts, stmt)
				}
				current.Reset()
				continue
			}
			current.WriteByte(ch)
		}
		current.WriteByte('\n')
	}
	if quoted {
		return nil, fmt.Errorf("unterminated string literal")
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}
