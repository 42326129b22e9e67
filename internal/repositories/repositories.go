package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers give entities a stable insertion order, which also breaks ties when ranking by likes or views.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// orderClause maps a criteria "order_by" value ("likes", "-likes", ...) onto an ORDER BY clause.
//
// Only columns in allowed are accepted; anything else falls back to insertion order. Ties are always broken by
// sequence so rankings are stable.
func orderClause(criteria map[string]any, allowed ...string) string {
	key, _ := criteria["order_by"].(string)
	desc := strings.HasPrefix(key, "-")
	column := strings.TrimPrefix(key, "-")

	for _, a := range allowed {
		if a != column {
			continue
		}
		if desc {
			return fmt.Sprintf(" ORDER BY %s DESC, sequence ASC", column)
		}
		return fmt.Sprintf(" ORDER BY %s ASC, sequence ASC", column)
	}
	return " ORDER BY sequence ASC"
}

// limitClause returns a LIMIT clause for a positive criteria "limit" value.
func limitClause(criteria map[string]any, args []any) (string, []any) {
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		return " LIMIT ?", append(args, limit)
	}
	return "", args
}

// likeEscape escapes LIKE wildcards in s so user input matches literally (ESCAPE '\').
func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// IsUniqueViolation reports whether err was caused by a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
