package postgres

import (
	"context"
	"database/sql"
	"strings"

	"gorm.io/gorm"

	"github.com/aalemi-dev/sqlguard/database"
)

type connection struct {
	conn    *sql.Conn
	session *gorm.DB
}

func (c *connection) Exec(ctx context.Context, kind database.CommandKind, text string, params []any) (int64, error) {
	res := c.session.WithContext(ctx).Exec(nonQueryText(kind, text, len(params)), params...)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (c *connection) Query(ctx context.Context, kind database.CommandKind, text string, params []any) (database.Cursor, error) {
	return c.session.WithContext(ctx).Raw(queryText(kind, text, len(params)), params...).Rows()
}

func (c *connection) Close() error {
	return c.conn.Close()
}

// nonQueryText invokes a procedure with CALL. GORM rebinds the ? placeholders
// to $n.
func nonQueryText(kind database.CommandKind, text string, params int) string {
	if kind != database.CommandStoredProcedure {
		return text
	}
	return "CALL " + text + "(" + placeholders(params) + ")"
}

// queryText reads the result of a set-returning function.
func queryText(kind database.CommandKind, text string, params int) string {
	if kind != database.CommandStoredProcedure {
		return text
	}
	return "SELECT * FROM " + text + "(" + placeholders(params) + ")"
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
