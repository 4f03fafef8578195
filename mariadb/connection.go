package mariadb

import (
	"context"
	"database/sql"
	"strings"

	"gorm.io/gorm"

	"github.com/aalemi-dev/sqlguard/database"
)

// connection runs commands through a GORM session pinned to one *sql.Conn.
type connection struct {
	conn    *sql.Conn
	session *gorm.DB
}

func (c *connection) Exec(ctx context.Context, kind database.CommandKind, text string, params []any) (int64, error) {
	res := c.session.WithContext(ctx).Exec(commandText(kind, text, len(params)), params...)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (c *connection) Query(ctx context.Context, kind database.CommandKind, text string, params []any) (database.Cursor, error) {
	return c.session.WithContext(ctx).Raw(commandText(kind, text, len(params)), params...).Rows()
}

func (c *connection) Close() error {
	return c.conn.Close()
}

// commandText renders a stored procedure as CALL name(?, ...). Text
// commands are sent as is.
func commandText(kind database.CommandKind, text string, params int) string {
	if kind != database.CommandStoredProcedure {
		return text
	}
	return "CALL " + text + "(" + strings.TrimSuffix(strings.Repeat("?, ", params), ", ") + ")"
}
