package database

import (
	"github.com/jmoiron/sqlx"
)

// Row maps column name to value. SQL NULL is a present key with a nil value;
// an absent key means the column was not in the result set.
type Row map[string]any

// Rows is a finite, forward-only sequence of rows that has already been read
// into memory. It is not restartable and is not safe for concurrent use.
type Rows struct {
	columns []string
	rows    []Row
	pos     int
}

func newRows(columns []string, rows []Row) *Rows {
	return &Rows{columns: columns, rows: rows, pos: -1}
}

// Columns returns the column names in result-set order.
func (r *Rows) Columns() []string {
	return r.columns
}

// Len returns the total number of rows in the result.
func (r *Rows) Len() int {
	return len(r.rows)
}

// Next advances to the next row. It returns false once the sequence is exhausted
// and keeps returning false afterwards.
func (r *Rows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return r.pos < len(r.rows)
}

// Row returns the current row. It must only be called after Next returned true.
func (r *Rows) Row() Row {
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil
	}
	return r.rows[r.pos]
}

// Cursor is the live result set handed back by a driver Connection.
// *sql.Rows satisfies it.
type Cursor interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// drain reads every row of cursor into memory and closes it.
func drain(cursor Cursor) (*Rows, error) {
	defer cursor.Close()

	columns, err := cursor.Columns()
	if err != nil {
		return nil, err
	}

	var rows []Row
	for cursor.Next() {
		row := make(map[string]any, len(columns))
		if err := sqlx.MapScan(cursor, row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return newRows(columns, rows), nil
}

// scalar returns the first column of the first row, or nil for an empty result.
func scalar(cursor Cursor) (any, error) {
	defer cursor.Close()

	columns, err := cursor.Columns()
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 || !cursor.Next() {
		return nil, cursor.Err()
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := cursor.Scan(pointers...); err != nil {
		return nil, err
	}
	return values[0], cursor.Err()
}
