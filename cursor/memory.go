package cursor

import (
	"fmt"
)

// RequeryFunc produces a fresh set of rows for a cursor
type RequeryFunc func() ([][]interface{}, error)

// MemoryCursor is a Cursor over rows held in memory. Every row must have one
// value per declared column.
type MemoryCursor struct {
	columns     []Column
	rows        [][]interface{}
	position    int
	closed      bool
	deactivated bool
	requery     RequeryFunc
}

func NewMemoryCursor(columns []Column, rows [][]interface{}) *MemoryCursor {
	return &MemoryCursor{
		columns:  columns,
		rows:     rows,
		position: -1,
	}
}

// SetRequery installs the function used by Requery to reload the rows. Without
// it Requery keeps the current rows.
func (c *MemoryCursor) SetRequery(f RequeryFunc) {
	c.requery = f
}

// Reset replaces the rows and moves the cursor before the first one
func (c *MemoryCursor) Reset(rows [][]interface{}) {
	c.rows = rows
	c.position = -1
}

func (c *MemoryCursor) active() bool {
	return !c.closed && !c.deactivated
}

func (c *MemoryCursor) Count() int {
	return len(c.rows)
}

func (c *MemoryCursor) Position() int {
	return c.position
}

func (c *MemoryCursor) MoveToPosition(position int) bool {
	if !c.active() {
		return false
	}

	count := len(c.rows)
	if position >= count {
		c.position = count
		return false
	}
	if position < 0 {
		c.position = -1
		return false
	}

	c.position = position
	return true
}

func (c *MemoryCursor) Move(offset int) bool {
	return c.MoveToPosition(c.position + offset)
}

func (c *MemoryCursor) MoveToFirst() bool {
	return c.MoveToPosition(0)
}

func (c *MemoryCursor) MoveToLast() bool {
	return c.MoveToPosition(len(c.rows) - 1)
}

func (c *MemoryCursor) MoveToNext() bool {
	return c.MoveToPosition(c.position + 1)
}

func (c *MemoryCursor) MoveToPrevious() bool {
	return c.MoveToPosition(c.position - 1)
}

func (c *MemoryCursor) IsBeforeFirst() bool {
	return len(c.rows) == 0 || c.position == -1
}

func (c *MemoryCursor) IsAfterLast() bool {
	return len(c.rows) == 0 || c.position == len(c.rows)
}

func (c *MemoryCursor) IsFirst() bool {
	return len(c.rows) > 0 && c.position == 0
}

func (c *MemoryCursor) IsLast() bool {
	return len(c.rows) > 0 && c.position == len(c.rows)-1
}

func (c *MemoryCursor) Columns() []Column {
	return c.columns
}

func (c *MemoryCursor) ColumnCount() int {
	return len(c.columns)
}

func (c *MemoryCursor) ColumnIndex(name string) int {
	for i, column := range c.columns {
		if column.Name == name {
			return i
		}
	}
	return -1
}

func (c *MemoryCursor) value(column int) (interface{}, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if c.deactivated {
		return nil, ErrDeactivated
	}
	if c.position < 0 || c.position >= len(c.rows) {
		return nil, fmt.Errorf("%w: position %d", ErrNoRow, c.position)
	}
	if column < 0 || column >= len(c.columns) {
		return nil, fmt.Errorf("%w: column %d, must be between 0 and %d", ErrColumnOutOfRange, column, len(c.columns)-1)
	}

	row := c.rows[c.position]
	if column >= len(row) {
		return nil, nil
	}
	return row[column], nil
}

func (c *MemoryCursor) IsNull(column int) (bool, error) {
	v, err := c.value(column)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

func (c *MemoryCursor) GetFloat(column int) (float32, error) {
	v, err := c.value(column)
	if err != nil {
		return 0, err
	}
	f, err := toFloat64(v)
	return float32(f), err
}

func (c *MemoryCursor) GetInt(column int) (int32, error) {
	v, err := c.value(column)
	if err != nil {
		return 0, err
	}
	i, err := toInt64(v)
	return int32(i), err
}

func (c *MemoryCursor) GetLong(column int) (int64, error) {
	v, err := c.value(column)
	if err != nil {
		return 0, err
	}
	return toInt64(v)
}

func (c *MemoryCursor) GetShort(column int) (int16, error) {
	v, err := c.value(column)
	if err != nil {
		return 0, err
	}
	i, err := toInt64(v)
	return int16(i), err
}

func (c *MemoryCursor) GetString(column int) (string, error) {
	v, err := c.value(column)
	if err != nil {
		return "", err
	}
	return toString(v), nil
}

func (c *MemoryCursor) Deactivate() {
	c.deactivated = true
	c.position = -1
}

func (c *MemoryCursor) Requery() error {
	if c.closed {
		return ErrClosed
	}

	if c.requery != nil {
		rows, err := c.requery()
		if err != nil {
			return fmt.Errorf("requery: %w", err)
		}
		c.rows = rows
	}

	c.deactivated = false
	c.position = -1
	return nil
}

func (c *MemoryCursor) Close() error {
	c.closed = true
	c.rows = nil
	c.position = -1
	return nil
}

func (c *MemoryCursor) IsClosed() bool {
	return c.closed
}
