package cursor

import "errors"

var (
	ErrClosed           = errors.New("cursor is closed")
	ErrDeactivated      = errors.New("cursor is deactivated")
	ErrNoRow            = errors.New("cursor is not positioned on a row")
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrConversion       = errors.New("value can not be converted")
)

// Cursor is a positionable iterator over the rows of a result set. Rows are
// addressed by position: -1 is before the first row and Count() is after the
// last one.
type Cursor interface {
	Count() int
	Position() int
	MoveToPosition(position int) bool
	Move(offset int) bool
	MoveToFirst() bool
	MoveToLast() bool
	MoveToNext() bool
	MoveToPrevious() bool
	IsBeforeFirst() bool
	IsAfterLast() bool
	IsFirst() bool
	IsLast() bool

	Columns() []Column
	ColumnCount() int
	ColumnIndex(name string) int

	IsNull(column int) (bool, error)
	GetFloat(column int) (float32, error)
	GetInt(column int) (int32, error)
	GetLong(column int) (int64, error)
	GetShort(column int) (int16, error)
	GetString(column int) (string, error)

	// Deactivate releases the rows until Requery is called
	Deactivate()
	Requery() error
	Close() error
	IsClosed() bool
}
