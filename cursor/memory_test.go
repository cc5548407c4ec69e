package cursor

import (
	"errors"
	"testing"

	. "github.com/fulldump/biff"
)

func newTestCursor() *MemoryCursor {
	return NewMemoryCursor(
		[]Column{
			{Name: "id", Type: ColumnTypeLong},
			{Name: "subject", Type: ColumnTypeText},
			{Name: "score", Type: ColumnTypeFloat},
		},
		[][]interface{}{
			{int64(10), "hello", 1.5},
			{int64(20), "world", "2.25"},
			{"30", nil, nil},
		},
	)
}

func TestMemoryCursor_Positioning(t *testing.T) {

	c := newTestCursor()

	AssertEqual(c.Position(), -1)
	AssertTrue(c.IsBeforeFirst())
	AssertEqual(c.Count(), 3)

	AssertTrue(c.MoveToFirst())
	AssertTrue(c.IsFirst())
	AssertTrue(c.MoveToNext())
	AssertEqual(c.Position(), 1)
	AssertTrue(c.MoveToLast())
	AssertTrue(c.IsLast())

	AssertFalse(c.MoveToNext())
	AssertTrue(c.IsAfterLast())
	AssertEqual(c.Position(), 3)

	AssertFalse(c.MoveToPosition(-7))
	AssertEqual(c.Position(), -1)

	AssertTrue(c.Move(2))
	AssertEqual(c.Position(), 1)
	AssertTrue(c.MoveToPrevious())
	AssertEqual(c.Position(), 0)
}

func TestMemoryCursor_TypedGetters(t *testing.T) {

	c := newTestCursor()
	c.MoveToPosition(1)

	id, err := c.GetLong(0)
	AssertNil(err)
	AssertEqual(id, int64(20))

	subject, err := c.GetString(1)
	AssertNil(err)
	AssertEqual(subject, "world")

	score, err := c.GetFloat(2)
	AssertNil(err)
	AssertEqual(score, float32(2.25))

	scoreString, err := c.GetString(2)
	AssertNil(err)
	AssertEqual(scoreString, "2.25")

	idShort, err := c.GetShort(0)
	AssertNil(err)
	AssertEqual(idShort, int16(20))

	c.MoveToLast()

	idInt, err := c.GetInt(0)
	AssertNil(err)
	AssertEqual(idInt, int32(30))

	null, err := c.IsNull(1)
	AssertNil(err)
	AssertTrue(null)

	empty, err := c.GetString(1)
	AssertNil(err)
	AssertEqual(empty, "")
}

func TestMemoryCursor_Errors(t *testing.T) {

	c := newTestCursor()

	_, err := c.GetString(0)
	AssertTrue(errors.Is(err, ErrNoRow))

	c.MoveToFirst()

	_, err = c.GetString(3)
	AssertTrue(errors.Is(err, ErrColumnOutOfRange))

	_, err = c.GetInt(1)
	AssertTrue(errors.Is(err, ErrConversion))
}

func TestMemoryCursor_Lifecycle(t *testing.T) {

	c := newTestCursor()
	reloads := 0
	c.SetRequery(func() ([][]interface{}, error) {
		reloads++
		return [][]interface{}{{int64(99), "fresh", 0.0}}, nil
	})

	c.MoveToFirst()
	c.Deactivate()

	_, err := c.GetString(1)
	AssertTrue(errors.Is(err, ErrDeactivated))
	AssertFalse(c.MoveToFirst())

	AssertNil(c.Requery())
	AssertEqual(reloads, 1)
	AssertEqual(c.Count(), 1)
	AssertTrue(c.MoveToFirst())

	subject, err := c.GetString(1)
	AssertNil(err)
	AssertEqual(subject, "fresh")

	AssertNil(c.Close())
	AssertTrue(c.IsClosed())

	_, err = c.GetString(1)
	AssertTrue(errors.Is(err, ErrClosed))
	AssertTrue(errors.Is(c.Requery(), ErrClosed))
}

func TestColumnType_Text(t *testing.T) {

	var columnType ColumnType
	AssertNil(columnType.UnmarshalText([]byte("Long")))
	AssertEqual(columnType, ColumnTypeLong)

	text, err := ColumnTypeShort.MarshalText()
	AssertNil(err)
	AssertEqual(string(text), "short")

	_, err = ParseColumnType("blob")
	AssertNotNil(err)
}
