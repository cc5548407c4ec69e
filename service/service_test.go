package service

import (
	"errors"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/overlaydb/collection"
	"github.com/fulldump/overlaydb/cursor"
	"github.com/fulldump/overlaydb/database"
	"github.com/fulldump/overlaydb/overlay"
)

func newTestService(t *testing.T) *Service {
	db := database.NewDatabase(&database.Config{Dir: t.TempDir()})
	AssertNil(db.Load())
	t.Cleanup(func() { db.Stop() })

	s := NewService(db, nil)

	col, err := s.CreateCollection("people")
	AssertNil(err)
	col.Insert(map[string]interface{}{"name": "Alice", "age": 30})
	col.Insert(map[string]interface{}{"name": "Bob", "age": 25})

	return s
}

var peopleQuery = collection.Query{
	Fields: []collection.Field{
		{Name: "name", Type: cursor.ColumnTypeText},
		{Name: "age", Type: cursor.ColumnTypeShort},
	},
}

func TestService_OpenCursor(t *testing.T) {

	s := newTestService(t)

	session, err := s.OpenCursor("people", &CursorOptions{
		Query:      peopleQuery,
		KeyColumn:  0,
		KeyedByRow: true,
	})
	AssertNil(err)

	status := session.Status()
	AssertEqual(status.Collection, "people")
	AssertEqual(status.Count, 2)
	AssertEqual(status.Position, -1)
	AssertTrue(status.KeyedByRow)
	AssertFalse(status.Closed)

	found, err := s.GetCursor(session.Id)
	AssertNil(err)
	AssertEqual(found, session)
	AssertEqual(len(s.ListCursors()), 1)

	AssertTrue(session.Move(1))
	AssertNil(session.SetOverlay(1, 26))

	row, err := session.Read()
	AssertNil(err)
	AssertEqual(row, []Cell{
		{Name: "name", Value: "Bob", Overlaid: false},
		{Name: "age", Value: int16(26), Overlaid: true},
	})

	AssertNil(s.CloseCursor(session.Id))
	AssertTrue(session.Status().Closed)

	_, err = s.GetCursor(session.Id)
	AssertTrue(errors.Is(err, ErrorCursorNotFound))
	AssertTrue(errors.Is(s.CloseCursor(session.Id), ErrorCursorNotFound))
}

func TestService_OpenCursorErrors(t *testing.T) {

	s := newTestService(t)

	_, err := s.OpenCursor("nobody", &CursorOptions{Query: peopleQuery})
	AssertTrue(errors.Is(err, database.ErrCollectionNotFound))

	_, err = s.OpenCursor("people", &CursorOptions{Query: peopleQuery, KeyColumn: 5})
	AssertTrue(errors.Is(err, overlay.ErrConfiguration))

	_, err = s.OpenCursor("people", &CursorOptions{})
	AssertNotNil(err)

	AssertEqual(len(s.ListCursors()), 0)
}

func TestService_ReadLifecycle(t *testing.T) {

	s := newTestService(t)

	session, err := s.OpenCursor("people", &CursorOptions{Query: peopleQuery})
	AssertNil(err)

	_, err = session.Read()
	AssertTrue(errors.Is(err, cursor.ErrNoRow))

	session.Move(0)
	AssertNil(session.SetOverlay(1, "forty"))
	_, err = session.Read()
	AssertTrue(errors.Is(err, overlay.ErrFormat))

	session.Deactivate()
	_, err = session.Read()
	AssertTrue(errors.Is(err, cursor.ErrDeactivated))

	AssertNil(session.Requery())
	session.Move(0)
	row, err := session.Read()
	AssertNil(err)
	AssertEqual(row[1], Cell{Name: "age", Value: int16(30), Overlaid: false})
}

func TestService_DropCollectionClosesCursors(t *testing.T) {

	s := newTestService(t)

	session, err := s.OpenCursor("people", &CursorOptions{Query: peopleQuery})
	AssertNil(err)

	AssertNil(s.DropCollection("people"))

	AssertTrue(session.Status().Closed)
	AssertEqual(len(s.ListCursors()), 0)
}
