package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/fulldump/overlaydb/cursor"
	"github.com/fulldump/overlaydb/overlay"
)

// Session is an open cursor. An overlay cursor is not safe for concurrent use,
// so every access goes through the session mutex.
type Session struct {
	Id         string
	Collection string
	Created    time.Time

	mutex  sync.Mutex
	cursor *overlay.OverlayCursor
}

type SessionStatus struct {
	Id         string          `json:"id"`
	Collection string          `json:"collection"`
	Position   int             `json:"position"`
	Count      int             `json:"count"`
	Columns    []cursor.Column `json:"columns"`
	KeyColumn  int             `json:"key_column"`
	KeyedByRow bool            `json:"keyed_by_row"`
	Closed     bool            `json:"closed"`
}

type Cell struct {
	Name     string      `json:"name"`
	Value    interface{} `json:"value"`
	Overlaid bool        `json:"overlaid"`
}

func (s *Session) Status() *SessionStatus {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return &SessionStatus{
		Id:         s.Id,
		Collection: s.Collection,
		Position:   s.cursor.Position(),
		Count:      s.cursor.Count(),
		Columns:    s.cursor.Columns(),
		KeyColumn:  s.cursor.KeyColumn(),
		KeyedByRow: s.cursor.IsKeyedByRow(),
		Closed:     s.cursor.IsClosed(),
	}
}

// Move positions the cursor, it returns false if the position is not a row
func (s *Session) Move(position int) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cursor.MoveToPosition(position)
}

func (s *Session) SetOverlay(column int, value interface{}) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cursor.SetOverlay(column, value)
}

// Read returns the current row, each value read with the getter matching the
// declared type of its column
func (s *Session) Read() ([]Cell, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	columns := s.cursor.Columns()
	row := make([]Cell, len(columns))
	for i, column := range columns {
		value, err := readCell(s.cursor, i, column.Type)
		if err != nil {
			return nil, fmt.Errorf("column '%s': %w", column.Name, err)
		}
		overlaid, err := s.cursor.HasOverlay(i)
		if err != nil {
			return nil, fmt.Errorf("column '%s': %w", column.Name, err)
		}
		row[i] = Cell{
			Name:     column.Name,
			Value:    value,
			Overlaid: overlaid,
		}
	}

	return row, nil
}

func readCell(c cursor.Cursor, column int, columnType cursor.ColumnType) (interface{}, error) {

	null, err := c.IsNull(column)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}

	switch columnType {
	case cursor.ColumnTypeShort:
		return c.GetShort(column)
	case cursor.ColumnTypeInteger:
		return c.GetInt(column)
	case cursor.ColumnTypeLong:
		return c.GetLong(column)
	case cursor.ColumnTypeFloat:
		return c.GetFloat(column)
	}
	return c.GetString(column)
}

func (s *Session) Deactivate() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cursor.Deactivate()
}

func (s *Session) Requery() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cursor.Requery()
}

func (s *Session) close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cursor.Close()
}
