package collection

import (
	"fmt"

	"github.com/SierraSoftworks/connor"
	json "github.com/go-json-experiment/json"
	"github.com/tidwall/gjson"

	"github.com/fulldump/overlaydb/cursor"
)

// Field maps a document path to a result column
type Field struct {
	Name string            `json:"name"`
	Path string            `json:"path"` // gjson path, defaults to Name
	Type cursor.ColumnType `json:"type"`
}

type Query struct {
	Fields  []Field                `json:"fields"`
	Filter  map[string]interface{} `json:"filter"`  // connor expression
	Index   string                 `json:"index"`   // traverse in index order, empty means insertion order
	Reverse bool                   `json:"reverse"` // only with Index
	Skip    int64                  `json:"skip"`
	Limit   int64                  `json:"limit"` // 0 means no limit
}

// Find runs a query and returns its result set as a cursor. The rows are
// materialized at call time; Requery on the returned cursor runs the query
// again.
func (c *Collection) Find(query *Query) (*cursor.MemoryCursor, error) {

	if len(query.Fields) == 0 {
		return nil, fmt.Errorf("query has no fields")
	}

	columns := make([]cursor.Column, len(query.Fields))
	for i, field := range query.Fields {
		if field.Name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
		columns[i] = cursor.Column{
			Name: field.Name,
			Type: field.Type,
		}
	}

	rows, err := c.selectRows(query)
	if err != nil {
		return nil, err
	}

	result := cursor.NewMemoryCursor(columns, rows)
	result.SetRequery(func() ([][]interface{}, error) {
		return c.selectRows(query)
	})

	return result, nil
}

func (c *Collection) traverse(query *Query, f func(row *Row) bool) error {

	if query.Index == "" {
		for _, row := range c.Snapshot() {
			if !f(row) {
				break
			}
		}
		return nil
	}

	c.rowsMutex.Lock()
	index, exists := c.Indexes[query.Index]
	if !exists {
		c.rowsMutex.Unlock()
		return fmt.Errorf("index '%s' does not exist", query.Index)
	}
	rows := make([]*Row, 0, index.Len())
	index.Traverse(query.Reverse, func(row *Row) bool {
		rows = append(rows, row)
		return true
	})
	c.rowsMutex.Unlock()

	for _, row := range rows {
		if !f(row) {
			break
		}
	}
	return nil
}

func (c *Collection) selectRows(query *Query) ([][]interface{}, error) {

	hasFilter := len(query.Filter) > 0
	skip := query.Skip
	taken := int64(0)

	result := [][]interface{}{}
	var matchErr error
	err := c.traverse(query, func(row *Row) bool {

		if query.Limit > 0 && taken >= query.Limit {
			return false
		}

		if hasFilter {
			match, err := matches(query.Filter, row)
			if err != nil {
				matchErr = err
				return false
			}
			if !match {
				return true
			}
		}

		if skip > 0 {
			skip--
			return true
		}

		taken++
		result = append(result, project(row, query.Fields))
		return true
	})
	if err != nil {
		return nil, err
	}
	if matchErr != nil {
		return nil, matchErr
	}

	return result, nil
}

func matches(filter map[string]interface{}, row *Row) (bool, error) {

	rowData := map[string]interface{}{}
	err := json.Unmarshal(row.Payload, &rowData)
	if err != nil {
		return false, fmt.Errorf("decode row %d: %w", row.I, err)
	}

	match, err := connor.Match(filter, rowData)
	if err != nil {
		return false, fmt.Errorf("match: %w", err)
	}
	return match, nil
}

// RemoveWhere removes the rows matching filter, all of them if filter is
// empty, up to limit rows when limit > 0. Removed rows are returned in
// insertion order.
func (c *Collection) RemoveWhere(filter map[string]interface{}, limit int64) ([]*Row, error) {

	if c.file == nil {
		return nil, ErrClosed
	}

	selected := []*Row{}
	for _, row := range c.Snapshot() {
		if limit > 0 && int64(len(selected)) >= limit {
			break
		}
		if len(filter) > 0 {
			match, err := matches(filter, row)
			if err != nil {
				return nil, err
			}
			if !match {
				continue
			}
		}
		selected = append(selected, row)
	}

	removed := make([]*Row, 0, len(selected))
	for _, row := range selected {
		err := c.Remove(row)
		if err != nil {
			return removed, fmt.Errorf("remove row: %w", err)
		}
		removed = append(removed, row)
	}

	return removed, nil
}

// project extracts the query fields of a row, missing fields are null
func project(row *Row, fields []Field) []interface{} {
	values := make([]interface{}, len(fields))
	for i, field := range fields {
		path := field.Path
		if path == "" {
			path = field.Name
		}

		r := gjson.GetBytes(row.Payload, path)
		if !r.Exists() || r.Type == gjson.Null {
			continue
		}

		switch field.Type {
		case cursor.ColumnTypeText:
			values[i] = r.String()
		case cursor.ColumnTypeShort, cursor.ColumnTypeInteger, cursor.ColumnTypeLong:
			values[i] = r.Int()
		case cursor.ColumnTypeFloat:
			values[i] = r.Float()
		default:
			values[i] = r.Value()
		}
	}
	return values
}
