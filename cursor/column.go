package cursor

import (
	"fmt"
	"strings"
)

type ColumnType int

const (
	ColumnTypeNull ColumnType = iota
	ColumnTypeShort
	ColumnTypeInteger
	ColumnTypeLong
	ColumnTypeFloat
	ColumnTypeText
)

var columnTypeNames = map[ColumnType]string{
	ColumnTypeNull:    "null",
	ColumnTypeShort:   "short",
	ColumnTypeInteger: "integer",
	ColumnTypeLong:    "long",
	ColumnTypeFloat:   "float",
	ColumnTypeText:    "text",
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

func ParseColumnType(s string) (ColumnType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range columnTypeNames {
		if name == s {
			return t, nil
		}
	}
	return ColumnTypeNull, fmt.Errorf("unknown column type '%s'", s)
}

func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ColumnType) UnmarshalText(text []byte) error {
	parsed, err := ParseColumnType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Column is the declared schema of one column of a result set
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}
