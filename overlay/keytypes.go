package overlay

import "github.com/fulldump/overlaydb/cursor"

var possibleKeyTypes = map[cursor.ColumnType]struct{}{
	cursor.ColumnTypeShort:   {},
	cursor.ColumnTypeInteger: {},
	cursor.ColumnTypeLong:    {},
	cursor.ColumnTypeText:    {},
}

// PossibleKeyTypes returns the column types a key column can be declared with
func PossibleKeyTypes() []cursor.ColumnType {
	return []cursor.ColumnType{
		cursor.ColumnTypeShort,
		cursor.ColumnTypeInteger,
		cursor.ColumnTypeLong,
		cursor.ColumnTypeText,
	}
}

func IsPossibleKeyType(t cursor.ColumnType) bool {
	_, ok := possibleKeyTypes[t]
	return ok
}
