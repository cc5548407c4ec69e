package overlay

import (
	"fmt"
	"math"
	"log/slog"
	"reflect"
	"strconv"

	"github.com/fulldump/overlaydb/cursor"
)

// OverlayCursor wraps a cursor and lets callers define an overlay for specific
// cells. Reads of an overlaid cell return the overlay instead of the value of
// the wrapped cursor, which is never modified. All the operations not
// redefined here are forwarded to the wrapped cursor.
//
// Overlays are keyed by cursor position unless WithRowKeys is given, in which
// case they are keyed by the value of the key column.
//
// An OverlayCursor is not safe for concurrent use.
type OverlayCursor struct {
	cursor.Cursor

	keyColumn  int
	keyedByRow bool
	logger     *slog.Logger

	positionOverlays map[int]*overlays
	rowOverlays      map[string]*overlays

	// inactive is the lifecycle error once closed or deactivated
	inactive error
}

type Option func(c *OverlayCursor)

func WithLogger(logger *slog.Logger) Option {
	return func(c *OverlayCursor) {
		c.logger = logger
	}
}

// WithRowKeys keys overlays by the value read from the key column instead of
// by position, so an overlay follows its row when the result set is reordered
// by a requery.
func WithRowKeys() Option {
	return func(c *OverlayCursor) {
		c.keyedByRow = true
	}
}

// New creates an overlay on top of an existing cursor. keyColumn is the
// zero-indexed column holding the stable identifier of each row, its declared
// type must be one of PossibleKeyTypes.
func New(parent cursor.Cursor, keyColumn int, options ...Option) (*OverlayCursor, error) {

	if isNil(parent) {
		return nil, fmt.Errorf("%w: nil cursor", ErrConfiguration)
	}

	columns := parent.Columns()
	if keyColumn < 0 || keyColumn >= len(columns) {
		return nil, fmt.Errorf("%w: key column %d must be between 0 and %d", ErrConfiguration, keyColumn, len(columns)-1)
	}

	keyType := columns[keyColumn].Type
	if !IsPossibleKeyType(keyType) {
		return nil, fmt.Errorf("%w: key column '%s' has type %s, must be one of %v",
			ErrConfiguration, columns[keyColumn].Name, keyType, PossibleKeyTypes())
	}

	c := &OverlayCursor{
		Cursor:           parent,
		keyColumn:        keyColumn,
		logger:           slog.Default(),
		positionOverlays: map[int]*overlays{},
		rowOverlays:      map[string]*overlays{},
	}

	for _, option := range options {
		option(c)
	}

	return c, nil
}

func (c *OverlayCursor) KeyColumn() int {
	return c.keyColumn
}

func (c *OverlayCursor) IsKeyedByRow() bool {
	return c.keyedByRow
}

// rowKey reads the key of the current row from the wrapped cursor, never from
// an overlay. null is true when the row has no key.
func (c *OverlayCursor) rowKey() (key string, null bool, err error) {
	null, err = c.Cursor.IsNull(c.keyColumn)
	if err != nil {
		return "", false, fmt.Errorf("read key column: %w", err)
	}
	if null {
		return "", true, nil
	}
	key, err = c.Cursor.GetString(c.keyColumn)
	if err != nil {
		return "", false, fmt.Errorf("read key column: %w", err)
	}
	return key, false, nil
}

// rowOverlaysAt returns the overlays for the current row, creating them if
// create is true
func (c *OverlayCursor) rowOverlaysAt(create bool) (*overlays, error) {

	if !c.keyedByRow {
		position := c.Position()
		o, exists := c.positionOverlays[position]
		if !exists && create {
			o = newOverlays()
			c.positionOverlays[position] = o
		}
		return o, nil
	}

	key, null, err := c.rowKey()
	if err != nil {
		return nil, err
	}
	if null {
		if create {
			return nil, fmt.Errorf("%w: key column %d is null", ErrInvalidArgument, c.keyColumn)
		}
		return nil, nil
	}
	o, exists := c.rowOverlays[key]
	if !exists && create {
		o = newOverlays()
		c.rowOverlays[key] = o
	}
	return o, nil
}

// overlay fetches the overlay for a given column at the current cursor position
func (c *OverlayCursor) overlay(column int) (string, bool, error) {

	if c.inactive != nil || c.size() == 0 {
		return "", false, nil
	}

	position := c.Position()
	if position < 0 || position >= c.Count() {
		return "", false, nil
	}

	o, err := c.rowOverlaysAt(false)
	if err != nil {
		return "", false, err
	}
	if o == nil {
		return "", false, nil
	}

	value, exists := o.get(column)
	return value, exists, nil
}

func (c *OverlayCursor) size() int {
	if c.keyedByRow {
		return len(c.rowOverlays)
	}
	return len(c.positionOverlays)
}

// SetOverlay adds a new overlay at the current cursor position. Setting the
// same column again replaces the previous overlay. It does nothing while the
// cursor is before the first row.
func (c *OverlayCursor) SetOverlay(column int, value interface{}) error {

	if c.inactive != nil {
		return fmt.Errorf("set overlay: %w", c.inactive)
	}

	position := c.Position()
	if position < 0 {
		return nil
	}

	if isNil(value) {
		return fmt.Errorf("%w: can not set a nil value as an overlay", ErrInvalidArgument)
	}

	columnCount := c.ColumnCount()
	if column < 0 || column >= columnCount {
		return fmt.Errorf("%w: column must be between 0 and %d", ErrIndexOutOfRange, columnCount-1)
	}

	o, err := c.rowOverlaysAt(true)
	if err != nil {
		return fmt.Errorf("set overlay: %w", err)
	}

	o.add(column, canonical(value))

	c.logger.Debug("overlay added",
		"overlays", c.size(),
		"column_overlays", o.len(),
		"position", position,
		"column", column,
	)

	return nil
}

// AddOverlay is SetOverlay
func (c *OverlayCursor) AddOverlay(column int, value interface{}) error {
	return c.SetOverlay(column, value)
}

// HasOverlay tells if the cell at the current position and column is overlaid
func (c *OverlayCursor) HasOverlay(column int) (bool, error) {
	_, exists, err := c.overlay(column)
	return exists, err
}

func (c *OverlayCursor) IsNull(column int) (bool, error) {
	_, exists, err := c.overlay(column)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return c.Cursor.IsNull(column)
}

func (c *OverlayCursor) GetFloat(column int) (float32, error) {
	overlay, exists, err := c.overlay(column)
	if err != nil {
		return 0, err
	}
	if !exists {
		return c.Cursor.GetFloat(column)
	}

	f, err := strconv.ParseFloat(overlay, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return float32(f), nil
}

func (c *OverlayCursor) GetInt(column int) (int32, error) {
	overlay, exists, err := c.overlay(column)
	if err != nil {
		return 0, err
	}
	if !exists {
		return c.Cursor.GetInt(column)
	}

	return parseInt(overlay)
}

// GetLong parses overlays with the same 32 bit parser used by GetInt, overlays
// out of the int32 range fail with ErrFormat. Values from the wrapped cursor
// keep their full width.
func (c *OverlayCursor) GetLong(column int) (int64, error) {
	overlay, exists, err := c.overlay(column)
	if err != nil {
		return 0, err
	}
	if !exists {
		return c.Cursor.GetLong(column)
	}

	i, err := parseInt(overlay)
	return int64(i), err
}

func (c *OverlayCursor) GetShort(column int) (int16, error) {
	overlay, exists, err := c.overlay(column)
	if err != nil {
		return 0, err
	}
	if !exists {
		return c.Cursor.GetShort(column)
	}

	i, err := strconv.ParseInt(overlay, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return int16(i), nil
}

func (c *OverlayCursor) GetString(column int) (string, error) {
	overlay, exists, err := c.overlay(column)
	if err != nil {
		return "", err
	}
	if !exists {
		return c.Cursor.GetString(column)
	}
	return overlay, nil
}

func (c *OverlayCursor) reset() {
	clear(c.positionOverlays)
	clear(c.rowOverlays)
}

func (c *OverlayCursor) Close() error {
	c.reset()
	c.inactive = cursor.ErrClosed
	return c.Cursor.Close()
}

func (c *OverlayCursor) Deactivate() {
	c.reset()
	if c.inactive == nil {
		c.inactive = cursor.ErrDeactivated
	}
	c.Cursor.Deactivate()
}

// Requery forwards to the wrapped cursor. On success the overlay cursor
// accepts overlays again, starting from an empty table.
func (c *OverlayCursor) Requery() error {
	err := c.Cursor.Requery()
	if err != nil {
		return err
	}
	if c.inactive == cursor.ErrDeactivated {
		c.inactive = nil
	}
	return nil
}

func parseInt(s string) (int32, error) {
	i, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return int32(i), nil
}

// canonical returns the string form an overlay value is stored with
func canonical(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

// formatFloat writes integral values without exponent so they still parse as
// integers, JSON numbers decode as float64
func formatFloat(v float64, bitSize int) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, bitSize)
	}
	return strconv.FormatFloat(v, 'g', -1, bitSize)
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	}
	return false
}
