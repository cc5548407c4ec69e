package collection

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	json "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"

	"github.com/fulldump/overlaydb/utils"
)

var ErrClosed = errors.New("collection is closed")

type Collection struct {
	filename  string // Just informative...
	file      *os.File
	Rows      []*Row
	rowsMutex *sync.Mutex
	Indexes   map[string]*IndexBtree
	nextSeq   int64
	logger    *slog.Logger
}

type Row struct {
	I       int // position in Rows, changes when other rows are removed
	Payload jsontext.Value

	seq int64 // insertion order, never changes
}

func OpenCollection(filename string) (*Collection, error) {

	f, err := os.OpenFile(filename, os.O_RDONLY|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("open file for read: %w", err)
	}
	defer f.Close()

	collection := &Collection{
		Rows:      []*Row{},
		rowsMutex: &sync.Mutex{},
		filename:  filename,
		Indexes:   map[string]*IndexBtree{},
		logger:    slog.Default().With("collection", filename),
	}

	d := jsontext.NewDecoder(f)
	for {
		command := &Command{}
		err := json.UnmarshalDecode(d, command)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}

		err = collection.apply(command)
		if err != nil {
			return nil, fmt.Errorf("replay %s %s: %w", command.Name, command.Uuid, err)
		}
	}

	// Open file for append only
	collection.file, err = os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open file for write: %w", err)
	}

	return collection, nil
}

// apply replays one persisted command into memory. Commands that can not be
// applied anymore are logged and skipped.
func (c *Collection) apply(command *Command) error {

	switch command.Name {
	case CommandInsert:
		_, err := c.addRow(command.Payload)
		return err

	case CommandIndex:
		params := &indexCommand{}
		err := json.Unmarshal(command.Payload, params)
		if err != nil {
			return fmt.Errorf("decode index: %w", err)
		}
		err = c.indexRows(params.Name, &params.IndexBTreeOptions)
		if err != nil {
			c.logger.Warn("create index", "index", params.Name, "error", err)
		}

	case CommandRemove:
		params := struct {
			I int `json:"i"`
		}{}
		err := json.Unmarshal(command.Payload, &params)
		if err != nil {
			return fmt.Errorf("decode remove: %w", err)
		}
		if params.I < 0 || params.I >= len(c.Rows) {
			c.logger.Warn("remove row", "i", params.I, "error", "row does not exist")
			return nil
		}
		err = c.removeByRow(c.Rows[params.I], false)
		if err != nil {
			c.logger.Warn("remove row", "i", params.I, "error", err)
		}

	default:
		c.logger.Warn("unknown command", "name", command.Name)
	}

	return nil
}

func (c *Collection) persist(name string, payload interface{}) error {

	if c.file == nil {
		return ErrClosed
	}

	payloadBytes, err := json.Marshal(payload, json.Deterministic(true))
	if err != nil {
		return fmt.Errorf("json encode payload: %w", err)
	}

	command := &Command{
		Name:      name,
		Uuid:      uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		StartByte: 0,
		Payload:   payloadBytes,
	}

	data, err := json.Marshal(command)
	if err != nil {
		return fmt.Errorf("json encode command: %w", err)
	}

	_, err = c.file.Write(append(data, '\n'))
	if err != nil {
		return fmt.Errorf("write command: %w", err)
	}

	return nil
}

func (c *Collection) addRow(payload jsontext.Value) (*Row, error) {

	c.rowsMutex.Lock()
	defer c.rowsMutex.Unlock()

	row := &Row{
		Payload: payload,
		seq:     c.nextSeq,
	}

	err := indexInsert(c.Indexes, row)
	if err != nil {
		return nil, err
	}

	c.nextSeq++
	row.I = len(c.Rows)
	c.Rows = append(c.Rows, row)

	return row, nil
}

func (c *Collection) Insert(item interface{}) (*Row, error) {
	if c.file == nil {
		return nil, ErrClosed
	}

	payload, err := json.Marshal(item, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("json encode payload: %w", err)
	}

	row, err := c.addRow(payload)
	if err != nil {
		return nil, err
	}

	err = c.persist(CommandInsert, payload)
	if err != nil {
		return nil, err
	}

	return row, nil
}

// Snapshot returns the current rows, later inserts or removals do not affect it
func (c *Collection) Snapshot() []*Row {
	c.rowsMutex.Lock()
	defer c.rowsMutex.Unlock()

	rows := make([]*Row, len(c.Rows))
	copy(rows, c.Rows)
	return rows
}

func (c *Collection) Len() int {
	c.rowsMutex.Lock()
	defer c.rowsMutex.Unlock()
	return len(c.Rows)
}

func (c *Collection) IndexNames() []string {
	c.rowsMutex.Lock()
	defer c.rowsMutex.Unlock()
	return utils.SortedKeys(c.Indexes)
}

type indexCommand struct {
	Name              string `json:"name"`
	IndexBTreeOptions `json:",inline"`
}

func (c *Collection) indexRows(name string, options *IndexBTreeOptions) error {

	c.rowsMutex.Lock()
	defer c.rowsMutex.Unlock()

	if _, exists := c.Indexes[name]; exists {
		return fmt.Errorf("index '%s' already exists", name)
	}

	index := NewIndexBTree(options)
	for _, row := range c.Rows {
		err := index.AddRow(row)
		if err != nil {
			return fmt.Errorf("index row: %w, data: %s", err, string(row.Payload))
		}
	}
	c.Indexes[name] = index

	return nil
}

// Index creates an ordered index over one or more fields. A field prefixed
// with '-' is sorted in descending order.
func (c *Collection) Index(name string, options *IndexBTreeOptions) error {

	if c.file == nil {
		return ErrClosed
	}

	if len(options.Fields) == 0 {
		return fmt.Errorf("index '%s' has no fields", name)
	}

	err := c.indexRows(name, options)
	if err != nil {
		return err
	}

	return c.persist(CommandIndex, &indexCommand{
		Name:              name,
		IndexBTreeOptions: *options,
	})
}

func indexInsert(indexes map[string]*IndexBtree, row *Row) error {
	done := make([]*IndexBtree, 0, len(indexes))
	for name, index := range indexes {
		err := index.AddRow(row)
		if err != nil {
			for _, d := range done {
				d.RemoveRow(row)
			}
			return fmt.Errorf("index '%s': %w", name, err)
		}
		done = append(done, index)
	}
	return nil
}

func (c *Collection) Remove(r *Row) error {
	return c.removeByRow(r, true)
}

func lockBlock(m *sync.Mutex, f func() error) error {
	m.Lock()
	defer m.Unlock()
	return f()
}

// removeByRow moves the last row into the place of the removed one
func (c *Collection) removeByRow(row *Row, persist bool) error {

	if persist && c.file == nil {
		return ErrClosed
	}

	var i int
	err := lockBlock(c.rowsMutex, func() error {
		i = row.I
		if i < 0 || len(c.Rows) <= i || c.Rows[i] != row {
			return fmt.Errorf("row %d does not exist", i)
		}

		for _, index := range c.Indexes {
			index.RemoveRow(row)
		}

		last := len(c.Rows) - 1
		c.Rows[i] = c.Rows[last]
		c.Rows[i].I = i
		c.Rows = c.Rows[:last]
		row.I = -1
		return nil
	})
	if err != nil {
		return err
	}

	if !persist {
		return nil
	}

	return c.persist(CommandRemove, map[string]interface{}{
		"i": i,
	})
}

func (c *Collection) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

func (c *Collection) Drop() error {
	err := c.Close()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}

	err = os.Remove(c.filename)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}
