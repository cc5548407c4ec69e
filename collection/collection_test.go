package collection

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	. "github.com/fulldump/biff"
	json "github.com/go-json-experiment/json"

	"github.com/fulldump/overlaydb/cursor"
)

func TestInsert(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenCollection(filename)
		defer c.Close()

		// Run
		c.Insert(map[string]interface{}{
			"hello": "world",
		})

		// Check
		fileContent, _ := os.ReadFile(filename)
		command := &Command{}
		json.Unmarshal(fileContent, command)
		AssertEqual(command.Name, CommandInsert)
		AssertEqual(string(command.Payload), `{"hello":"world"}`)
		AssertEqual(len(command.Uuid), 36)
	})
}

func TestCollection_Insert_Concurrency(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()

		n := 100

		wg := &sync.WaitGroup{}
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Insert(map[string]interface{}{"hello": "world"})
			}()
		}

		wg.Wait()

		AssertEqual(c.Len(), n)
	})
}

func TestInsertClosed(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		c.Close()

		_, err := c.Insert(map[string]interface{}{"hello": "world"})
		AssertTrue(errors.Is(err, ErrClosed))
	})
}

func TestPersistenceInsertIndexRemove(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenCollection(filename)
		c.Insert(map[string]interface{}{"id": 1, "name": "Pablo"})
		AssertNil(c.Index("by-id", &IndexBTreeOptions{Fields: []string{"id"}, Unique: true}))
		sara, _ := c.Insert(map[string]interface{}{"id": 2, "name": "Sara"})
		c.Insert(map[string]interface{}{"id": 3, "name": "Ana"})
		AssertNil(c.Remove(sara))
		c.Close()

		// Run
		c, err := OpenCollection(filename)
		AssertNil(err)
		defer c.Close()

		// Check
		AssertEqual(c.Len(), 2)
		AssertEqual(string(c.Rows[0].Payload), `{"id":1,"name":"Pablo"}`)
		AssertEqual(string(c.Rows[1].Payload), `{"id":3,"name":"Ana"}`)
		AssertEqual(c.Indexes["by-id"].Len(), 2)
		AssertEqual(c.IndexNames(), []string{"by-id"})

		_, err = c.Insert(map[string]interface{}{"id": 3, "name": "Duplicated"})
		AssertNotNil(err)
		AssertEqual(c.Len(), 2)
	})
}

func TestRemoveMovesLastRow(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()

		first, _ := c.Insert(map[string]interface{}{"id": "a"})
		c.Insert(map[string]interface{}{"id": "b"})
		last, _ := c.Insert(map[string]interface{}{"id": "c"})

		AssertNil(c.Remove(first))

		AssertEqual(last.I, 0)
		AssertEqual(first.I, -1)
		AssertEqual(string(c.Rows[0].Payload), `{"id":"c"}`)

		err := c.Remove(first)
		AssertNotNil(err)
	})
}

func TestIndexNonSparse(t *testing.T) {
	Environment(func(filename string) {

		// Setup
		c, _ := OpenCollection(filename)
		defer c.Close()
		c.Insert(map[string]interface{}{"id": "1"})

		// Run
		errIndex := c.Index("by-email", &IndexBTreeOptions{Fields: []string{"email"}})

		// Check
		AssertNotNil(errIndex)
		AssertEqual(errIndex.Error(), `index row: field 'email' not defined, data: {"id":"1"}`)
		AssertEqual(len(c.Indexes), 0)
	})
}

func TestIndexSparse(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()
		c.Insert(map[string]interface{}{"id": "1"})

		errIndex := c.Index("by-email", &IndexBTreeOptions{Fields: []string{"email"}, Sparse: true})

		AssertNil(errIndex)
		AssertEqual(c.Indexes["by-email"].Len(), 0)
	})
}

func TestIndexAlreadyExists(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()

		AssertNil(c.Index("by-id", &IndexBTreeOptions{Fields: []string{"id"}, Sparse: true}))
		err := c.Index("by-id", &IndexBTreeOptions{Fields: []string{"id"}, Sparse: true})
		AssertNotNil(err)
	})
}

func newPeople(filename string) *Collection {
	c, err := OpenCollection(filename)
	if err != nil {
		panic(err)
	}
	people := []map[string]interface{}{
		{"id": 1, "name": "Pablo", "age": 40, "address": map[string]interface{}{"city": "Madrid"}},
		{"id": 2, "name": "Sara", "age": 31, "address": map[string]interface{}{"city": "Paris"}},
		{"id": 3, "name": "Ana", "age": 25},
		{"id": 4, "name": "Luis", "age": 31, "address": map[string]interface{}{"city": "Madrid"}},
	}
	for _, person := range people {
		if _, err := c.Insert(person); err != nil {
			panic(err)
		}
	}
	return c
}

var peopleFields = []Field{
	{Name: "id", Type: cursor.ColumnTypeLong},
	{Name: "name", Type: cursor.ColumnTypeText},
	{Name: "city", Path: "address.city", Type: cursor.ColumnTypeText},
	{Name: "age", Type: cursor.ColumnTypeShort},
}

func readNames(c cursor.Cursor) []string {
	names := []string{}
	c.MoveToPosition(-1)
	for c.MoveToNext() {
		name, err := c.GetString(c.ColumnIndex("name"))
		if err != nil {
			panic(err)
		}
		names = append(names, name)
	}
	return names
}

func TestFind_Fullscan(t *testing.T) {
	Environment(func(filename string) {

		c := newPeople(filename)
		defer c.Close()

		result, err := c.Find(&Query{Fields: peopleFields})
		AssertNil(err)
		AssertEqual(result.Count(), 4)
		AssertEqual(result.ColumnCount(), 4)

		result.MoveToFirst()
		city, _ := result.GetString(2)
		AssertEqual(city, "Madrid")
		age, _ := result.GetShort(3)
		AssertEqual(age, int16(40))

		result.MoveToPosition(2)
		null, _ := result.IsNull(2)
		AssertTrue(null)
	})
}

func TestFind_FilterSkipLimit(t *testing.T) {
	Environment(func(filename string) {

		c := newPeople(filename)
		defer c.Close()

		result, err := c.Find(&Query{
			Fields: peopleFields,
			Filter: map[string]interface{}{"age": 31},
		})
		AssertNil(err)
		AssertEqual(readNames(result), []string{"Sara", "Luis"})

		result, err = c.Find(&Query{
			Fields: peopleFields,
			Skip:   1,
			Limit:  2,
		})
		AssertNil(err)
		AssertEqual(readNames(result), []string{"Sara", "Ana"})
	})
}

func TestFind_Index(t *testing.T) {
	Environment(func(filename string) {

		c := newPeople(filename)
		defer c.Close()

		AssertNil(c.Index("by-age", &IndexBTreeOptions{Fields: []string{"age", "-name"}}))

		result, err := c.Find(&Query{Fields: peopleFields, Index: "by-age"})
		AssertNil(err)
		AssertEqual(readNames(result), []string{"Ana", "Sara", "Luis", "Pablo"})

		result, err = c.Find(&Query{Fields: peopleFields, Index: "by-age", Reverse: true})
		AssertNil(err)
		AssertEqual(readNames(result), []string{"Pablo", "Luis", "Sara", "Ana"})

		_, err = c.Find(&Query{Fields: peopleFields, Index: "unknown"})
		AssertNotNil(err)
	})
}

func TestFind_Requery(t *testing.T) {
	Environment(func(filename string) {

		c := newPeople(filename)
		defer c.Close()

		result, err := c.Find(&Query{Fields: peopleFields})
		AssertNil(err)

		c.Insert(map[string]interface{}{"id": 5, "name": "Eva", "age": 52})
		AssertEqual(result.Count(), 4)

		result.Deactivate()
		AssertNil(result.Requery())
		AssertEqual(result.Count(), 5)
		AssertEqual(readNames(result), []string{"Pablo", "Sara", "Ana", "Luis", "Eva"})
	})
}

func TestFind_BadQuery(t *testing.T) {
	Environment(func(filename string) {

		c := newPeople(filename)
		defer c.Close()

		_, err := c.Find(&Query{})
		AssertNotNil(err)

		_, err = c.Find(&Query{Fields: []Field{{Type: cursor.ColumnTypeText}}})
		AssertNotNil(err)
		AssertTrue(strings.Contains(err.Error(), "no name"))
	})
}

func TestRemoveWhere(t *testing.T) {
	Environment(func(filename string) {

		c := newPeople(filename)

		removed, err := c.RemoveWhere(map[string]interface{}{"age": 31}, 1)
		AssertNil(err)
		AssertEqual(len(removed), 1)
		AssertEqual(string(removed[0].Payload), `{"address":{"city":"Paris"},"age":31,"id":2,"name":"Sara"}`)

		result, err := c.Find(&Query{Fields: peopleFields})
		AssertNil(err)
		AssertEqual(readNames(result), []string{"Pablo", "Luis", "Ana"})

		removed, err = c.RemoveWhere(map[string]interface{}{"age": 31}, 0)
		AssertNil(err)
		AssertEqual(len(removed), 1)

		removed, err = c.RemoveWhere(map[string]interface{}{"name": "Nobody"}, 0)
		AssertNil(err)
		AssertEqual(len(removed), 0)

		c.Close()

		_, err = c.RemoveWhere(nil, 0)
		AssertEqual(err, ErrClosed)

		// Removals survive a reload
		c, err = OpenCollection(filename)
		AssertNil(err)
		defer c.Close()

		result, err = c.Find(&Query{Fields: peopleFields})
		AssertNil(err)
		AssertEqual(readNames(result), []string{"Pablo", "Ana"})
	})
}
