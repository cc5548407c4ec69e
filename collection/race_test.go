package collection

import (
	"sync"
	"testing"
	"time"

	"github.com/fulldump/overlaydb/cursor"
)

func TestRaceInsertFind(t *testing.T) {
	Environment(func(filename string) {

		c, err := OpenCollection(filename)
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()

		if err := c.Index("by-v", &IndexBTreeOptions{Fields: []string{"v"}}); err != nil {
			t.Fatal(err)
		}

		var wg sync.WaitGroup
		wg.Add(2)

		start := time.Now()
		duration := 500 * time.Millisecond

		// Writer
		go func() {
			defer wg.Done()
			i := 0
			for time.Since(start) < duration {
				_, err := c.Insert(map[string]any{"v": i})
				if err != nil {
					t.Error(err)
					return
				}
				i++
			}
		}()

		// Reader
		go func() {
			defer wg.Done()
			query := &Query{
				Fields: []Field{{Name: "v", Type: cursor.ColumnTypeLong}},
				Index:  "by-v",
			}
			for time.Since(start) < duration {
				result, err := c.Find(query)
				if err != nil {
					t.Error(err)
					return
				}
				for result.MoveToNext() {
					result.GetLong(0)
				}
				result.Close()
			}
		}()

		wg.Wait()
	})
}
