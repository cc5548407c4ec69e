package collection

import (
	"fmt"
	"testing"

	"github.com/fulldump/biff"
)

func Test_IndexBTree_HappyPath(t *testing.T) {

	index := NewIndexBTree(&IndexBTreeOptions{
		Fields: []string{"id"},
		Sparse: false,
		Unique: true,
	})

	n := 4
	for i := n - 1; i >= 0; i-- {
		err := index.AddRow(&Row{
			Payload: []byte(fmt.Sprintf(`{"id":%d}`, i)),
			seq:     int64(n - i),
		})
		biff.AssertNil(err)
	}

	{
		expectedPayloads := []string{
			`{"id":0}`, `{"id":1}`, `{"id":2}`, `{"id":3}`,
		}
		payloads := []string{}
		index.Traverse(false, func(row *Row) bool {
			payloads = append(payloads, string(row.Payload))
			return true
		})
		biff.AssertEqual(payloads, expectedPayloads)
	}

	{
		expectedReversedPayloads := []string{
			`{"id":3}`, `{"id":2}`, `{"id":1}`, `{"id":0}`,
		}
		reversedPayloads := []string{}
		index.Traverse(true, func(row *Row) bool {
			reversedPayloads = append(reversedPayloads, string(row.Payload))
			return true
		})
		biff.AssertEqual(reversedPayloads, expectedReversedPayloads)
	}
}

func Test_IndexBTree_UniqueAndRemove(t *testing.T) {

	index := NewIndexBTree(&IndexBTreeOptions{
		Fields: []string{"-name"},
		Unique: true,
	})

	pablo := &Row{Payload: []byte(`{"name":"Pablo"}`), seq: 1}
	biff.AssertNil(index.AddRow(pablo))

	err := index.AddRow(&Row{Payload: []byte(`{"name":"Pablo"}`), seq: 2})
	biff.AssertNotNil(err)
	biff.AssertEqual(err.Error(), "key (-name:Pablo) already exists")

	biff.AssertNil(index.RemoveRow(pablo))
	biff.AssertEqual(index.Len(), 0)

	biff.AssertNil(index.AddRow(&Row{Payload: []byte(`{"name":"Pablo"}`), seq: 3}))
}

func Test_IndexBTree_Duplicates(t *testing.T) {

	index := NewIndexBTree(&IndexBTreeOptions{
		Fields: []string{"group"},
	})

	for i := 0; i < 3; i++ {
		biff.AssertNil(index.AddRow(&Row{Payload: []byte(`{"group":"a"}`), seq: int64(i)}))
	}

	biff.AssertEqual(index.Len(), 3)
}

func Test_compareValues(t *testing.T) {

	biff.AssertEqual(compareValue(nil, false), -1)
	biff.AssertEqual(compareValue(true, 1.0), -1)
	biff.AssertEqual(compareValue(2.0, "1"), -1)
	biff.AssertEqual(compareValue("b", "a"), 1)
	biff.AssertEqual(compareValue(3.0, 3.0), 0)

	biff.AssertEqual(compareValues([]interface{}{1.0, "a"}, []interface{}{1.0, "b"}, nil), -1)
	biff.AssertEqual(compareValues([]interface{}{1.0, "a"}, []interface{}{1.0, "b"}, []bool{false, true}), 1)
}
