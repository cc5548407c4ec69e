package collection

import (
	"fmt"
	"strings"

	"github.com/google/btree"
	"github.com/tidwall/gjson"
)

type IndexBtree struct {
	Btree   *btree.BTreeG[*RowOrdered]
	Options *IndexBTreeOptions
}

type RowOrdered struct {
	*Row
	Values []interface{}
	seq    int64
}

type IndexBTreeOptions struct {
	Fields []string `json:"fields"`
	Sparse bool     `json:"sparse"`
	Unique bool     `json:"unique"`
}

func NewIndexBTree(options *IndexBTreeOptions) *IndexBtree {

	reverse := make([]bool, len(options.Fields))
	for i, field := range options.Fields {
		reverse[i] = strings.HasPrefix(field, "-")
	}

	index := btree.NewG(32, func(a, b *RowOrdered) bool {
		cmp := compareValues(a.Values, b.Values, reverse)
		if cmp != 0 {
			return cmp < 0
		}
		return a.seq < b.seq
	})

	return &IndexBtree{
		Btree:   index,
		Options: options,
	}
}

// values extracts the indexed fields of a row, missing names the first field
// not present
func (b *IndexBtree) values(r *Row) (values []interface{}, missing string) {
	for _, field := range b.Options.Fields {
		field = strings.TrimPrefix(field, "-")
		result := gjson.GetBytes(r.Payload, field)
		if !result.Exists() {
			return nil, field
		}
		values = append(values, result.Value())
	}
	return values, ""
}

func (b *IndexBtree) AddRow(r *Row) error {

	values, missing := b.values(r)
	if missing != "" {
		if b.Options.Sparse {
			return nil
		}
		return fmt.Errorf("field '%s' not defined", missing)
	}

	if b.Options.Unique && b.has(values) {
		errKey := ""
		for i, field := range b.Options.Fields {
			pair := fmt.Sprint(field, ":", values[i])
			if errKey != "" {
				errKey += "," + pair
			} else {
				errKey = pair
			}
		}
		return fmt.Errorf("key (%s) already exists", errKey)
	}

	b.Btree.ReplaceOrInsert(&RowOrdered{
		Row:    r,
		Values: values,
		seq:    r.seq,
	})

	return nil
}

func (b *IndexBtree) RemoveRow(r *Row) error {

	values, missing := b.values(r)
	if missing != "" {
		return nil
	}

	b.Btree.Delete(&RowOrdered{
		Values: values,
		seq:    r.seq,
	})

	return nil
}

func (b *IndexBtree) has(values []interface{}) bool {
	found := false
	pivot := &RowOrdered{Values: values, seq: -1}
	b.Btree.AscendGreaterOrEqual(pivot, func(item *RowOrdered) bool {
		found = compareValues(item.Values, values, nil) == 0
		return false
	})
	return found
}

func (b *IndexBtree) Len() int {
	return b.Btree.Len()
}

// Traverse visits the indexed rows in index order until f returns false
func (b *IndexBtree) Traverse(reverse bool, f func(*Row) bool) {

	iterator := func(r *RowOrdered) bool {
		return f(r.Row)
	}

	if reverse {
		b.Btree.Descend(iterator)
	} else {
		b.Btree.Ascend(iterator)
	}
}

// compareValues orders null < bool < number < string and, inside a kind, by
// value. Fields flagged in reverse are compared in descending order.
func compareValues(a, b []interface{}, reverse []bool) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		cmp := compareValue(a[i], b[i])
		if cmp == 0 {
			continue
		}
		if i < len(reverse) && reverse[i] {
			return -cmp
		}
		return cmp
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}

func kindRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	}
	return 4
}

func compareValue(a, b interface{}) int {

	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch va := a.(type) {
	case bool:
		vb := b.(bool)
		if va == vb {
			return 0
		}
		if !va {
			return -1
		}
		return 1
	case float64:
		vb := b.(float64)
		if va < vb {
			return -1
		}
		if va > vb {
			return 1
		}
		return 0
	case string:
		return strings.Compare(va, b.(string))
	case nil:
		return 0
	}

	// objects and arrays
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
