package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// TestOverlay measures the round trip of moving a cursor, overlaying a cell
// and reading the row back
func TestOverlay(c Config) {

	if c.Base == "" {
		start, stop := CreateServer(&c)
		defer stop()
		go start()
		WaitReady(c.Base)
	}

	collection := CreateCollection(c.Base)
	collectionUrl := c.Base + "/v1/collections/" + collection

	streamInsert(http.DefaultClient, collectionUrl, c.N, c.Workers)

	status := JSON{}
	Call(http.DefaultClient, collectionUrl+":openCursor", JSON{
		"fields": []JSON{
			{"name": "id", "type": "long"},
			{"name": "name", "type": "text"},
			{"name": "score", "type": "float"},
		},
		"key_column":   0,
		"keyed_by_row": true,
	}, &status)
	cursorUrl := c.Base + "/v1/cursors/" + status["id"].(string)
	fmt.Println("cursor:", status["id"], "rows:", status["count"])

	t0 := time.Now()
	for i := int64(0); i < c.N; i++ {
		Call(http.DefaultClient, cursorUrl+":move", JSON{"position": i}, nil)
		Call(http.DefaultClient, cursorUrl+":setOverlay", JSON{
			"column": 2,
			"value":  strconv.FormatInt(i, 10) + ".25",
		}, nil)
		Call(http.DefaultClient, cursorUrl+":read", nil, nil)
	}
	took := time.Since(t0)

	Call(http.DefaultClient, cursorUrl+":close", nil, nil)

	fmt.Println("overlays:", c.N)
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f overlays/sec\n", float64(c.N)/took.Seconds())
}
