package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
)

// streamInsert sends n documents with ids 0..n-1 through the streaming insert
// action, one stream per worker, and returns the ids echoed back by the server
func streamInsert(client *http.Client, collectionUrl string, n int64, workers int) []bool {

	next := int64(-1)
	echoed := make([]bool, n)
	var echoedTotal int64

	Parallel(workers, func() {

		r, w := io.Pipe()

		go func() {
			wb := bufio.NewWriterSize(w, 1*1024*1024)
			for {
				id := atomic.AddInt64(&next, 1)
				if id >= n {
					break
				}
				fmt.Fprintf(wb, "{\"id\":%d,\"name\":\"item-%d\",\"score\":%d.5}\n", id, id, id%100)
			}
			wb.Flush()
			w.Close()
		}()

		resp, err := client.Post(collectionUrl+":insert", "application/json", r)
		if err != nil {
			fmt.Println("ERROR: insert:", err.Error())
			os.Exit(4)
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			id := gjson.GetBytes(scanner.Bytes(), "id")
			if !id.Exists() || id.Int() < 0 || id.Int() >= n {
				fmt.Println("ERROR: unexpected row:", scanner.Text())
				continue
			}
			echoed[id.Int()] = true
			atomic.AddInt64(&echoedTotal, 1)
		}
	})

	if echoedTotal != n {
		fmt.Printf("ERROR: sent %d documents, %d echoed\n", n, echoedTotal)
	}

	return echoed
}

func TestInsert(c Config) {

	if c.Base == "" {
		start, stop := CreateServer(&c)
		defer stop()
		go start()
		WaitReady(c.Base)
	}

	collection := CreateCollection(c.Base)
	collectionUrl := c.Base + "/v1/collections/" + collection

	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     1024,
			MaxIdleConnsPerHost: 1024,
			MaxIdleConns:        1024,
		},
	}

	t0 := time.Now()
	echoed := streamInsert(client, collectionUrl, c.N, c.Workers)
	took := time.Since(t0)

	missing := 0
	for _, ok := range echoed {
		if !ok {
			missing++
		}
	}

	info := JSON{}
	resp, err := http.Get(collectionUrl)
	if err == nil {
		json.NewDecoder(resp.Body).Decode(&info)
		resp.Body.Close()
	}

	fmt.Println("sent:", c.N, "missing echoes:", missing, "stored:", info["total"])
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f rows/sec\n", float64(c.N)/took.Seconds())
}
