package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fulldump/overlaydb/bootstrap"
	"github.com/fulldump/overlaydb/configuration"
)

type JSON = map[string]any

func Parallel(workers int, f func()) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()
}

func TempDir() (string, func()) {
	dir, err := os.MkdirTemp("", "overlaydb_bench_*")
	if err != nil {
		panic("Could not create temp directory: " + err.Error())
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

// Call posts a JSON payload and decodes the JSON response into output, if not
// nil
func Call(client *http.Client, url string, payload any, output any) int {

	body, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", url, bytes.NewReader(body))
	resp, err := client.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		panic(fmt.Sprintf("%s: %d %s", url, resp.StatusCode, string(b)))
	}

	if output != nil {
		json.NewDecoder(resp.Body).Decode(output)
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	return resp.StatusCode
}

func CreateCollection(base string) string {

	name := "col-" + strconv.FormatInt(time.Now().UnixNano(), 10)

	Call(http.DefaultClient, base+"/v1/collections", JSON{"name": name}, nil)
	fmt.Println("collection:", name)

	return name
}

func CreateServer(c *Config) (start, stop func()) {
	dir, cleanup := TempDir()
	cleanups = append(cleanups, cleanup)

	conf := configuration.Default()
	conf.Dir = dir
	conf.LogLevel = "warn"
	c.Base = "http://" + conf.HttpAddr

	start, stop, err := bootstrap.Bootstrap(&conf)
	if err != nil {
		panic(err)
	}

	return start, stop
}

// WaitReady polls the api until the database has loaded
func WaitReady(base string) {
	for {
		resp, err := http.Get(base + "/v1/collections")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
}
