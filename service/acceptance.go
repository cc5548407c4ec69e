package service

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

const peopleDocuments = `{"name":"Alice","age":30,"score":1.5}
{"name":"Bob","age":25,"score":2.25}
{"name":"Carol","age":35}
`

var peopleColumns = []JSON{
	{"name": "name", "type": "text"},
	{"name": "age", "type": "integer"},
	{"name": "score", "type": "float"},
}

// openCursor opens a cursor over people and returns its path
func openCursor(apiRequest func(method, path string) *apitest.Request, options JSON) string {
	resp := apiRequest("POST", "/collections/people:openCursor").
		WithBodyJson(options).Do()
	biff.AssertEqual(resp.StatusCode, http.StatusCreated)
	return "/cursors/" + resp.BodyJsonMap()["id"].(string)
}

func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("Create collection", func(a *biff.A) {
		resp := apiRequest("POST", "/collections").
			WithBodyJson(JSON{
				"name": "people",
			}).Do()
		Save(resp, "Create collection", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		biff.AssertEqualJson(resp.BodyJson(), JSON{
			"name":    "people",
			"total":   0,
			"indexes": []string{},
		})

		a.Alternative("Create existing collection", func(a *biff.A) {
			resp := apiRequest("POST", "/collections").
				WithBodyJson(JSON{
					"name": "people",
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusConflict)
		})

		a.Alternative("List collections", func(a *biff.A) {
			resp := apiRequest("GET", "/collections").Do()
			Save(resp, "List collections", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), []JSON{
				{
					"name":    "people",
					"total":   0,
					"indexes": []string{},
				},
			})
		})

		a.Alternative("Drop collection", func(a *biff.A) {
			resp := apiRequest("POST", "/collections/people:dropCollection").Do()
			Save(resp, "Drop collection", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

			a.Alternative("Get dropped collection", func(a *biff.A) {
				resp := apiRequest("GET", "/collections/people").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				biff.AssertEqual(resp.BodyJsonMap()["error"].(JSON)["description"], "collection not found")
			})
		})

		a.Alternative("Insert documents", func(a *biff.A) {
			resp := apiRequest("POST", "/collections/people:insert").
				WithBodyString(peopleDocuments).Do()
			Save(resp, "Insert documents", `
				Insert reads a stream of JSON documents, one per line.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			biff.AssertEqual(strings.Count(resp.BodyString(), "\n"), 3)

			resp = apiRequest("GET", "/collections/people").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"name":    "people",
				"total":   3,
				"indexes": []string{},
			})

			a.Alternative("Insert malformed document", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/people:insert").
					WithBodyString(`{"name":`).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("Create index", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/people:createIndex").
					WithBodyJson(JSON{
						"name":   "by-age",
						"fields": []string{"-age"},
					}).Do()
				Save(resp, "Create index", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusCreated)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"name":   "by-age",
					"fields": []string{"-age"},
					"sparse": false,
					"unique": false,
				})

				a.Alternative("Open cursor over index", func(a *biff.A) {
					resp := apiRequest("POST", "/collections/people:openCursor").
						WithBodyJson(JSON{
							"fields": peopleColumns,
							"index":  "by-age",
						}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusCreated)
					cursorId := resp.BodyJsonMap()["id"].(string)

					apiRequest("POST", "/cursors/"+cursorId+":move").
						WithBodyJson(JSON{"position": 0}).Do()

					resp = apiRequest("POST", "/cursors/"+cursorId+":read").Do()
					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(resp.BodyJson(), []JSON{
						{"name": "name", "value": "Carol", "overlaid": false},
						{"name": "age", "value": 35, "overlaid": false},
						{"name": "score", "value": nil, "overlaid": false},
					})
				})

				a.Alternative("Create index again", func(a *biff.A) {
					resp := apiRequest("POST", "/collections/people:createIndex").
						WithBodyJson(JSON{
							"name":   "by-age",
							"fields": []string{"age"},
						}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
				})
			})

			a.Alternative("Open cursor", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/people:openCursor").
					WithBodyJson(JSON{
						"fields":     peopleColumns,
						"key_column": 0,
					}).Do()
				Save(resp, "Open cursor", `
					Run a query over a collection and keep its result open as an
					overlay cursor. The key column must be short, integer, long or
					text.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusCreated)
				status := resp.BodyJsonMap()
				cursorId := status["id"].(string)
				biff.AssertEqualJson(status, JSON{
					"id":           cursorId,
					"collection":   "people",
					"position":     -1,
					"count":        3,
					"columns":      peopleColumns,
					"key_column":   0,
					"keyed_by_row": false,
					"closed":       false,
				})

				cursorPath := "/cursors/" + cursorId

				a.Alternative("List cursors", func(a *biff.A) {
					resp := apiRequest("GET", "/cursors").Do()
					Save(resp, "List cursors", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqual(len(resp.BodyJson().([]interface{})), 1)
				})

				a.Alternative("Read before first row", func(a *biff.A) {
					resp := apiRequest("POST", cursorPath+":read").Do()

					biff.AssertEqual(resp.StatusCode, http.StatusConflict)
				})

				a.Alternative("Overlay before first row is ignored", func(a *biff.A) {
					resp := apiRequest("POST", cursorPath+":setOverlay").
						WithBodyJson(JSON{"column": 1, "value": "99"}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

					apiRequest("POST", cursorPath+":move").
						WithBodyJson(JSON{"position": 0}).Do()
					resp = apiRequest("POST", cursorPath+":read").Do()
					biff.AssertEqualJson(resp.BodyJson().([]interface{})[1], JSON{
						"name": "age", "value": 30, "overlaid": false,
					})
				})

				a.Alternative("Move to first row", func(a *biff.A) {
					resp := apiRequest("POST", cursorPath+":move").
						WithBodyJson(JSON{"position": 0}).Do()
					Save(resp, "Move cursor", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqual(resp.BodyJsonMap()["on_row"], true)

					resp = apiRequest("POST", cursorPath+":read").Do()
					Save(resp, "Read row", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(resp.BodyJson(), []JSON{
						{"name": "name", "value": "Alice", "overlaid": false},
						{"name": "age", "value": 30, "overlaid": false},
						{"name": "score", "value": 1.5, "overlaid": false},
					})

					a.Alternative("Set overlay", func(a *biff.A) {
						resp := apiRequest("POST", cursorPath+":setOverlay").
							WithBodyJson(JSON{"column": 1, "value": "31"}).Do()
						Save(resp, "Set overlay", `
							The overlay replaces the value of a column at the current
							position. The value is stored as text and parsed when read.
						`)

						biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

						resp = apiRequest("POST", cursorPath+":read").Do()
						biff.AssertEqualJson(resp.BodyJson(), []JSON{
							{"name": "name", "value": "Alice", "overlaid": false},
							{"name": "age", "value": 31, "overlaid": true},
							{"name": "score", "value": 1.5, "overlaid": false},
						})

						a.Alternative("Other rows are not overlaid", func(a *biff.A) {
							apiRequest("POST", cursorPath+":move").
								WithBodyJson(JSON{"position": 1}).Do()

							resp := apiRequest("POST", cursorPath+":read").Do()
							biff.AssertEqualJson(resp.BodyJson(), []JSON{
								{"name": "name", "value": "Bob", "overlaid": false},
								{"name": "age", "value": 25, "overlaid": false},
								{"name": "score", "value": 2.25, "overlaid": false},
							})
						})

						a.Alternative("Deactivate", func(a *biff.A) {
							resp := apiRequest("POST", cursorPath+":deactivate").Do()
							Save(resp, "Deactivate cursor", ``)

							biff.AssertEqual(resp.StatusCode, http.StatusOK)
							biff.AssertEqualJson(resp.BodyJsonMap()["position"], -1)

							resp = apiRequest("POST", cursorPath+":setOverlay").
								WithBodyJson(JSON{"column": 1, "value": "32"}).Do()
							biff.AssertEqual(resp.StatusCode, http.StatusConflict)

							resp = apiRequest("POST", cursorPath+":requery").Do()
							Save(resp, "Requery cursor", ``)
							biff.AssertEqual(resp.StatusCode, http.StatusOK)

							apiRequest("POST", cursorPath+":move").
								WithBodyJson(JSON{"position": 0}).Do()

							resp = apiRequest("POST", cursorPath+":read").Do()
							biff.AssertEqualJson(resp.BodyJson().([]interface{})[1], JSON{
								"name": "age", "value": 30, "overlaid": false,
							})
						})

						a.Alternative("Close", func(a *biff.A) {
							resp := apiRequest("POST", cursorPath+":close").Do()
							Save(resp, "Close cursor", ``)

							biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

							resp = apiRequest("GET", cursorPath).Do()
							biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
						})
					})

					a.Alternative("Overlay that does not parse", func(a *biff.A) {
						resp := apiRequest("POST", cursorPath+":setOverlay").
							WithBodyJson(JSON{"column": 1, "value": "thirty"}).Do()
						biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

						resp = apiRequest("POST", cursorPath+":read").Do()
						Save(resp, "Read row - format error", ``)

						biff.AssertEqual(resp.StatusCode, http.StatusUnprocessableEntity)
					})

					a.Alternative("Overlay without value", func(a *biff.A) {
						resp := apiRequest("POST", cursorPath+":setOverlay").
							WithBodyJson(JSON{"column": 1, "value": nil}).Do()

						biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
					})

					a.Alternative("Overlay out of range", func(a *biff.A) {
						resp := apiRequest("POST", cursorPath+":setOverlay").
							WithBodyJson(JSON{"column": 3, "value": "x"}).Do()

						biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
					})

					a.Alternative("Overlay a JSON number", func(a *biff.A) {
						resp := apiRequest("POST", cursorPath+":setOverlay").
							WithBodyJson(JSON{"column": 1, "value": 1234567}).Do()
						biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

						resp = apiRequest("POST", cursorPath+":read").Do()
						biff.AssertEqual(resp.StatusCode, http.StatusOK)
						biff.AssertEqualJson(resp.BodyJson().([]interface{})[1], JSON{
							"name": "age", "value": 1234567, "overlaid": true,
						})
					})
				})

				a.Alternative("Drop collection closes cursor", func(a *biff.A) {
					apiRequest("POST", "/collections/people:dropCollection").Do()

					resp := apiRequest("GET", cursorPath).Do()
					biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				})
			})

			a.Alternative("Overlay a JSON number on a long column", func(a *biff.A) {
				cursorPath := openCursor(apiRequest, JSON{
					"fields": []JSON{
						{"name": "name", "type": "text"},
						{"name": "age", "type": "long"},
					},
				})

				apiRequest("POST", cursorPath+":move").
					WithBodyJson(JSON{"position": 0}).Do()
				resp := apiRequest("POST", cursorPath+":setOverlay").
					WithBodyJson(JSON{"column": 1, "value": 1234567}).Do()
				biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

				resp = apiRequest("POST", cursorPath+":read").Do()
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), []JSON{
					{"name": "name", "value": "Alice", "overlaid": false},
					{"name": "age", "value": 1234567, "overlaid": true},
				})
			})

			a.Alternative("Remove documents", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/people:remove").
					WithBodyJson(JSON{
						"filter": JSON{"name": "Bob"},
					}).Do()
				Save(resp, "Remove documents", `
					Remove deletes the documents matching a filter, up to limit if it is
					greater than zero, and returns the removed documents, one per line.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(strings.Count(resp.BodyString(), "\n"), 1)
				biff.AssertTrue(strings.Contains(resp.BodyString(), `"Bob"`))

				resp = apiRequest("GET", "/collections/people").Do()
				biff.AssertEqual(resp.BodyJsonMap()["total"], json.Number("2"))
			})

			a.Alternative("Remove on missing collection", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/nobody:remove").
					WithBodyJson(JSON{}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})

			a.Alternative("Removal moves rows under position keyed overlays", func(a *biff.A) {
				byPosition := openCursor(apiRequest, JSON{
					"fields":     peopleColumns,
					"key_column": 0,
				})
				byRow := openCursor(apiRequest, JSON{
					"fields":       peopleColumns,
					"key_column":   0,
					"keyed_by_row": true,
				})

				// Overlay Alice by position and Carol by row
				apiRequest("POST", byPosition+":move").
					WithBodyJson(JSON{"position": 0}).Do()
				apiRequest("POST", byPosition+":setOverlay").
					WithBodyJson(JSON{"column": 1, "value": "40"}).Do()
				apiRequest("POST", byRow+":move").
					WithBodyJson(JSON{"position": 2}).Do()
				apiRequest("POST", byRow+":setOverlay").
					WithBodyJson(JSON{"column": 1, "value": "50"}).Do()

				// Carol takes the place of Alice
				resp := apiRequest("POST", "/collections/people:remove").
					WithBodyJson(JSON{
						"filter": JSON{"name": "Alice"},
						"limit":  1,
					}).Do()
				biff.AssertEqual(resp.StatusCode, http.StatusOK)

				resp = apiRequest("POST", byPosition+":requery").Do()
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				resp = apiRequest("POST", byRow+":requery").Do()
				biff.AssertEqual(resp.StatusCode, http.StatusOK)

				a.Alternative("Position keyed overlay lands on the new row", func(a *biff.A) {
					apiRequest("POST", byPosition+":move").
						WithBodyJson(JSON{"position": 0}).Do()

					resp := apiRequest("POST", byPosition+":read").Do()
					biff.AssertEqualJson(resp.BodyJson(), []JSON{
						{"name": "name", "value": "Carol", "overlaid": false},
						{"name": "age", "value": 40, "overlaid": true},
						{"name": "score", "value": nil, "overlaid": false},
					})
				})

				a.Alternative("Row keyed overlay follows its row", func(a *biff.A) {
					apiRequest("POST", byRow+":move").
						WithBodyJson(JSON{"position": 0}).Do()

					resp := apiRequest("POST", byRow+":read").Do()
					biff.AssertEqualJson(resp.BodyJson(), []JSON{
						{"name": "name", "value": "Carol", "overlaid": false},
						{"name": "age", "value": 50, "overlaid": true},
						{"name": "score", "value": nil, "overlaid": false},
					})

					apiRequest("POST", byRow+":move").
						WithBodyJson(JSON{"position": 1}).Do()

					resp = apiRequest("POST", byRow+":read").Do()
					biff.AssertEqualJson(resp.BodyJson(), []JSON{
						{"name": "name", "value": "Bob", "overlaid": false},
						{"name": "age", "value": 25, "overlaid": false},
						{"name": "score", "value": 2.25, "overlaid": false},
					})
				})
			})

			a.Alternative("Open cursor with float key", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/people:openCursor").
					WithBodyJson(JSON{
						"fields":     peopleColumns,
						"key_column": 2,
					}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})
		})
	})

	a.Alternative("Open cursor on missing collection", func(a *biff.A) {
		resp := apiRequest("POST", "/collections/nobody:openCursor").
			WithBodyJson(JSON{
				"fields": peopleColumns,
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})

	a.Alternative("Get missing cursor", func(a *biff.A) {
		resp := apiRequest("GET", "/cursors/nothing").Do()

		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})
}
