package service

import (
	"encoding/json"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/fulldump/apitest"
)

// Save writes a markdown example of a request and its response into the
// directory named by API_EXAMPLES_PATH. It does nothing if the variable is not
// set.
func Save(response *apitest.Response, title, description string) {

	examplesPath := os.Getenv("API_EXAMPLES_PATH")
	if examplesPath == "" {
		return
	}

	request := response.Request

	query := request.URL.RawQuery
	if query != "" {
		query = "?" + query
	}

	s := &strings.Builder{}

	s.WriteString("# " + title + "\n")
	s.WriteString(cropTabs(description) + "\n")

	s.WriteString("```http\n")
	s.WriteString(request.Method + " " + request.URL.Path + query + " " + request.Proto + "\n")
	s.WriteString("Host: example.com\n")
	for k, l := range request.Header {
		for _, v := range l {
			s.WriteString(k + ": " + v + "\n")
		}
	}
	s.WriteString("\n")
	s.WriteString(formatJSON(response.BodyRequestString()) + "\n\n")

	s.WriteString(response.Proto + " " + response.Status + "\n")
	headerKeys := []string{}
	for k := range response.Header {
		if k == "Date" {
			continue
		}
		headerKeys = append(headerKeys, k)
	}
	sort.Strings(headerKeys)
	for _, k := range headerKeys {
		for _, v := range response.Header[k] {
			s.WriteString(k + ": " + v + "\n")
		}
	}
	s.WriteString("\n")
	s.WriteString(formatJSON(response.BodyString()) + "\n")
	s.WriteString("```\n")

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".md"
	p := path.Join(examplesPath, path.Clean(filename))
	err := os.WriteFile(p, []byte(s.String()), 0666)
	if err != nil {
		slog.Error("save example", "path", p, "error", err)
	}
}

// formatJSON indents body when it is a single JSON value
func formatJSON(body string) string {

	var i interface{}

	err := json.Unmarshal([]byte(body), &i)
	if err != nil {
		return body
	}

	bytes, err := json.MarshalIndent(i, "", "    ")
	if err != nil {
		return body
	}

	return string(bytes)
}

// cropTabs removes the indentation shared by every non blank line
func cropTabs(d string) string {

	lines := strings.Split(d, "\n")

	minTabs := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tabs := len(line) - len(strings.TrimLeft(line, "\t"))
		if minTabs < 0 || tabs < minTabs {
			minTabs = tabs
		}
	}
	if minTabs <= 0 {
		return strings.TrimSpace(d)
	}

	prefix := strings.Repeat("\t", minTabs)
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
