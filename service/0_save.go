package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/fulldump/apitest"

	"github.com/fulldump/mpgfinder/utils"
)

// Save writes a markdown example of the exchange to $API_EXAMPLES_PATH. It does
// nothing when the variable is not set.
func Save(response *apitest.Response, title, description string) {

	examplesPath := os.Getenv("API_EXAMPLES_PATH")
	if examplesPath == "" {
		return
	}

	request := response.Request
	target := request.URL.Path
	if request.URL.RawQuery != "" {
		target += "?" + request.URL.RawQuery
	}
	requestBody := prettyBody(response.BodyRequestString())

	doc := &strings.Builder{}
	fmt.Fprintf(doc, "# %s\n\n", title)
	if description = trimIndent(description); description != "" {
		fmt.Fprintf(doc, "%s\n\n", description)
	}

	doc.WriteString("Curl example:\n\n```sh\ncurl")
	if request.Method != "GET" {
		doc.WriteString(" -X " + request.Method)
	}
	fmt.Fprintf(doc, " \"https://mpg.example.com%s\"", target)
	for _, k := range utils.GetKeys(request.Header) {
		for _, v := range request.Header[k] {
			fmt.Fprintf(doc, " \\\n  -H \"%s: %s\"", k, v)
		}
	}
	if requestBody != "" {
		fmt.Fprintf(doc, " \\\n  --data-binary '%s'", requestBody)
	}
	doc.WriteString("\n```\n\nHTTP request/response example:\n\n```http\n")

	fmt.Fprintf(doc, "%s %s %s\nHost: mpg.example.com\n", request.Method, target, request.Proto)
	for _, k := range utils.GetKeys(request.Header) {
		for _, v := range request.Header[k] {
			fmt.Fprintf(doc, "%s: %s\n", k, v)
		}
	}
	fmt.Fprintf(doc, "\n%s\n\n", requestBody)

	fmt.Fprintf(doc, "%s %s\n", response.Proto, response.Status)
	for _, k := range utils.GetKeys(response.Header) {
		if k == "Date" {
			doc.WriteString("Date: Sun, 18 Oct 2026 10:00:00 GMT\n")
			continue
		}
		for _, v := range response.Header[k] {
			fmt.Fprintf(doc, "%s: %s\n", k, v)
		}
	}
	fmt.Fprintf(doc, "\n%s\n```\n", prettyBody(response.BodyString()))

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".md"
	p := path.Join(examplesPath, path.Clean(filename))
	fmt.Println("Saving", p)
	err := os.WriteFile(p, []byte(doc.String()), 0666)
	if err != nil {
		fmt.Println("Saving err:", err)
	}
}

// prettyBody indents JSON bodies and leaves anything else (CSV) untouched.
func prettyBody(body string) string {
	var i interface{}
	if err := json.Unmarshal([]byte(body), &i); err != nil {
		return strings.TrimRight(body, "\n")
	}
	b, err := json.MarshalIndent(i, "", "    ")
	if err != nil {
		return body
	}
	return string(b)
}

// trimIndent removes the common leading tabs of a raw string literal.
func trimIndent(d string) string {
	lines := strings.Split(strings.Trim(d, "\n"), "\n")

	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, "\t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.TrimSpace(d)
	}

	prefix := strings.Repeat("\t", indent)
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}
