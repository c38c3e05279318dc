package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
)

var stdout io.Writer = os.Stdout

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		return
	}
	fmt.Fprintln(stdout, string(data))
}

// printRaw pretty-prints a raw JSON response body.
func printRaw(body []byte) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		fmt.Fprintln(stdout, string(body))
		return
	}
	printJSON(raw)
}

func printTable(headers []string, rows [][]string) {
	table := tablewriter.NewWriter(stdout)

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	table.Header(header...)

	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

func printMessage(msg string) {
	fmt.Fprintln(stdout, msg)
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
