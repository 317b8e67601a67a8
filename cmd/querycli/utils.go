package main

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Color definitions for the interface
var (
	colorOK     = color.New(color.FgGreen, color.Bold).SprintFunc()
	colorErr    = color.New(color.FgRed, color.Bold).SprintFunc()
	colorPrompt = color.New(color.FgMagenta).SprintFunc()
	colorInfo   = color.New(color.FgBlue).SprintFunc()
)

// getCommandAndRawArgs parses user input into a command and its arguments.
func getCommandAndRawArgs(input string) (string, string) {
	// Multi-word commands, longest first so prefixes don't shadow them.
	multiWordCommands := []string{
		"collection create", "collection delete", "collection list",
		"schema set", "schema get",
		"user create",
	}
	for _, mwCmd := range multiWordCommands {
		if strings.HasPrefix(input, mwCmd+" ") || input == mwCmd {
			return mwCmd, strings.TrimSpace(input[len(mwCmd):])
		}
	}

	parts := strings.SplitN(input, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

// printDocuments renders a result set as a table when possible, falling
// back to pretty-printed JSON.
func printDocuments(docs []any) {
	if len(docs) == 0 {
		fmt.Println(colorInfo("(no results)"))
		return
	}

	headerSet := make(map[string]bool)
	rowsAreObjects := true
	for _, raw := range docs {
		obj, ok := raw.(map[string]any)
		if !ok {
			rowsAreObjects = false
			break
		}
		for key := range obj {
			headerSet[key] = true
		}
	}
	if !rowsAreObjects {
		printJSON(docs)
		return
	}

	headers := make([]string, 0, len(headerSet))
	for key := range headerSet {
		headers = append(headers, key)
	}
	sort.Strings(headers)

	rows := make([][]string, 0, len(docs))
	for _, raw := range docs {
		obj := raw.(map[string]any)
		row := make([]string, len(headers))
		for i, header := range headers {
			val, ok := obj[header]
			if !ok {
				row[i] = "(n/a)"
				continue
			}
			switch v := val.(type) {
			case map[string]any, []any:
				jsonVal, _ := json.Marshal(v)
				row[i] = string(jsonVal)
			case nil:
				row[i] = "(nil)"
			default:
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		rows = append(rows, row)
	}
	printTable(headers, rows)
	fmt.Println(colorInfo(fmt.Sprintf("%d document(s)", len(docs))))
}

func printTable(headers []string, rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

func printJSON(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		fmt.Println(colorErr(fmt.Sprintf("Could not render value: %v", err)))
		return
	}
	var pretty bytes.Buffer
	if err := stdjson.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(pretty.String())
}

// clearScreen clears the terminal screen.
func clearScreen() {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", "cls")
	} else {
		cmd = exec.Command("clear")
	}
	cmd.Stdout = os.Stdout
	cmd.Run()
}

func printHelp() {
	fmt.Println(colorInfo(`Commands:
  login <username>                          authenticate
  user create <name> [coll:level ...]       create a user (root only)
  collection create <name>                  create a collection
  collection list                           list collections you can read
  collection delete <name>                  drop a collection
  schema set <collection> <schema-json>     attach a validation schema
  schema get <collection>                   show the attached schema
  insert <collection> <doc | [docs]>        insert one or many documents
  find <collection> [query-json]            query; query-json supports
                                            filter, sort, projection, limit, skip
  count <collection> [filter-json]          count matching documents
  update <collection> {"filter":..,"patch":..}  merge a patch into matches
  delete <collection> <filter-json>         remove matching documents
  validate <collection> <doc-json>          check a document against the schema
  save                                      snapshot all collections now
  clear, help, exit`))
}
