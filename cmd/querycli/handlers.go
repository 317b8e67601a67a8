package main

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	jsoniter "github.com/json-iterator/go"

	"query-tools/internal/auth"
	"query-tools/internal/codec"
	"query-tools/internal/document"
	"query-tools/internal/engine"
	"query-tools/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Session carries the shell's state: the live store, the user registry,
// and whoever is currently logged in.
type Session struct {
	Manager  *store.Manager
	Registry *auth.Registry
	User     *auth.UserInfo

	rl *readline.Instance
}

// findRequest is the JSON argument shape of the `find` command. Sort is
// kept raw because its key order carries tie-break precedence.
type findRequest struct {
	Filter     map[string]any      `json:"filter,omitempty"`
	Sort       jsoniter.RawMessage `json:"sort,omitempty"`
	Projection map[string]any      `json:"projection,omitempty"`
	Limit      int                 `json:"limit,omitempty"`
	Skip       int                 `json:"skip,omitempty"`
}

// updateRequest is the JSON argument shape of the `update` command.
type updateRequest struct {
	Filter map[string]any `json:"filter,omitempty"`
	Patch  map[string]any `json:"patch,omitempty"`
}

// Dispatch parses one input line and runs the matching command.
func (s *Session) Dispatch(input string) {
	cmd, args := getCommandAndRawArgs(input)

	switch cmd {
	case "help":
		printHelp()
	case "clear":
		clearScreen()
	case "login":
		s.handleLogin(args)
	case "user create":
		s.handleUserCreate(args)
	case "collection create":
		s.handleCollectionCreate(args)
	case "collection list":
		s.handleCollectionList()
	case "collection delete":
		s.handleCollectionDelete(args)
	case "schema set":
		s.handleSchemaSet(args)
	case "schema get":
		s.handleSchemaGet(args)
	case "insert":
		s.handleInsert(args)
	case "find":
		s.handleFind(args)
	case "count":
		s.handleCount(args)
	case "update":
		s.handleUpdate(args)
	case "delete":
		s.handleDelete(args)
	case "validate":
		s.handleValidate(args)
	case "save":
		s.handleSave()
	default:
		fmt.Println(colorErr(fmt.Sprintf("Unknown command '%s'. Type 'help'.", cmd)))
	}
}

func (s *Session) requirePermission(collection, level string) bool {
	if s.User == nil {
		fmt.Println(colorErr("Not logged in. Use: login <username>"))
		return false
	}
	if collection == auth.SystemCollection && !s.User.IsRoot {
		fmt.Println(colorErr(fmt.Sprintf("UNAUTHORIZED: only root can touch '%s'", auth.SystemCollection)))
		return false
	}
	if !s.User.HasPermission(collection, level) {
		fmt.Println(colorErr(fmt.Sprintf("UNAUTHORIZED: no %s permission for collection '%s'", level, collection)))
		return false
	}
	return true
}

func (s *Session) handleLogin(args string) {
	username := strings.TrimSpace(args)
	if username == "" {
		fmt.Println(colorErr("Usage: login <username>"))
		return
	}
	password, err := s.rl.ReadPassword(colorPrompt("Password: "))
	if err != nil {
		fmt.Println(colorErr("Aborted."))
		return
	}
	user, err := s.Registry.Authenticate(username, string(password))
	if err != nil {
		fmt.Println(colorErr(fmt.Sprintf("Login failed: %v", err)))
		return
	}
	s.User = user
	s.rl.Config.AutoComplete = postLoginCompleter
	fmt.Println(colorOK(fmt.Sprintf("Logged in as '%s'.", username)))
}

func (s *Session) handleUserCreate(args string) {
	if s.User == nil || !s.User.IsRoot {
		fmt.Println(colorErr("UNAUTHORIZED: only root can create users."))
		return
	}
	fields := strings.Fields(args)
	if len(fields) < 1 {
		fmt.Println(colorErr("Usage: user create <username> [collection:level ...]"))
		return
	}
	username := fields[0]
	permissions := make(map[string]string)
	for _, spec := range fields[1:] {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 || (parts[1] != auth.PermissionRead && parts[1] != auth.PermissionWrite) {
			fmt.Println(colorErr(fmt.Sprintf("Bad permission spec '%s' (want collection:read or collection:write).", spec)))
			return
		}
		permissions[parts[0]] = parts[1]
	}
	password, err := s.rl.ReadPassword(colorPrompt("New password: "))
	if err != nil {
		fmt.Println(colorErr("Aborted."))
		return
	}
	if err := s.Registry.Create(username, string(password), false, permissions); err != nil {
		fmt.Println(colorErr(fmt.Sprintf("Failed: %v", err)))
		return
	}
	s.Manager.EnqueueSave(auth.SystemCollection, s.Manager.Get(auth.SystemCollection))
	fmt.Println(colorOK(fmt.Sprintf("User '%s' created.", username)))
}

func (s *Session) handleCollectionCreate(args string) {
	name := strings.TrimSpace(args)
	if name == "" {
		fmt.Println(colorErr("Usage: collection create <name>"))
		return
	}
	if !s.requirePermission(name, auth.PermissionWrite) {
		return
	}
	s.Manager.Get(name)
	fmt.Println(colorOK(fmt.Sprintf("Collection '%s' ready.", name)))
}

func (s *Session) handleCollectionList() {
	if s.User == nil {
		fmt.Println(colorErr("Not logged in."))
		return
	}
	rows := make([][]string, 0)
	for _, name := range s.Manager.List() {
		if name != auth.SystemCollection && !s.User.HasPermission(name, auth.PermissionRead) {
			continue
		}
		rows = append(rows, []string{name, fmt.Sprintf("%d", s.Manager.Get(name).Len())})
	}
	printTable([]string{"Collection", "Documents"}, rows)
}

func (s *Session) handleCollectionDelete(args string) {
	name := strings.TrimSpace(args)
	if name == "" {
		fmt.Println(colorErr("Usage: collection delete <name>"))
		return
	}
	if !s.requirePermission(name, auth.PermissionWrite) {
		return
	}
	if !s.Manager.Exists(name) {
		fmt.Println(colorErr(fmt.Sprintf("Collection '%s' does not exist.", name)))
		return
	}
	s.Manager.Delete(name)
	s.Manager.EnqueueDelete(name)
	fmt.Println(colorOK(fmt.Sprintf("Collection '%s' deleted.", name)))
}

func (s *Session) handleSchemaSet(args string) {
	name, rest := splitCollectionArg(args)
	if name == "" || rest == "" {
		fmt.Println(colorErr("Usage: schema set <collection> <schema-json>"))
		return
	}
	if !s.requirePermission(name, auth.PermissionWrite) {
		return
	}
	var schema map[string]any
	if err := json.Unmarshal([]byte(rest), &schema); err != nil {
		fmt.Println(colorErr(fmt.Sprintf("Invalid schema JSON: %v", err)))
		return
	}
	col := s.Manager.Get(name)
	col.SetSchema(schema)
	s.Manager.EnqueueSave(name, col)
	fmt.Println(colorOK(fmt.Sprintf("Schema attached to '%s'.", name)))
}

func (s *Session) handleSchemaGet(args string) {
	name := strings.TrimSpace(args)
	if name == "" {
		fmt.Println(colorErr("Usage: schema get <collection>"))
		return
	}
	if !s.requirePermission(name, auth.PermissionRead) {
		return
	}
	schema := s.Manager.Get(name).Schema()
	if schema == nil {
		fmt.Println(colorInfo("No schema attached."))
		return
	}
	printJSON(schema)
}

func (s *Session) handleInsert(args string) {
	name, rest := splitCollectionArg(args)
	if name == "" || rest == "" {
		fmt.Println(colorErr("Usage: insert <collection> <document-json | array-json>"))
		return
	}
	if !s.requirePermission(name, auth.PermissionWrite) {
		return
	}
	col := s.Manager.Get(name)

	value := document.ParseValue([]byte(rest))
	switch v := value.(type) {
	case map[string]any:
		id, err := col.Insert(v)
		if err != nil {
			fmt.Println(colorErr(fmt.Sprintf("Insert rejected: %v", err)))
			return
		}
		fmt.Println(colorOK(fmt.Sprintf("Inserted document '%s'.", id)))
	case []any:
		docs := make([]document.Doc, 0, len(v))
		for _, raw := range v {
			obj, ok := raw.(map[string]any)
			if !ok {
				fmt.Println(colorErr("Array inserts require object documents."))
				return
			}
			docs = append(docs, obj)
		}
		ids, err := col.InsertMany(docs)
		if err != nil {
			fmt.Println(colorErr(fmt.Sprintf("Insert rejected after %d documents: %v", len(ids), err)))
			return
		}
		fmt.Println(colorOK(fmt.Sprintf("Inserted %d documents.", len(ids))))
	default:
		fmt.Println(colorErr("Invalid JSON: expected an object or an array of objects."))
		return
	}
	s.Manager.EnqueueSave(name, col)
}

func (s *Session) handleFind(args string) {
	name, rest := splitCollectionArg(args)
	if name == "" {
		fmt.Println(colorErr("Usage: find <collection> [query-json]"))
		return
	}
	if !s.requirePermission(name, auth.PermissionRead) {
		return
	}
	var req findRequest
	if rest != "" {
		if err := json.Unmarshal([]byte(rest), &req); err != nil {
			fmt.Println(colorErr(fmt.Sprintf("Invalid query JSON: %v", err)))
			return
		}
	}
	var order []engine.SortKey
	if len(req.Sort) > 0 {
		order = codec.ParseSortSpec(req.Sort)
	}
	if req.Limit < 0 {
		req.Limit = 0
	}
	if req.Skip < 0 {
		req.Skip = 0
	}
	results := s.Manager.Get(name).Find(req.Filter, order, req.Projection, req.Limit, req.Skip)
	printDocuments(results)
}

func (s *Session) handleCount(args string) {
	name, rest := splitCollectionArg(args)
	if name == "" {
		fmt.Println(colorErr("Usage: count <collection> [filter-json]"))
		return
	}
	if !s.requirePermission(name, auth.PermissionRead) {
		return
	}
	var filter map[string]any
	if rest != "" {
		if err := json.Unmarshal([]byte(rest), &filter); err != nil {
			fmt.Println(colorErr(fmt.Sprintf("Invalid filter JSON: %v", err)))
			return
		}
	}
	n := s.Manager.Get(name).Count(filter)
	fmt.Println(colorOK(fmt.Sprintf("Count: %d", n)))
}

func (s *Session) handleUpdate(args string) {
	name, rest := splitCollectionArg(args)
	if name == "" || rest == "" {
		fmt.Println(colorErr(`Usage: update <collection> {"filter":{...},"patch":{...}}`))
		return
	}
	if !s.requirePermission(name, auth.PermissionWrite) {
		return
	}
	var req updateRequest
	if err := json.Unmarshal([]byte(rest), &req); err != nil {
		fmt.Println(colorErr(fmt.Sprintf("Invalid update JSON: %v", err)))
		return
	}
	col := s.Manager.Get(name)
	modified := col.Update(req.Filter, req.Patch)
	s.Manager.EnqueueSave(name, col)
	fmt.Println(colorOK(fmt.Sprintf("Updated %d documents.", modified)))
}

func (s *Session) handleDelete(args string) {
	name, rest := splitCollectionArg(args)
	if name == "" || rest == "" {
		fmt.Println(colorErr("Usage: delete <collection> <filter-json>"))
		return
	}
	if !s.requirePermission(name, auth.PermissionWrite) {
		return
	}
	var filter map[string]any
	if err := json.Unmarshal([]byte(rest), &filter); err != nil {
		fmt.Println(colorErr(fmt.Sprintf("Invalid filter JSON: %v", err)))
		return
	}
	col := s.Manager.Get(name)
	removed := col.Delete(filter)
	s.Manager.EnqueueSave(name, col)
	fmt.Println(colorOK(fmt.Sprintf("Deleted %d documents.", removed)))
}

func (s *Session) handleValidate(args string) {
	name, rest := splitCollectionArg(args)
	if name == "" || rest == "" {
		fmt.Println(colorErr("Usage: validate <collection> <document-json>"))
		return
	}
	if !s.requirePermission(name, auth.PermissionRead) {
		return
	}
	schema := s.Manager.Get(name).Schema()
	if schema == nil {
		fmt.Println(colorInfo("No schema attached; every document is valid."))
		return
	}
	if engine.Validate(document.ParseValue([]byte(rest)), schema) {
		fmt.Println(colorOK("Valid."))
	} else {
		fmt.Println(colorErr("Invalid: document violates the collection schema."))
	}
}

func (s *Session) handleSave() {
	if s.User == nil {
		fmt.Println(colorErr("Not logged in."))
		return
	}
	s.Manager.SaveAll()
	fmt.Println(colorOK("Snapshot of all collections enqueued."))
}

// splitCollectionArg splits "<collection> <rest>" into its parts.
func splitCollectionArg(args string) (string, string) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", ""
	}
	parts := strings.SplitN(args, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
