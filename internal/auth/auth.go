// Package auth manages user accounts and per-collection permissions.
// Accounts live as documents in the reserved `_system` collection, so they
// survive through the same snapshot path as everything else.
package auth

import (
	"fmt"
	"log/slog"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/bcrypt"

	"query-tools/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// SystemCollection is the reserved collection holding user accounts.
	SystemCollection = "_system"
	// UserPrefix namespaces account documents inside the system collection.
	UserPrefix = "user:"

	PermissionRead  = "read"
	PermissionWrite = "write"
)

// UserInfo is one stored account. Permissions map a collection name (or
// "*" for all collections) to "read" or "write"; write implies read.
type UserInfo struct {
	Username     string            `json:"username"`
	PasswordHash string            `json:"password_hash"`
	IsRoot       bool              `json:"is_root,omitempty"`
	Permissions  map[string]string `json:"permissions,omitempty"`
}

// HasPermission reports whether the user may access a collection at the
// required level. Root bypasses all checks.
func (u *UserInfo) HasPermission(collection, required string) bool {
	if u.IsRoot {
		return true
	}
	level, found := u.Permissions[collection]
	if !found {
		level, found = u.Permissions["*"]
	}
	if !found {
		return false
	}
	if required == PermissionRead && level == PermissionWrite {
		return true
	}
	return level == required
}

// Registry reads and writes accounts in the system collection.
type Registry struct {
	system *store.Collection
}

func NewRegistry(system *store.Collection) *Registry {
	return &Registry{system: system}
}

// Bootstrap creates the root user on first run. Existing accounts are
// never overwritten.
func (r *Registry) Bootstrap(rootPassword string) error {
	if _, found := r.lookup("root"); found {
		return nil
	}
	if err := r.Create("root", rootPassword, true, nil); err != nil {
		return fmt.Errorf("failed to bootstrap root user: %w", err)
	}
	slog.Info("Root user bootstrapped")
	return nil
}

// Create adds a new account with a bcrypt-hashed password.
func (r *Registry) Create(username, password string, isRoot bool, permissions map[string]string) error {
	if username == "" || password == "" {
		return fmt.Errorf("username and password cannot be empty")
	}
	if _, found := r.lookup(username); found {
		return fmt.Errorf("user '%s' already exists", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	info := UserInfo{
		Username:     username,
		PasswordHash: string(hash),
		IsRoot:       isRoot,
		Permissions:  permissions,
	}
	doc, err := toDoc(info)
	if err != nil {
		return err
	}
	doc["_id"] = UserPrefix + username
	if _, err := r.system.Insert(doc); err != nil {
		return fmt.Errorf("failed to store user '%s': %w", username, err)
	}
	slog.Info("User created", "username", username, "is_root", isRoot)
	return nil
}

// Authenticate verifies a username/password pair and returns the account.
func (r *Registry) Authenticate(username, password string) (*UserInfo, error) {
	info, found := r.lookup(username)
	if !found {
		slog.Warn("Authentication failed", "reason", "user not found", "username", username)
		return nil, fmt.Errorf("invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(info.PasswordHash), []byte(password)); err != nil {
		slog.Warn("Authentication failed", "reason", "invalid password", "username", username)
		return nil, fmt.Errorf("invalid username or password")
	}
	slog.Info("User authenticated", "username", username)
	return info, nil
}

// SetPassword replaces an existing user's password hash.
func (r *Registry) SetPassword(username, password string) error {
	if _, found := r.lookup(username); !found {
		return fmt.Errorf("user '%s' does not exist", username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	r.system.Update(
		map[string]any{"_id": UserPrefix + username},
		map[string]any{"password_hash": string(hash)},
	)
	slog.Info("User password updated", "username", username)
	return nil
}

func (r *Registry) lookup(username string) (*UserInfo, bool) {
	results := r.system.Find(map[string]any{"_id": UserPrefix + username}, nil, nil, 1, 0)
	if len(results) == 0 {
		return nil, false
	}
	doc, ok := results[0].(map[string]any)
	if !ok {
		return nil, false
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, false
	}
	var info UserInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, false
	}
	return &info, true
}

func toDoc(info UserInfo) (map[string]any, error) {
	raw, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user info: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to build user document: %w", err)
	}
	return doc, nil
}
