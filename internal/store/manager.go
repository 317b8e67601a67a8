package store

import (
	"log/slog"
	"sync"
)

// Persister saves and removes collection snapshots on behalf of the
// manager's async worker.
type Persister interface {
	SaveCollection(name string, c *Collection) error
	DeleteCollectionFile(name string) error
}

// saveTask encapsulates a request to persist a collection snapshot.
type saveTask struct {
	name     string
	snapshot *Collection
}

// deleteTask encapsulates a request to remove a collection's file.
type deleteTask struct {
	name string
}

// Manager owns the named collections and a background worker that drains
// persistence requests without blocking callers.
type Manager struct {
	mu          sync.RWMutex
	collections map[string]*Collection

	persister   Persister
	saveQueue   chan saveTask
	deleteQueue chan deleteTask
	quit        chan struct{}
	wg          sync.WaitGroup

	fileLocks   map[string]*sync.Mutex
	fileLocksMu sync.RWMutex
}

// NewManager creates a manager and starts its async persistence worker.
// A nil persister turns every save/delete request into a no-op.
func NewManager(persister Persister) *Manager {
	m := &Manager{
		collections: make(map[string]*Collection),
		persister:   persister,
		saveQueue:   make(chan saveTask, 100),
		deleteQueue: make(chan deleteTask, 10),
		quit:        make(chan struct{}),
		fileLocks:   make(map[string]*sync.Mutex),
	}
	m.startWorker()
	return m
}

func (m *Manager) startWorker() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		slog.Info("Async collection worker started")
		for {
			select {
			case task, ok := <-m.saveQueue:
				if !ok {
					return
				}
				m.runSave(task)
			case task, ok := <-m.deleteQueue:
				if !ok {
					return
				}
				m.runDelete(task)
			case <-m.quit:
				slog.Info("Async worker received quit signal, draining queues")
				for len(m.saveQueue) > 0 {
					m.runSave(<-m.saveQueue)
				}
				for len(m.deleteQueue) > 0 {
					m.runDelete(<-m.deleteQueue)
				}
				slog.Info("Async collection worker stopped")
				return
			}
		}
	}()
}

func (m *Manager) runSave(task saveTask) {
	if m.persister == nil {
		return
	}
	lock := m.fileLock(task.name)
	lock.Lock()
	defer lock.Unlock()
	if err := m.persister.SaveCollection(task.name, task.snapshot); err != nil {
		slog.Error("Error saving collection from async task", "collection", task.name, "error", err)
	}
}

func (m *Manager) runDelete(task deleteTask) {
	if m.persister == nil {
		return
	}
	lock := m.fileLock(task.name)
	lock.Lock()
	defer lock.Unlock()
	if err := m.persister.DeleteCollectionFile(task.name); err != nil {
		slog.Error("Error deleting collection file from async task", "collection", task.name, "error", err)
	}
}

// Wait drains outstanding persistence tasks and stops the worker.
func (m *Manager) Wait() {
	close(m.quit)
	m.wg.Wait()
}

// EnqueueSave snapshots the collection and queues it for persistence. The
// snapshot is detached so no lock is held during file I/O.
func (m *Manager) EnqueueSave(name string, c *Collection) {
	detached := NewCollection()
	detached.ReplaceAll(c.Snapshot())
	detached.SetSchema(c.Schema())

	select {
	case m.saveQueue <- saveTask{name: name, snapshot: detached}:
		slog.Debug("Save task enqueued", "collection", name)
	default:
		slog.Warn("Save queue is full, dropping task", "collection", name)
	}
}

// EnqueueDelete queues removal of a collection's persisted file.
func (m *Manager) EnqueueDelete(name string) {
	select {
	case m.deleteQueue <- deleteTask{name: name}:
		slog.Debug("Delete task enqueued", "collection", name)
	default:
		slog.Warn("Delete queue is full, dropping task", "collection", name)
	}
}

// Get retrieves a collection by name, creating it on first use.
func (m *Manager) Get(name string) *Collection {
	m.mu.RLock()
	col, found := m.collections[name]
	m.mu.RUnlock()
	if found {
		return col
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check in case another goroutine created it while we waited.
	col, found = m.collections[name]
	if found {
		return col
	}

	col = NewCollection()
	m.collections[name] = col
	slog.Info("Collection created", "name", name)
	return col
}

// Delete removes a collection from memory.
func (m *Manager) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.collections[name]; exists {
		delete(m.collections, name)
		slog.Info("Collection deleted from memory", "name", name)
	} else {
		slog.Warn("Attempted to delete non-existent collection", "name", name)
	}
}

// List returns the names of all live collections.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	return names
}

// Exists reports whether a collection is already materialized.
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.collections[name]
	return exists
}

// SaveAll enqueues a snapshot of every live collection.
func (m *Manager) SaveAll() {
	m.mu.RLock()
	snapshot := make(map[string]*Collection, len(m.collections))
	for name, col := range m.collections {
		snapshot[name] = col
	}
	m.mu.RUnlock()

	for name, col := range snapshot {
		m.EnqueueSave(name, col)
	}
}

func (m *Manager) fileLock(name string) *sync.Mutex {
	m.fileLocksMu.RLock()
	lock, exists := m.fileLocks[name]
	m.fileLocksMu.RUnlock()
	if exists {
		return lock
	}

	m.fileLocksMu.Lock()
	defer m.fileLocksMu.Unlock()
	lock, exists = m.fileLocks[name]
	if exists {
		return lock
	}
	lock = &sync.Mutex{}
	m.fileLocks[name] = lock
	return lock
}
