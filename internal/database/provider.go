package database

import (
	"context"
	"fmt"
	"sync"
)

var (
	entryReader  func() EntryReader
	entryWriter  func() EntryWriter
	backendName  string
	initialized  bool
	registryLock sync.RWMutex
)

// RegisterEntryBackend registers the active entry store.
// This is called by the backend packages to avoid import cycles.
func RegisterEntryBackend(name string, reader func() EntryReader, writer func() EntryWriter) {
	registryLock.Lock()
	defer registryLock.Unlock()
	entryReader = reader
	entryWriter = writer
	backendName = name
	initialized = true
}

// IsInitialized returns whether an entry backend has been registered.
func IsInitialized() bool {
	registryLock.RLock()
	defer registryLock.RUnlock()
	return initialized
}

// BackendName returns the name of the registered backend ("postgres", "sqlite", ...).
func BackendName() string {
	registryLock.RLock()
	defer registryLock.RUnlock()
	return backendName
}

// GetEntryReader returns an EntryReader from the registered backend
func GetEntryReader(ctx context.Context) (EntryReader, error) {
	registryLock.RLock()
	defer registryLock.RUnlock()
	if !initialized {
		return nil, fmt.Errorf("entry store not initialized: DATABASE_URL, MARIADB_DSN or SQLITE_PATH is required")
	}
	if entryReader == nil {
		return nil, fmt.Errorf("%s entry reader not registered", backendName)
	}
	return entryReader(), nil
}

// GetEntryWriter returns an EntryWriter from the registered backend
func GetEntryWriter(ctx context.Context) (EntryWriter, error) {
	registryLock.RLock()
	defer registryLock.RUnlock()
	if !initialized {
		return nil, fmt.Errorf("entry store not initialized: DATABASE_URL, MARIADB_DSN or SQLITE_PATH is required")
	}
	if entryWriter == nil {
		return nil, fmt.Errorf("%s entry writer not registered", backendName)
	}
	return entryWriter(), nil
}

// ResetForTesting clears the registered backend.
func ResetForTesting() {
	registryLock.Lock()
	defer registryLock.Unlock()
	entryReader = nil
	entryWriter = nil
	backendName = ""
	initialized = false
}
