// ABOUTME: Charm KV client wrapper for patient record storage.
// ABOUTME: Provides thread-safe initialization and automatic cloud sync.
package charm

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/harperreed/clinic/internal/models"
)

const (
	DBName = "clinic"
	Host   = "charm.2389.dev"

	PatientPrefix = "patient:"
	ChangesPrefix = "changes:"
	AllocKey      = "alloc:patient"
)

var (
	globalClient *Client
	clientOnce   sync.Once
	clientErr    error
)

// Client wraps a Charm KV database holding patient records. All writes are
// serialized through the mutex, so each logical mutation (record + audit
// entry + allocator) commits without interleaving.
type Client struct {
	kv       *kv.KV
	autoSync bool
	mu       sync.RWMutex

	// now supplies epoch-millisecond timestamps; swapped out in tests.
	now func() uint64
}

// InitClient initializes the global Charm client.
// Thread-safe; can be called multiple times.
func InitClient() (*Client, error) {
	clientOnce.Do(func() {
		// Set server before opening KV
		if err := os.Setenv("CHARM_HOST", Host); err != nil {
			clientErr = err
			return
		}

		db, err := kv.OpenWithDefaultsFallback(DBName)
		if err != nil {
			clientErr = err
			return
		}

		globalClient = &Client{
			kv:       db,
			autoSync: true,
			now:      models.NowMillis,
		}

		// Pull remote data on startup (skip in read-only mode)
		if !db.IsReadOnly() {
			_ = db.Sync()
		}
	})

	return globalClient, clientErr
}

// GetClient returns the global client, initializing if needed.
func GetClient() (*Client, error) {
	return InitClient()
}

// Close closes the KV database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		return c.kv.Close()
	}
	return nil
}

// IsReadOnly returns true if the database is open in read-only mode.
// This happens when another process (like an MCP server) holds the lock.
func (c *Client) IsReadOnly() bool {
	return c.kv.IsReadOnly()
}

// Sync synchronizes local state with Charm Cloud.
func (c *Client) Sync() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.kv.IsReadOnly() {
		return nil
	}
	return c.kv.Sync()
}

// syncIfEnabled calls Sync if autoSync is enabled. Callers must hold mu.
func (c *Client) syncIfEnabled() {
	if c.autoSync && !c.kv.IsReadOnly() {
		_ = c.kv.Sync()
	}
}

// SetAutoSync enables or disables automatic sync after writes.
func (c *Client) SetAutoSync(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoSync = enabled
}

// ID returns the Charm user ID for the current account.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("create charm client: %w", err)
	}
	return cc.ID()
}

// Wipe resets the local database, discarding records, history, and the
// allocator high-water mark.
func (c *Client) Wipe() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

// checkWritable returns an error when the database is locked read-only.
// Callers must hold mu.
func (c *Client) checkWritable() error {
	if c.kv.IsReadOnly() {
		return fmt.Errorf("cannot write: database is locked by another process (MCP server?)")
	}
	return nil
}

// get fetches one key. Callers must hold mu (read or write).
func (c *Client) get(key string) ([]byte, error) {
	return c.kv.Get([]byte(key))
}

// exists reports whether a key is present. Callers must hold mu.
func (c *Client) exists(key string) (bool, error) {
	keys, err := c.kv.Keys()
	if err != nil {
		return false, err
	}
	keyBytes := []byte(key)
	for _, k := range keys {
		if bytes.Equal(k, keyBytes) {
			return true, nil
		}
	}
	return false, nil
}

// keysWithPrefix returns all keys matching the prefix in ascending order.
// Callers must hold mu.
func (c *Client) keysWithPrefix(prefix string) ([]string, error) {
	keys, err := c.kv.Keys()
	if err != nil {
		return nil, err
	}

	prefixBytes := []byte(prefix)
	var matches []string
	for _, key := range keys {
		if bytes.HasPrefix(key, prefixBytes) {
			matches = append(matches, string(key))
		}
	}
	return matches, nil
}
