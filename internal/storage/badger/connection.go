package badger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/inveniodev/invenio/internal/common"
)

// gcInterval is how often the value log garbage collector runs while
// the connection is open.
const gcInterval = 10 * time.Minute

// Connection wraps a badgerhold store with lifecycle management for the
// embedded candidate database.
type Connection struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	path   string
	done   chan struct{}
}

// Open opens the candidate database at the configured path. When
// reset_on_startup is set the existing directory is removed first so
// test runs start from a clean store.
func Open(logger arbor.ILogger, config *common.BadgerConfig) (*Connection, error) {
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Debug().Str("path", config.Path).Msg("Removing existing candidate database (reset_on_startup)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to remove candidate database directory")
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Options = badgerdb.DefaultOptions(config.Path).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true)

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open candidate database: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Candidate database opened")

	c := &Connection{
		store:  store,
		logger: logger,
		path:   config.Path,
		done:   make(chan struct{}),
	}
	go c.runGC()

	return c, nil
}

// Store returns the underlying badgerhold store.
func (c *Connection) Store() *badgerhold.Store {
	return c.store
}

// runGC reclaims value log space on a timer until the connection closes.
func (c *Connection) runGC() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing to reclaim.
			if err := c.store.Badger().RunValueLogGC(0.5); err != nil && err != badgerdb.ErrNoRewrite {
				c.logger.Debug().Err(err).Msg("Value log GC pass failed")
			}
		}
	}
}

// Close stops the GC loop and closes the database.
func (c *Connection) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
