package storage

import (
	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/common"
	"github.com/inveniodev/invenio/internal/interfaces"
	"github.com/inveniodev/invenio/internal/storage/badger"
)

// NewEventStore opens the configured event database and returns the store
// backing both persistence of admitted candidates and the local fallback
// provider.
func NewEventStore(logger arbor.ILogger, config *common.Config) (interfaces.EventStore, error) {
	db, err := badger.Open(logger, &config.Storage.Badger)
	if err != nil {
		return nil, err
	}
	return badger.NewEventStorage(db, logger), nil
}
