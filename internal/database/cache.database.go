package database

import (
	"fmt"

	"stayops/config"

	"github.com/valkey-io/valkey-go"
)

// Valkey database index organization. Separate indexes keep token material
// out of the general keyspace and let the whole occupancy projection cache
// be flushed without touching anything else.
const (
	// GENERAL_CACHE_INDEX (DB 0) - miscellaneous cache operations
	GENERAL_CACHE_INDEX = iota

	// TOKEN_CACHE_INDEX (DB 1) - scoped token verification lookups
	TOKEN_CACHE_INDEX

	// OCCUPANCY_CACHE_INDEX (DB 2) - per-guest occupancy projections
	OCCUPANCY_CACHE_INDEX
)

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")
	log.Info("initializing cache database")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		return log.Error("cache address or port is empty")
	}

	initAddress := []string{fmt.Sprintf("%s:%d", address, port)}

	var cacheDB Cache
	var err error

	cacheDB.General, err = valkey.NewClient(valkey.ClientOption{
		InitAddress: initAddress,
		SelectDB:    GENERAL_CACHE_INDEX,
	})
	if err != nil {
		return log.Err("failed to create general valkey client", err)
	}

	cacheDB.Token, err = valkey.NewClient(valkey.ClientOption{
		InitAddress: initAddress,
		SelectDB:    TOKEN_CACHE_INDEX,
	})
	if err != nil {
		return log.Err("failed to create token valkey client", err)
	}

	cacheDB.Occupancy, err = valkey.NewClient(valkey.ClientOption{
		InitAddress: initAddress,
		SelectDB:    OCCUPANCY_CACHE_INDEX,
	})
	if err != nil {
		return log.Err("failed to create occupancy valkey client", err)
	}

	s.Cache = cacheDB

	return nil
}
