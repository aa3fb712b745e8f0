package storage

import (
	"context"
	"fmt"
)

// Gateway is the durable key/value store the ledger reads at startup and
// writes after every mutation. Serialization is the ledger's concern; the
// gateway stores opaque bytes.
type Gateway interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type pgConfig interface {
	Host() string
	Port() int
	Username() string
	Password() string
	Database() string
}

type sqliteConfig interface {
	Path() string
}

// New selects the gateway implementation for the configured backend.
func New(backend string, pg pgConfig, lite sqliteConfig) (Gateway, error) {
	switch backend {
	case "memory":
		return NewInMemGateway(), nil
	case "sqlite":
		return NewSQLiteGateway(lite)
	case "postgres":
		return NewPostgresGateway(pg)
	}
	return nil, fmt.Errorf("unsupported storage backend: %s", backend)
}
