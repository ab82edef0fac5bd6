package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Dir     string
	Redis   RedisConfig
	Mongo   MongoConfig
	// Prefix, when set, wraps the backend in a Scoped store.
	Prefix string
}

// Open creates the backend named by opts.Backend. An empty name selects
// the memory backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Backend {
	case "", BackendMemory:
		s = NewMemory()
	case BackendFile:
		s, err = NewFile(opts.Dir)
	case BackendRedis:
		s, err = NewRedis(ctx, opts.Redis)
	case BackendMongo:
		s, err = NewMongo(ctx, opts.Mongo)
	case BackendNone:
		s = NewNull()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if opts.Prefix != "" {
		s = NewScoped(s, opts.Prefix)
	}
	return s, nil
}
