package catalogue

import (
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
)

// Resource profiles for the badger backend.
const (
	ProfileServing = "serving"
	ProfileLowMem  = "low-mem"
	ProfileImport  = "import"
)

// Config holds the configuration of a catalogue store.
type Config struct {
	// DataDir is the directory holding the store. Ignored when InMemory.
	DataDir string

	// InMemory keeps everything in memory; used by tests.
	InMemory bool

	// ReadOnly opens an existing store without write access.
	ReadOnly bool

	// BypassLockGuard lets several processes open the same directory.
	BypassLockGuard bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Compression enables ZSTD at the table level. Values are S2-compressed
	// regardless.
	Compression bool

	BlockCacheSize int64
	IndexCacheSize int64

	// MemTableSize overrides badger's default when positive.
	MemTableSize int64

	// Profile is one of the Profile constants. Empty means ProfileServing.
	Profile string
}

// DefaultConfig returns a configuration sized for a catalogue of templates,
// which is tiny next to what badger is tuned for.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		DataDir:        dataDir,
		Compression:    true,
		BlockCacheSize: 16 << 20,
		IndexCacheSize: 8 << 20,
		Profile:        ProfileServing,
	}
}

// InMemoryConfig returns a configuration for an in-memory store.
func InMemoryConfig() *Config {
	cfg := DefaultConfig("")
	cfg.InMemory = true
	return cfg
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return errors.Wrap(errors.ErrInvalidInput, "DataDir must be specified when InMemory is false")
	}
	if c.InMemory && c.ReadOnly {
		return errors.Wrap(errors.ErrInvalidInput, "an in-memory store cannot be read-only")
	}
	if c.BlockCacheSize <= 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "BlockCacheSize must be positive, got %d", c.BlockCacheSize)
	}
	if c.IndexCacheSize <= 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "IndexCacheSize must be positive, got %d", c.IndexCacheSize)
	}
	switch c.Profile {
	case "", ProfileServing, ProfileLowMem, ProfileImport:
	default:
		return errors.Wrapf(errors.ErrInvalidInput, "unknown profile %q", c.Profile)
	}
	return nil
}

func buildBadgerOptions(cfg *Config) badger.Options {
	if cfg.InMemory {
		opts := badger.DefaultOptions("")
		opts.InMemory = true
		return opts
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.DataDir, "badger"))
	opts.BypassLockGuard = cfg.BypassLockGuard
	opts.ReadOnly = cfg.ReadOnly
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.ZSTD
	} else {
		opts.Compression = options.None
	}

	switch cfg.Profile {
	case ProfileLowMem:
		opts.ValueLogFileSize = 16 << 20
		opts.NumCompactors = 2
	case ProfileImport:
		opts.ValueLogFileSize = 256 << 20
		opts.NumCompactors = 4
	default:
		opts.ValueLogFileSize = 64 << 20
		opts.NumCompactors = 2
	}

	opts.BlockCacheSize = cfg.BlockCacheSize
	opts.IndexCacheSize = cfg.IndexCacheSize
	if cfg.MemTableSize > 0 {
		opts.MemTableSize = cfg.MemTableSize
	}
	return opts
}
