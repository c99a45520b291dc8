package catalogue

import (
	"encoding/binary"
	"encoding/json"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/lf"
	"github.com/duynguyendang/tripsim/pkg/logger"
	"github.com/klauspost/compress/s2"
	"go.uber.org/zap"
)

// Key layout:
//
//	entryPrefix | seq(8, big endian)  -> s2(json record)
//	namePrefix  | description         -> seq(8)
//	seqKey                            -> badger sequence lease
const (
	entryPrefix byte = 0x10
	namePrefix  byte = 0x20
)

var seqKey = []byte{0xFF, 0x01}

// record is the persisted form of an Entry.
type record struct {
	Description string `json:"description"`
	Rules       string `json:"rules"`
}

// Store persists catalogue entries in badger. Entries are identified by
// description and listed in insertion order.
type Store struct {
	db  *badger.DB
	log *zap.SugaredLogger

	mu  sync.Mutex
	seq *badger.Sequence
}

// Open opens or creates a store.
func Open(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Named("catalogue")
	opts := buildBadgerOptions(cfg)
	opts.Logger = badgerLogger{log}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalogue store %s", cfg.DataDir)
	}
	return &Store{db: db, log: log}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != nil {
		if err := s.seq.Release(); err != nil {
			s.log.Warnw("release sequence", logger.FieldError, err)
		}
		s.seq = nil
	}
	return s.db.Close()
}

// Put stores e, replacing an entry with the same description in place.
func (s *Store) Put(e Entry) error {
	if e.Description == "" {
		return errors.Wrap(errors.ErrInvalidInput, "catalogue entry needs a description")
	}
	if len(e.Rules) == 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "entry %s has no rules", e.Description)
	}
	if err := e.Rules.Validate(); err != nil {
		return errors.Wrapf(err, "entry %s", e.Description)
	}
	data, err := json.Marshal(record{Description: e.Description, Rules: lf.Format(e.Rules)})
	if err != nil {
		return errors.Wrap(err, "encode entry")
	}
	value := s2.Encode(nil, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	var id uint64
	err = s.db.View(func(txn *badger.Txn) error {
		id, err = s.lookupID(txn, e.Description)
		return err
	})
	fresh := errors.Is(err, badger.ErrKeyNotFound)
	switch {
	case fresh:
		if id, err = s.nextID(); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if fresh {
			if err := txn.Set(nameKey(e.Description), encodeID(id)); err != nil {
				return err
			}
		}
		return txn.Set(entryKey(id), value)
	})
}

// Get returns the entry with the given description.
func (s *Store) Get(description string) (Entry, error) {
	var e Entry
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := s.lookupID(txn, description)
		if err != nil {
			return err
		}
		item, err := txn.Get(entryKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			e, err = decodeEntry(v)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, errors.Wrapf(errors.ErrNotFound, "catalogue entry %q", description)
	}
	return e, err
}

// List returns every entry in insertion order.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{entryPrefix}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				e, err := decodeEntry(v)
				if err != nil {
					return errors.Wrapf(err, "entry key %x", it.Item().Key())
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return entries, err
}

// Delete removes the entry with the given description.
func (s *Store) Delete(description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := s.lookupID(txn, description)
		if err != nil {
			return err
		}
		if err := txn.Delete(entryKey(id)); err != nil {
			return err
		}
		return txn.Delete(nameKey(description))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return errors.Wrapf(errors.ErrNotFound, "catalogue entry %q", description)
	}
	return err
}

// PutAll stores entries in order and returns how many were written.
func (s *Store) PutAll(entries []Entry) (int, error) {
	for i, e := range entries {
		if err := s.Put(e); err != nil {
			return i, err
		}
	}
	s.log.Debugw("stored entries", logger.FieldCount, len(entries))
	return len(entries), nil
}

func (s *Store) lookupID(txn *badger.Txn, description string) (uint64, error) {
	item, err := txn.Get(nameKey(description))
	if err != nil {
		return 0, err
	}
	var id uint64
	err = item.Value(func(v []byte) error {
		if len(v) != 8 {
			return errors.AssertionFailedf("name index value has %d bytes", len(v))
		}
		id = binary.BigEndian.Uint64(v)
		return nil
	})
	return id, err
}

// nextID must be called with s.mu held.
func (s *Store) nextID() (uint64, error) {
	if s.seq == nil {
		seq, err := s.db.GetSequence(seqKey, 64)
		if err != nil {
			return 0, errors.Wrap(err, "lease entry sequence")
		}
		s.seq = seq
	}
	return s.seq.Next()
}

func decodeEntry(v []byte) (Entry, error) {
	data, err := s2.Decode(nil, v)
	if err != nil {
		return Entry{}, errors.Wrap(err, "decompress entry")
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Entry{}, errors.Wrap(err, "decode entry")
	}
	rules, err := lf.ParseRules(rec.Rules)
	if err != nil {
		return Entry{}, errors.Wrapf(err, "entry %s", rec.Description)
	}
	return Entry{Description: rec.Description, Rules: rules}, nil
}

func encodeID(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

func entryKey(id uint64) []byte {
	return append([]byte{entryPrefix}, encodeID(id)...)
}

func nameKey(description string) []byte {
	return append([]byte{namePrefix}, description...)
}

// badgerLogger routes badger's logging through zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.Warnf(format, args...)
}
