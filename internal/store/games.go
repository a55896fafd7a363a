package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/maps"

	"github.com/magnanimus/magnanimus/internal/position"
)

// ErrNotFound is returned when no game is saved under an id.
var ErrNotFound = errors.New("not found")

// ErrBadID is returned for ids that cannot name a file.
var ErrBadID = errors.New("bad game id")

const gameExt = ".json.zst"

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// GameStore saves and loads game states in a directory.
type GameStore struct {
	dir string

	// one lock per id keeps concurrent saves of the same game ordered
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	log func(format string, args ...any)
}

// NewGameStore creates dir if needed and opens a store in it.
func NewGameStore(dir string) (*GameStore, error) {
	if dir == "" {
		return nil, errors.New("store dir is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &GameStore{
		dir:     dir,
		locks:   make(map[string]*sync.Mutex),
		encoder: encoder,
		decoder: decoder,
		log:     func(format string, args ...any) {},
	}, nil
}

// SetLogger sets a logging function
func (s *GameStore) SetLogger(log func(format string, args ...any)) {
	if log != nil {
		s.log = log
	}
}

// Close releases the codecs.
func (s *GameStore) Close() error {
	s.decoder.Close()
	return s.encoder.Close()
}

// Dir returns the directory the store writes to.
func (s *GameStore) Dir() string { return s.dir }

func (s *GameStore) lock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	return mu
}

func (s *GameStore) path(id string) (string, error) {
	if !idPattern.MatchString(id) {
		return "", fmt.Errorf("%q: %w", id, ErrBadID)
	}
	return filepath.Join(s.dir, id+gameExt), nil
}

// Save writes st under id, replacing any earlier save.
func (s *GameStore) Save(id string, st position.State) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", id, err)
	}
	compressed := s.encoder.EncodeAll(raw, nil)

	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0644); err != nil {
		return fmt.Errorf("write game %s: %w", id, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit game %s: %w", id, err)
	}
	s.log("saved game %s: %d moves, %d -> %d bytes", id, len(st.Moves), len(raw), len(compressed))
	return nil
}

// Load reads the state saved under id.
func (s *GameStore) Load(id string) (position.State, error) {
	var st position.State
	path, err := s.path(id)
	if err != nil {
		return st, err
	}
	compressed, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, fmt.Errorf("game %s: %w", id, ErrNotFound)
		}
		return st, fmt.Errorf("read game %s: %w", id, err)
	}
	raw, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return st, fmt.Errorf("decompress game %s: %w", id, err)
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return st, fmt.Errorf("decode game %s: %w", id, err)
	}
	return st, nil
}

// Delete removes the game saved under id.
func (s *GameStore) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("game %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	return nil
}

// List returns the saved ids in sorted order.
func (s *GameStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	ids := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, gameExt) {
			continue
		}
		id := strings.TrimSuffix(name, gameExt)
		if idPattern.MatchString(id) {
			ids[id] = struct{}{}
		}
	}
	out := maps.Keys(ids)
	slices.Sort(out)
	return out, nil
}
