package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/cfoust/dipwatch/pkg/codec"
	"github.com/cfoust/dipwatch/pkg/game"

	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

const (
	GAME_SNAPSHOTS_FORMAT = "%d-snapshots.%s"
	LEGACY_SNAPSHOTS_FILE = "snapshots.json"
)

var GAME_SNAPSHOTS_REGEX = regexp.MustCompile(`^(\d+)-snapshots\.(json|cbor)$`)

// FSStore keeps one file per game in a directory. Every append rewrites
// the whole file.
type FSStore struct {
	dir   string
	codec *codec.Codec
	mutex deadlock.Mutex
}

func NewFSStore(dir string, c *codec.Codec) (*FSStore, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, err
	}

	return &FSStore{
		dir:   dir,
		codec: c,
	}, nil
}

func FileExists(path string) bool {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return true
	}
	return false
}

// WriteBytes replaces the file at path without ever leaving it half
// written.
func WriteBytes(data []byte, path string) error {
	out, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(out.Name())

	_, err = out.Write(data)
	if err != nil {
		out.Close()
		return err
	}

	err = out.Close()
	if err != nil {
		return err
	}

	return os.Rename(out.Name(), path)
}

func (f *FSStore) getPath(gameID int) string {
	return filepath.Join(f.dir, fmt.Sprintf(GAME_SNAPSHOTS_FORMAT, gameID, f.codec.Format()))
}

func (f *FSStore) readRecords(gameID int) ([][]byte, error) {
	target := f.getPath(gameID)
	if !FileExists(target) {
		return nil, nil
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}

	records, err := f.codec.SplitList(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrCorrupt, target, err)
	}
	return records, nil
}

func (f *FSStore) writeRecords(gameID int, records [][]byte) error {
	data, err := f.codec.EncodeList(records)
	if err != nil {
		return err
	}
	return WriteBytes(data, f.getPath(gameID))
}

func (f *FSStore) Games(ctx context.Context) ([]int, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}

	var games []int
	for _, entry := range entries {
		match := GAME_SNAPSHOTS_REGEX.FindStringSubmatch(entry.Name())
		if match == nil || match[2] != string(f.codec.Format()) {
			continue
		}

		id, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		games = append(games, id)
	}

	sort.Ints(games)
	return games, nil
}

func (f *FSStore) Snapshots(ctx context.Context, gameID int) ([]game.Snapshot, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	records, err := f.readRecords(gameID)
	if err != nil {
		return nil, err
	}
	return decodeRecords(f.codec, gameID, records), nil
}

func (f *FSStore) Latest(ctx context.Context, gameID int) (opt.Option[game.Snapshot], error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	records, err := f.readRecords(gameID)
	if err != nil {
		return opt.None[game.Snapshot](), err
	}
	return latestRecord(f.codec, gameID, records), nil
}

func (f *FSStore) Append(ctx context.Context, gameID int, snapshot game.Snapshot) error {
	record, err := f.codec.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	// Unreadable records are carried over untouched
	records, err := f.readRecords(gameID)
	if err != nil {
		return err
	}

	records = append(records, record)
	err = f.writeRecords(gameID, records)
	if err != nil {
		return err
	}

	log.Debug().
		Int("game", gameID).
		Int("snapshots", len(records)).
		Msg("saved snapshots")
	return nil
}

// MigrateLegacy moves snapshots out of the old single file, which maps
// game ids to lists of snapshots, into per-game files and then deletes
// it. It returns the number of snapshots migrated.
func (f *FSStore) MigrateLegacy(ctx context.Context) (int, error) {
	legacyPath := filepath.Join(f.dir, LEGACY_SNAPSHOTS_FILE)
	if !FileExists(legacyPath) {
		return 0, nil
	}

	log.Info().Str("path", legacyPath).Msg("found legacy snapshots file")

	data, err := os.ReadFile(legacyPath)
	if err != nil {
		return 0, err
	}

	var legacy map[string]json.RawMessage
	err = json.Unmarshal(data, &legacy)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s", ErrCorrupt, legacyPath, err)
	}

	// The legacy file is always JSON
	legacyCodec, err := codec.New(codec.FormatJSON, f.codec.Options())
	if err != nil {
		return 0, err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	total := 0
	for key, value := range legacy {
		gameID, err := strconv.Atoi(key)
		if err != nil {
			log.Warn().Str("key", key).Msg("skipping legacy entry with invalid game id")
			continue
		}

		records, err := legacyCodec.SplitList(value)
		if err != nil {
			log.Warn().Err(err).Int("game", gameID).Msg("skipping unreadable legacy game")
			continue
		}

		migrated := decodeRecords(legacyCodec, gameID, records)

		existing, err := f.readRecords(gameID)
		if err != nil {
			return total, err
		}
		current := decodeRecords(f.codec, gameID, existing)

		merged := append(migrated, current...)
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].Before(merged[j])
		})

		encoded := make([][]byte, 0, len(merged))
		for _, snapshot := range merged {
			record, err := f.codec.EncodeSnapshot(snapshot)
			if err != nil {
				return total, err
			}
			encoded = append(encoded, record)
		}

		err = f.writeRecords(gameID, encoded)
		if err != nil {
			return total, err
		}

		log.Info().
			Int("game", gameID).
			Int("snapshots", len(migrated)).
			Msg("migrated legacy snapshots")
		total += len(migrated)
	}

	err = os.Remove(legacyPath)
	if err != nil {
		return total, err
	}

	log.Info().Str("path", legacyPath).Msg("deleted legacy snapshots file")
	return total, nil
}

var _ Store = (*FSStore)(nil)
