package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Keys of the persisted single-user state.
const (
	KeyIndustry     = "finhealth_ind"
	KeyLanguage     = "finhealth_lang"
	KeyHistory      = "sme_db"
	KeyIntegrations = "finhealth_int"
	KeyLastInput    = "finhealth_last"
)

const schemaVersion = 1

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrNotFound    = errors.New("not found")
)

// Store is a byte-oriented key/value backend. Implementations must be safe
// for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type envelope struct {
	Version   int             `json:"version"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Data      json.RawMessage `json:"data"`
}

// errStaleSchema marks a stored value written by an incompatible version.
var errStaleSchema = errors.New("unsupported schema version")

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return json.Marshal(envelope{Version: schemaVersion, UpdatedAt: time.Now().UTC(), Data: data})
}

func decode(raw []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if env.Version != schemaVersion {
		return fmt.Errorf("%w: %d", errStaleSchema, env.Version)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

// load reads key into v. found is false when the key is absent or holds a
// value from another schema version; both cases are treated as "no data".
func load(ctx context.Context, s Store, key string, v any) (found bool, err error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := decode(raw, v); err != nil {
		if errors.Is(err, errStaleSchema) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func save(ctx context.Context, s Store, key string, v any) error {
	raw, err := encode(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, raw)
}
