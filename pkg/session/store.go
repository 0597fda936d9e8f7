package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-formwizard/pkg/step"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// ErrNotFound is returned by Store.Load for unknown or expired sessions.
var ErrNotFound = errors.New("session: not found")

// Store persists session snapshots by id.
type Store interface {
	Load(ctx context.Context, id string) (wizard.SessionSnapshot, error)
	Save(ctx context.Context, id string, snap wizard.SessionSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

func encodeSnapshot(snap wizard.SessionSnapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("session: encode: %w", err)
	}
	return raw, nil
}

// decodeSnapshot restores a snapshot and turns JSON arrays of strings back
// into []string so multi-valued fields keep their type.
func decodeSnapshot(raw []byte) (wizard.SessionSnapshot, error) {
	var snap wizard.SessionSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return wizard.SessionSnapshot{}, fmt.Errorf("session: decode: %w", err)
	}
	snap.Values = normalizeValues(snap.Values)
	snap.ErrorValues = normalizeValues(snap.ErrorValues)
	return snap, nil
}

func normalizeValues(values step.Values) step.Values {
	for key, value := range values {
		list, ok := value.([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		values[key] = out
	}
	return values
}
