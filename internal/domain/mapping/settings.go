package mapping

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/esmodel/internal/domain"
)

// Setting keys accepted at index creation.
const (
	KeyShards   = "number_of_shards"
	KeyReplicas = "number_of_replicas"
)

var requiredSettings = []string{KeyReplicas, KeyShards}

// Settings is a validated shard/replica pair.
type Settings struct {
	NumberOfShards   int `json:"number_of_shards"`
	NumberOfReplicas int `json:"number_of_replicas"`
}

// ParseSettings validates raw index settings. Empty input yields nil settings.
// Both keys must be present and nothing else; values must be non-negative
// integers or strings of digits.
func ParseSettings(raw map[string]any) (*Settings, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var missing, extra []string
	for _, k := range requiredSettings {
		if _, ok := raw[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range raw {
		if k != KeyShards && k != KeyReplicas {
			extra = append(extra, k)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(extra)
		parts := make([]string, 0, 2)
		if len(missing) > 0 {
			parts = append(parts, "missing "+strings.Join(missing, ", "))
		}
		if len(extra) > 0 {
			parts = append(parts, "unexpected "+strings.Join(extra, ", "))
		}
		return nil, fmt.Errorf("settings require exactly %s (%s): %w",
			strings.Join(requiredSettings, " and "), strings.Join(parts, "; "), domain.ErrConfiguration)
	}

	shards, err := numericSetting(KeyShards, raw[KeyShards])
	if err != nil {
		return nil, err
	}
	replicas, err := numericSetting(KeyReplicas, raw[KeyReplicas])
	if err != nil {
		return nil, err
	}
	return &Settings{NumberOfShards: shards, NumberOfReplicas: replicas}, nil
}

// Map renders the settings as a plain key/value map.
func (s *Settings) Map() map[string]any {
	if s == nil {
		return nil
	}
	return map[string]any{KeyShards: s.NumberOfShards, KeyReplicas: s.NumberOfReplicas}
}

func numericSetting(key string, v any) (int, error) {
	bad := func() (int, error) {
		return 0, fmt.Errorf("setting %s must be numeric, got %v: %w", key, v, domain.ErrConfiguration)
	}

	switch x := v.(type) {
	case int:
		if x < 0 || x > math.MaxInt32 {
			return bad()
		}
		return x, nil
	case int32:
		if x < 0 {
			return bad()
		}
		return int(x), nil
	case int64:
		if x < 0 || x > math.MaxInt32 {
			return bad()
		}
		return int(x), nil
	case uint:
		if x > math.MaxInt32 {
			return bad()
		}
		return int(x), nil
	case uint32:
		if x > math.MaxInt32 {
			return bad()
		}
		return int(x), nil
	case uint64:
		if x > math.MaxInt32 {
			return bad()
		}
		return int(x), nil
	case float64:
		if x < 0 || x != math.Trunc(x) || x > math.MaxInt32 {
			return bad()
		}
		return int(x), nil
	case float32:
		return numericSetting(key, float64(x))
	case json.Number:
		return digitsSetting(key, x.String())
	case string:
		return digitsSetting(key, x)
	}
	return bad()
}

func digitsSetting(key, s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("setting %s must be numeric, got empty string: %w", key, domain.ErrConfiguration)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("setting %s must be numeric, got %q: %w", key, s, domain.ErrConfiguration)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > math.MaxInt32 {
		return 0, fmt.Errorf("setting %s out of range %q: %w", key, s, domain.ErrConfiguration)
	}
	return n, nil
}
