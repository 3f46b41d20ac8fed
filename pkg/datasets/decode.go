package datasets

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-choices/internal/hydrate"
)

// ErrMissingRoot reports a payload without the expected record list.
var ErrMissingRoot = errors.New("datasets: missing dataset root")

// Records returns the raw records stored under the root of dataset key.
func Records(key string, payload map[string]any) ([]map[string]any, error) {
	root := Root(key)
	raw, ok := payload[root]
	if !ok || raw == nil {
		return nil, fmt.Errorf("%w %q for dataset %q", ErrMissingRoot, root, key)
	}

	switch list := raw.(type) {
	case []map[string]any:
		return list, nil
	case []any:
		records := make([]map[string]any, 0, len(list))
		for i, item := range list {
			record, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("datasets: %s[%d] is %T, expected an object", key, i, item)
			}
			records = append(records, record)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("datasets: %s root %q is %T, expected a list", key, root, raw)
	}
}

// Decode converts one raw record of dataset key into T. String values are
// trimmed first. A field of the wrong type decodes as absent unless it is
// one of the identity fields, which fail the record.
func Decode[T any](key string, index int, record map[string]any, identity ...string) (T, error) {
	value, _, err := hydrate.DecodeLenient[T](hydrate.Ref{Dataset: key, Index: index}, record, identity, hydrate.TrimStrings)
	return value, err
}

// DecodeAll decodes every record under the root of dataset key.
func DecodeAll[T any](key string, payload map[string]any) ([]T, error) {
	records, err := Records(key, payload)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for i, record := range records {
		value, err := Decode[T](key, i, record)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

// Lookup resolves a dotted field path (e.g. "metadata.partyId") inside a
// raw record. Missing segments and nil values report false.
func Lookup(record map[string]any, path string) (any, bool) {
	if record == nil || path == "" {
		return nil, false
	}
	current := any(record)
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

// KeyString renders a key value in its canonical string form so that JSON
// numbers (float64) and YAML numbers (int) compare equal.
func KeyString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return KeyString(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
