// Package hydrate turns raw dataset records into typed records.
package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Ref locates a record inside its dataset for error messages.
type Ref struct {
	Dataset string
	Index   int
}

func (r Ref) String() string {
	return fmt.Sprintf("%s[%d]", r.Dataset, r.Index)
}

// Normalizer rewrites a private copy of the raw record before it is decoded.
type Normalizer func(map[string]any)

// TrimStrings removes surrounding whitespace from every string value,
// nested objects and lists included.
func TrimStrings(record map[string]any) {
	for key, value := range record {
		record[key] = trim(value)
	}
}

func trim(value any) any {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		TrimStrings(v)
		return v
	case []any:
		for i := range v {
			v[i] = trim(v[i])
		}
		return v
	default:
		return value
	}
}

// Decode converts record into T through its json tags. Normalizers see a deep
// copy, so the caller's record is left as it was.
func Decode[T any](ref Ref, record map[string]any, normalizers ...Normalizer) (T, error) {
	var out T
	if record == nil {
		return out, fmt.Errorf("hydrate: %s is empty", ref)
	}
	if len(normalizers) > 0 {
		record = copyRecord(record)
		for _, normalize := range normalizers {
			if normalize != nil {
				normalize(record)
			}
		}
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return out, fmt.Errorf("hydrate: encode %s: %w", ref, err)
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("hydrate: decode %s: %w", ref, err)
	}
	return out, nil
}

// DecodeLenient is Decode for records whose optional fields may carry values
// of the wrong type. Such a field is removed and decoding retried, so it ends
// up absent; the removed paths are returned. A mistyped field listed in
// required still fails the record.
func DecodeLenient[T any](ref Ref, record map[string]any, required []string, normalizers ...Normalizer) (T, []string, error) {
	var out T
	if record == nil {
		return out, nil, fmt.Errorf("hydrate: %s is empty", ref)
	}
	record = copyRecord(record)
	for _, normalize := range normalizers {
		if normalize != nil {
			normalize(record)
		}
	}
	var dropped []string
	for {
		value, err := Decode[T](ref, record)
		if err == nil {
			return value, dropped, nil
		}
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) || typeErr.Field == "" || isRequired(typeErr.Field, required) {
			return out, dropped, err
		}
		if !removePath(record, typeErr.Field) {
			return out, dropped, err
		}
		dropped = append(dropped, typeErr.Field)
	}
}

func isRequired(field string, required []string) bool {
	for _, name := range required {
		if strings.EqualFold(field, name) {
			return true
		}
	}
	return false
}

// removePath deletes the dotted path from record. Keys match the way
// encoding/json matches them: exactly first, then ignoring case.
func removePath(record map[string]any, path string) bool {
	segments := strings.Split(path, ".")
	current := record
	for i, segment := range segments {
		key, ok := findKey(current, segment)
		if !ok {
			return false
		}
		if i == len(segments)-1 {
			delete(current, key)
			return true
		}
		next, ok := current[key].(map[string]any)
		if !ok {
			return false
		}
		current = next
	}
	return false
}

func findKey(record map[string]any, name string) (string, bool) {
	if _, ok := record[name]; ok {
		return name, true
	}
	for key := range record {
		if strings.EqualFold(key, name) {
			return key, true
		}
	}
	return "", false
}

func copyRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for key, value := range record {
		out[key] = copyValue(value)
	}
	return out
}

func copyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return copyRecord(v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = copyValue(v[i])
		}
		return out
	default:
		return value
	}
}
