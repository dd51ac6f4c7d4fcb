// Package field resolves template field paths against a caller-supplied data bag.
//
// A path is either a literal key ("customer", "inspect.0.level") or a dotted
// walk through nested maps and slices ("customer.address.city", "items.2.name").
// A literal key always wins over the walk. Resolution never fails: any miss
// returns the template's default text.
package field

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Store is a read-only key/value source. Implementations must not be mutated
// while a render is reading them.
type Store interface {
	Lookup(key string) (any, bool)
}

// Map is the common Store: a decoded JSON or YAML object.
type Map map[string]any

// Lookup implements Store.
func (m Map) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Strings is a flat string-to-string Store.
type Strings map[string]string

// Lookup implements Store.
func (s Strings) Lookup(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// Resolve returns the stringified value for path, or fallback when the path
// is empty, absent, or walks through a missing or falsy value.
func Resolve(store Store, path, fallback string) string {
	v, ok := Lookup(store, path)
	if !ok {
		return fallback
	}
	return Format(v)
}

// Lookup returns the raw value at path using the same rules as Resolve.
func Lookup(store Store, path string) (any, bool) {
	if store == nil || path == "" {
		return nil, false
	}
	if v, ok := store.Lookup(path); ok && v != nil {
		return v, true
	}
	if !strings.Contains(path, ".") {
		return nil, false
	}

	segments := strings.Split(path, ".")
	cur, ok := store.Lookup(segments[0])
	if !ok {
		return nil, false
	}
	for _, seg := range segments[1:] {
		if !truthy(cur) {
			return nil, false
		}
		cur, ok = child(cur, seg)
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// child descends one segment into a container value.
func child(cur any, seg string) (any, bool) {
	switch c := cur.(type) {
	case map[string]any:
		v, ok := c[seg]
		return v, ok
	case map[string]string:
		v, ok := c[seg]
		return v, ok
	case Map:
		v, ok := c[seg]
		return v, ok
	case Store:
		return c.Lookup(seg)
	case []any:
		i, ok := index(seg, len(c))
		if !ok {
			return nil, false
		}
		return c[i], true
	case []string:
		i, ok := index(seg, len(c))
		if !ok {
			return nil, false
		}
		return c[i], true
	case []map[string]any:
		i, ok := index(seg, len(c))
		if !ok {
			return nil, false
		}
		return c[i], true
	default:
		return nil, false
	}
}

func index(seg string, n int) (int, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// truthy reports whether an intermediate value may be walked through.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	case json.Number:
		return x != "" && x != "0"
	default:
		return true
	}
}

// Format stringifies a data value. Scalars use their plain form; containers
// are written as compact JSON.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case fmt.Stringer:
		return x.String()
	case map[string]any, []any, map[string]string, []string, Map:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64, bits int) string {
	if math.Abs(f) >= 1e21 {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}
