package fields

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/camoo/enkap-go/pkg/enkap/types"
)

type Kind int

const (
	String Kind = iota
	Int
	Float
	Boolean
	Date
	Timestamp
	Object
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Boolean:
		return "bool"
	case Date:
		return "date"
	case Timestamp:
		return "timestamp"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Factory creates an empty instance of a nested model type
type Factory func() types.Model

// Descriptor is the static metadata for a single model field
type Descriptor struct {
	Name      string
	Mandatory bool
	Kind      Kind
	Nested    Factory
	IsArray   bool
}

func Field(name string, kind Kind) Descriptor {
	return Descriptor{Name: name, Kind: kind}
}

func Mandatory(name string, kind Kind) Descriptor {
	return Descriptor{Name: name, Kind: kind, Mandatory: true}
}

func Nested(name string, factory Factory) Descriptor {
	return Descriptor{Name: name, Kind: Object, Nested: factory}
}

func NestedArray(name string, factory Factory) Descriptor {
	return Descriptor{Name: name, Kind: Object, Nested: factory, IsArray: true}
}

const (
	DateLayout      string = "2006-01-02"
	TimestampLayout string = time.RFC3339
)

// ToWire converts a typed value into its wire representation. Values that
// cannot be encoded for the given kind become an empty string rather than
// failing, which is what the upstream API has always received.
func ToWire(kind Kind, value any) any {
	if s, ok := value.(string); ok && s == "" {
		return ""
	}

	switch kind {
	case Boolean:
		if truthy(value) {
			return "true"
		}
		return "false"
	case Date:
		if t, ok := value.(time.Time); ok {
			return t.Format(DateLayout)
		}
		return ""
	case Timestamp:
		if t, ok := value.(time.Time); ok {
			return t.Format(TimestampLayout)
		}
		return ""
	case Object:
		if s, ok := value.(types.Serializer); ok {
			return s.Serialize(false)
		}
		return ""
	default:
		return scalarToString(value)
	}
}

// FromWire converts a wire value into the typed value for kind
func FromWire(kind Kind, value any, nested Factory) (any, error) {
	switch kind {
	case Int:
		return toInt(value), nil
	case Float:
		return toFloat(value), nil
	case Boolean:
		switch strings.ToLower(scalarToString(value)) {
		case "true", "1", "yes":
			return true, nil
		}
		return false, nil
	case Timestamp, Date:
		raw := strings.TrimSpace(scalarToString(value))
		if raw == "" {
			// unset dates come back as empty strings
			return nil, nil
		}
		if kind == Timestamp {
			return parseTime(raw, time.UTC)
		}
		return parseTime(raw, time.Local)
	case Object:
		if nested == nil {
			return nil, fmt.Errorf("object field without a nested type")
		}

		record, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected an object but got %T", value)
		}

		instance := nested()
		if err := instance.Load(record, false); err != nil {
			return nil, err
		}

		return instance, nil
	default:
		if isScalar(value) {
			return scalarToString(value), nil
		}

		if record, ok := value.(map[string]any); ok {
			return record, nil
		}

		return map[string]any{"value": value}, nil
	}
}

var legacyDate = regexp.MustCompile(`Date\((?P<timestamp>[0-9+.]+)\)`)

func parseTime(value string, loc *time.Location) (time.Time, error) {
	if m := legacyDate.FindStringSubmatch(value); m != nil {
		return parseEpoch(m[legacyDate.SubexpIndex("timestamp")], loc)
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", DateLayout} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.In(loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse %q as a date", value)
}

// epoch values may carry a fractional part and a trailing "+hhmm" offset
func parseEpoch(value string, loc *time.Location) (time.Time, error) {
	if idx := strings.Index(value[1:], "+"); idx >= 0 {
		value = value[:idx+1]
	}

	secs, err := strconv.ParseFloat(strings.TrimPrefix(value, "+"), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch %q: %w", value, err)
	}

	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).In(loc), nil
}

func isScalar(value any) bool {
	switch value.(type) {
	case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func scalarToString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}

func toInt(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	}

	s := strings.TrimSpace(scalarToString(value))
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(scalarToString(value)), 64)
	if err != nil {
		return 0
	}
	return f
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != "" && v != "0"
	case nil:
		return false
	}
	return toFloat(value) != 0
}
