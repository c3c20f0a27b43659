package fields

import (
	"testing"
	"time"

	"github.com/camoo/enkap-go/pkg/enkap/types"
	"github.com/matryer/is"
)

func TestEmptyStringPassesThroughForEveryKind(t *testing.T) {
	is := is.New(t)

	for _, k := range []Kind{String, Int, Float, Boolean, Date, Timestamp, Object} {
		is.Equal(ToWire(k, ""), "") // empty string must never be converted
	}
}

func TestBooleanToWire(t *testing.T) {
	is := is.New(t)
	is.Equal(ToWire(Boolean, true), "true")
	is.Equal(ToWire(Boolean, false), "false")
}

func TestDateAndTimestampToWire(t *testing.T) {
	is := is.New(t)

	ts := time.Date(2023, time.March, 9, 14, 5, 0, 0, time.UTC)

	is.Equal(ToWire(Date, ts), "2023-03-09")
	is.Equal(ToWire(Timestamp, ts), "2023-03-09T14:05:00Z")
}

func TestUnsupportedValuesDegradeToEmptyString(t *testing.T) {
	is := is.New(t)

	is.Equal(ToWire(String, []string{"a"}), "")
	is.Equal(ToWire(Date, "not a time"), "")
	is.Equal(ToWire(Object, 17), "")
}

func TestScalarsAreCoercedToString(t *testing.T) {
	is := is.New(t)

	is.Equal(ToWire(Int, 3), "3")
	is.Equal(ToWire(Float, 1250.5), "1250.5")
	is.Equal(ToWire(String, "XAF"), "XAF")
}

func TestBooleanFromWire(t *testing.T) {
	is := is.New(t)

	for _, v := range []any{"true", "TRUE", "1", "Yes", true} {
		b, err := FromWire(Boolean, v, nil)
		is.NoErr(err)
		is.Equal(b, true)
	}

	for _, v := range []any{"false", "0", "no", "", false} {
		b, err := FromWire(Boolean, v, nil)
		is.NoErr(err)
		is.Equal(b, false)
	}
}

func TestNumericCoercion(t *testing.T) {
	is := is.New(t)

	i, _ := FromWire(Int, "42", nil)
	is.Equal(i, 42)

	i, _ = FromWire(Int, float64(7), nil)
	is.Equal(i, 7)

	i, _ = FromWire(Int, "abc", nil)
	is.Equal(i, 0)

	f, _ := FromWire(Float, "1250.50", nil)
	is.Equal(f, 1250.5)
}

func TestTimestampFromLegacyDateWrapperIsUTC(t *testing.T) {
	is := is.New(t)

	v, err := FromWire(Timestamp, "/Date(1678370700+0100)/", nil)
	is.NoErr(err)

	ts := v.(time.Time)
	is.Equal(ts.Location(), time.UTC)
	is.Equal(ts.Unix(), int64(1678370700))
}

func TestTimestampFromISO8601(t *testing.T) {
	is := is.New(t)

	v, err := FromWire(Timestamp, "2023-03-09T15:05:00+01:00", nil)
	is.NoErr(err)
	is.Equal(v.(time.Time).Format(time.RFC3339), "2023-03-09T14:05:00Z")
}

func TestDateFromWireUsesLocalZone(t *testing.T) {
	is := is.New(t)

	v, err := FromWire(Date, "2023-03-09", nil)
	is.NoErr(err)

	d := v.(time.Time)
	is.Equal(d.Location(), time.Local)
	is.Equal(ToWire(Date, d), "2023-03-09")
}

func TestDateFromGarbageFails(t *testing.T) {
	is := is.New(t)

	_, err := FromWire(Date, "yesterday", nil)
	is.True(err != nil)
}

func TestEmptyDateFromWireIsAbsent(t *testing.T) {
	is := is.New(t)

	for _, k := range []Kind{Date, Timestamp} {
		v, err := FromWire(k, "", nil)
		is.NoErr(err)
		is.Equal(v, nil)
	}
}

func TestDefaultKindKeepsScalarsAsStrings(t *testing.T) {
	is := is.New(t)

	v, _ := FromWire(String, float64(12), nil)
	is.Equal(v, "12")

	v, _ = FromWire(String, map[string]any{"a": "b"}, nil)
	is.Equal(v, map[string]any{"a": "b"})
}

type record struct {
	loaded map[string]any
}

func (r *record) Load(input map[string]any, _ bool) error { r.loaded = input; return nil }
func (r *record) Serialize(bool) map[string]any           { return r.loaded }
func (r *record) ModelName() string                       { return "record" }
func (r *record) ResourceURI() string                     { return "" }
func (r *record) SupportedMethods() []string              { return nil }
func (r *record) Validate(bool) error                     { return nil }
func (r *record) MarkClean(...string)                     {}

func TestNestedObjectIsLoadedThroughFactory(t *testing.T) {
	is := is.New(t)

	factory := func() types.Model { return &record{} }

	v, err := FromWire(Object, map[string]any{"uuid": "abc"}, factory)
	is.NoErr(err)

	r := v.(*record)
	is.Equal(r.loaded["uuid"], "abc")
	is.Equal(ToWire(Object, r), map[string]any{"uuid": "abc"})
}

func TestNestedObjectRequiresAnObject(t *testing.T) {
	is := is.New(t)

	_, err := FromWire(Object, "abc", func() types.Model { return &record{} })
	is.True(err != nil)
}
