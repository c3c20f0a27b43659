package models

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"time"

	"github.com/camoo/enkap-go/pkg/enkap"
	"github.com/camoo/enkap-go/pkg/enkap/errors"
	"github.com/camoo/enkap-go/pkg/enkap/types"
	"github.com/camoo/enkap-go/pkg/enkap/types/fields"
)

// Dispatcher is the part of the http client that models use to submit and
// query themselves.
type Dispatcher interface {
	Save(ctx context.Context, m types.Model, delete bool) (*enkap.ModelResponse, error)
	Get(ctx context.Context, m types.Model, where map[string]any, uri string) (*enkap.ModelResponse, error)
}

// Schema is the static description of a model type
type Schema struct {
	Name    string
	URI     string
	Methods []string
	Fields  []fields.Descriptor
}

func (s *Schema) Descriptor(name string) (fields.Descriptor, bool) {
	for _, d := range s.Fields {
		if d.Name == name {
			return d, true
		}
	}
	return fields.Descriptor{}, false
}

// Base holds the field values, dirty state and parent associations of a
// model. Concrete models embed a *Base and expose typed accessors on top of it.
type Base struct {
	schema *Schema
	owner  types.Model

	data  map[string]any
	dirty map[string]bool

	// parents keyed by the parent field this model is attached under. These
	// are only used to forward dirty notifications, never to reach data.
	associated map[string]*Base

	client Dispatcher
}

func newBase(schema *Schema, owner types.Model) *Base {
	return &Base{
		schema:     schema,
		owner:      owner,
		data:       map[string]any{},
		dirty:      map[string]bool{},
		associated: map[string]*Base{},
	}
}

type baseHolder interface {
	base() *Base
}

func (b *Base) base() *Base {
	return b
}

func (b *Base) ModelName() string {
	return b.schema.Name
}

func (b *Base) ResourceURI() string {
	return b.schema.URI
}

func (b *Base) SupportedMethods() []string {
	return slices.Clone(b.schema.Methods)
}

func (b *Base) IsMethodSupported(method string) bool {
	return slices.Contains(b.owner.SupportedMethods(), method)
}

// canSubmit reports whether this model can issue a write on its own behalf
func (b *Base) canSubmit() bool {
	return b.IsMethodSupported(http.MethodPut) || b.IsMethodSupported(http.MethodPost)
}

// AttachClient injects the dispatch context. The first client attached wins.
func (b *Base) AttachClient(client Dispatcher) {
	if b.client != nil {
		return
	}
	b.client = client
}

func (b *Base) Client() Dispatcher {
	return b.client
}

func (b *Base) Has(name string) bool {
	return b.data[name] != nil
}

func (b *Base) Get(name string) any {
	return b.data[name]
}

func (b *Base) Unset(name string) {
	delete(b.data, name)
}

// Set stores value under name after recording the change
func (b *Base) Set(name string, value any) {
	b.changed(name, value)
	b.data[name] = value
}

func (b *Base) IsDirty(names ...string) bool {
	if len(names) == 0 {
		return len(b.dirty) > 0
	}

	for _, n := range names {
		if b.dirty[n] {
			return true
		}
	}

	return false
}

func (b *Base) MarkDirty(name string) {
	b.dirty[name] = true
}

// MarkClean clears the dirty flag of the named fields, or of all fields if
// no names are given.
func (b *Base) MarkClean(names ...string) {
	if len(names) == 0 {
		clear(b.dirty)
		return
	}

	for _, n := range names {
		delete(b.dirty, n)
	}
}

func (b *Base) associate(field string, parent *Base) {
	b.associated[field] = parent
}

func (b *Base) changed(name string, value any) {
	if current := b.data[name]; current != nil && sameValue(current, value) {
		return
	}

	if b.canSubmit() {
		b.MarkDirty(name)
		return
	}

	for field, parent := range b.associated {
		parent.MarkDirty(field)
	}
}

func sameValue(a, b any) bool {
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case types.Model, *Collection:
		return a == b
	}

	return reflect.DeepEqual(a, b)
}

// Load populates the model from a decoded wire record. Fields that are
// already set are kept unless replace is true.
func (b *Base) Load(input map[string]any, replace bool) error {
	for _, d := range b.schema.Fields {
		if !replace && b.data[d.Name] != nil {
			continue
		}

		raw, ok := input[d.Name]
		if !ok || raw == nil {
			b.data[d.Name] = nil
			continue
		}

		if d.IsArray {
			seq, ok := raw.([]any)
			if !ok {
				b.data[d.Name] = nil
				continue
			}

			value, err := b.loadSequence(d, seq)
			if err != nil {
				return err
			}

			b.data[d.Name] = value
			continue
		}

		value, err := fields.FromWire(d.Kind, raw, d.Nested)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", b.schema.Name, d.Name, err)
		}

		if child, ok := value.(baseHolder); ok {
			child.base().associate(d.Name, b)
		}

		b.data[d.Name] = value
	}

	return nil
}

func (b *Base) loadSequence(d fields.Descriptor, seq []any) (any, error) {
	if d.Kind != fields.Object {
		values := make([]any, 0, len(seq))
		for _, element := range seq {
			v, err := fields.FromWire(d.Kind, element, nil)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", b.schema.Name, d.Name, err)
			}
			values = append(values, v)
		}
		return values, nil
	}

	collection := NewCollection()
	collection.associate(d.Name, b)

	for _, element := range seq {
		v, err := fields.FromWire(d.Kind, element, d.Nested)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", b.schema.Name, d.Name, err)
		}

		m := v.(types.Model)
		if child, ok := m.(baseHolder); ok {
			child.base().associate(d.Name, b)
		}

		collection.items = append(collection.items, m)
	}

	return collection, nil
}

// Serialize renders every set field, or only the dirty ones, in wire form
func (b *Base) Serialize(dirtyOnly bool) map[string]any {
	out := map[string]any{}

	for _, d := range b.schema.Fields {
		value := b.data[d.Name]
		if value == nil {
			continue
		}

		if dirtyOnly && !b.dirty[d.Name] {
			continue
		}

		switch v := value.(type) {
		case *Collection:
			elements := make([]any, 0, v.Len())
			for _, m := range v.items {
				elements = append(elements, fields.ToWire(d.Kind, m))
			}
			out[d.Name] = elements
		case []any:
			elements := make([]any, 0, len(v))
			for _, e := range v {
				elements = append(elements, fields.ToWire(d.Kind, e))
			}
			out[d.Name] = elements
		default:
			out[d.Name] = fields.ToWire(d.Kind, value)
		}
	}

	return out
}

// Validate checks that every mandatory field holds a non empty value and,
// if checkChildren is set, validates nested models as well.
func (b *Base) Validate(checkChildren bool) error {
	for _, d := range b.schema.Fields {
		value := b.data[d.Name]

		if d.Mandatory && isEmpty(value) {
			return errors.NewValidationError(
				fmt.Sprintf("%s.%s is mandatory and is either missing or empty", b.schema.Name, d.Name),
			)
		}

		if !checkChildren {
			continue
		}

		switch v := value.(type) {
		case *Collection:
			for _, m := range v.items {
				if err := m.Validate(true); err != nil {
					return err
				}
			}
		case types.Model:
			if err := v.Validate(true); err != nil {
				return err
			}
		}
	}

	return nil
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == "" || v == "0"
	case int:
		return v == 0
	case float64:
		return v == 0
	case bool:
		return !v
	case time.Time:
		return v.IsZero()
	case *Collection:
		return v.Empty()
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func (b *Base) Save(ctx context.Context) (*enkap.ModelResponse, error) {
	return b.submit(ctx, false)
}

func (b *Base) Delete(ctx context.Context) (*enkap.ModelResponse, error) {
	return b.submit(ctx, true)
}

func (b *Base) submit(ctx context.Context, delete bool) (*enkap.ModelResponse, error) {
	if b.client == nil {
		return nil, fmt.Errorf("%s: save and delete are only available on models with an attached client (%w)", b.schema.Name, errors.ErrClientNotAttached)
	}

	response, err := b.client.Save(ctx, b.owner, delete)
	if err != nil {
		return nil, err
	}

	b.MarkClean()

	return response, nil
}

// Find starts a query for models of this type
func (b *Base) Find(where ...WhereFunc) *Query {
	return newQuery(b.owner, b.client).Where(where...)
}

func (b *Base) getString(name string) string {
	s, _ := b.data[name].(string)
	return s
}

func (b *Base) getInt(name string) int {
	i, _ := b.data[name].(int)
	return i
}

func (b *Base) getFloat(name string) float64 {
	f, _ := b.data[name].(float64)
	return f
}

func (b *Base) getTime(name string) time.Time {
	t, _ := b.data[name].(time.Time)
	return t
}
