package enkap

import (
	"fmt"
	"net/http"

	"github.com/camoo/enkap-go/pkg/enkap/errors"
	"github.com/camoo/enkap-go/pkg/enkap/types"
)

// ResultSet is the immutable, ordered result of a decoded response
type ResultSet struct {
	values []types.Model
}

func NewResultSet(values ...types.Model) *ResultSet {
	rs := &ResultSet{
		values: make([]types.Model, len(values)),
	}
	copy(rs.values, values)
	return rs
}

// First returns the first entity in the set, or nil if the set is empty
func (rs *ResultSet) First() types.Model {
	return rs.Get(0)
}

// Get returns the entity at position, or nil if position is out of range
func (rs *ResultSet) Get(position int) types.Model {
	if position < 0 || position >= len(rs.values) {
		return nil
	}
	return rs.values[position]
}

func (rs *ResultSet) FirstOrFail() (types.Model, error) {
	return rs.GetOrFail(0)
}

func (rs *ResultSet) GetOrFail(position int) (types.Model, error) {
	m := rs.Get(position)
	if m == nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("entity at position \"%d\" not found", position))
	}
	return m, nil
}

func (rs *ResultSet) IsEmpty() bool {
	return len(rs.values) == 0
}

func (rs *ResultSet) Count() int {
	return len(rs.values)
}

func (rs *ResultSet) Items() []types.Model {
	items := make([]types.Model, len(rs.values))
	copy(items, rs.values)
	return items
}

// FirstOf returns the first entity of the set as a T, failing with a not
// found error if the set is empty or holds a different type.
func FirstOf[T types.Model](rs *ResultSet) (T, error) {
	var zero T

	m, err := rs.FirstOrFail()
	if err != nil {
		return zero, err
	}

	t, ok := m.(T)
	if !ok {
		return zero, errors.NewNotFoundError(fmt.Sprintf("entity at position \"0\" is a %s, not a %T", m.ModelName(), zero))
	}

	return t, nil
}

// Payload is the untyped form of a decoded entity, used when a request does
// not declare a result type.
type Payload map[string]any

func (p Payload) Load(input map[string]any, replace bool) error {
	for k, v := range input {
		if _, ok := p[k]; ok && !replace {
			continue
		}
		p[k] = v
	}
	return nil
}

func (p Payload) Serialize(bool) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (p Payload) ModelName() string          { return "" }
func (p Payload) ResourceURI() string        { return "" }
func (p Payload) SupportedMethods() []string { return nil }
func (p Payload) Validate(bool) error        { return nil }
func (p Payload) MarkClean(...string)        {}

type ModelResponse struct {
	result  *ResultSet
	code    int
	headers http.Header
}

func NewModelResponse(result *ResultSet, code int, headers http.Header) *ModelResponse {
	if result == nil {
		result = NewResultSet()
	}

	return &ModelResponse{
		result:  result,
		code:    code,
		headers: headers,
	}
}

func (r ModelResponse) Result() *ResultSet {
	return r.result
}

func (r ModelResponse) StatusCode() int {
	return r.code
}

func (r ModelResponse) Headers() http.Header {
	return r.headers
}
