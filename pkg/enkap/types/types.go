package types

// Serializer is anything that can render itself as a wire record.
type Serializer interface {
	Serialize(dirtyOnly bool) map[string]any
}

// Loader is anything that can populate itself from a wire record.
type Loader interface {
	Load(input map[string]any, replace bool) error
}

type Model interface {
	Loader
	Serializer

	ModelName() string
	ResourceURI() string
	SupportedMethods() []string

	Validate(checkChildren bool) error
	MarkClean(names ...string)
}
