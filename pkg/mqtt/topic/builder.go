package topic

import "strings"

// Builder constructs topic strings of the form {root}/{segment}/{vin}.
type Builder struct {
	root   string
	prefix string
}

// NewBuilder creates a Builder rooted at root, e.g. "iov/v1".
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.TrimSuffix(root, "/")}
}

// Shared returns a Builder whose topics subscribe through the shared
// subscription group. An empty group returns b unchanged.
func (b *Builder) Shared(group string) *Builder {
	if group == "" {
		return b
	}
	return &Builder{root: b.root, prefix: "$share/" + group + "/"}
}

// Build returns {root}/{segment}/{id}.
func (b *Builder) Build(segment, id string) string {
	return b.prefix + b.root + "/" + segment + "/" + id
}

// BuildWildcard returns {root}/{segment}/+.
func (b *Builder) BuildWildcard(segment string) string {
	return b.Build(segment, Wildcard)
}

// ID extracts the trailing identifier from a concrete topic built for segment.
// ok is false if topic does not belong to segment.
func (b *Builder) ID(segment, topic string) (id string, ok bool) {
	prefix := b.root + "/" + segment + "/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	id = strings.TrimPrefix(topic, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
