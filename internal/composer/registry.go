package composer

// Registry is an ordered mapping from display names to layers.
type Registry[T any] struct {
	items map[string]T
	names []string
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Add registers a layer under name. Re-adding a name replaces the layer and
// keeps its position.
func (r *Registry[T]) Add(name string, layer T) {
	if _, ok := r.items[name]; !ok {
		r.names = append(r.names, name)
	}
	r.items[name] = layer
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	_, ok := r.items[name]
	return ok
}

// Names returns the registered names in insertion order.
func (r *Registry[T]) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of layers.
func (r *Registry[T]) Len() int {
	return len(r.names)
}

// Each calls fn for every layer in order.
func (r *Registry[T]) Each(fn func(name string, layer T)) {
	for _, n := range r.names {
		fn(n, r.items[n])
	}
}
