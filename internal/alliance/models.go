package alliance

type Alliance struct {
	ID   int64
	Name string
}

// New builds an unsaved alliance. name must already be normalized.
func New(name string) *Alliance {
	return &Alliance{Name: name}
}

// Persisted reports whether the alliance has a stored row.
func (a *Alliance) Persisted() bool {
	return a.ID != 0
}
