package model

// Visibility decides whether a descriptor renders for the current values.
type Visibility interface {
	Visible(values map[string]any) bool
}

// VisibleFunc adapts a predicate into a Visibility.
type VisibleFunc func(values map[string]any) bool

// Visible calls the underlying predicate.
func (fn VisibleFunc) Visible(values map[string]any) bool {
	if fn == nil {
		return true
	}
	return fn(values)
}

// Show is a static visibility flag.
type Show bool

// Visible returns the static flag.
func (s Show) Visible(map[string]any) bool { return bool(s) }

// IsVisible evaluates v, treating a nil Visibility as visible.
func IsVisible(v Visibility, values map[string]any) bool {
	if v == nil {
		return true
	}
	return v.Visible(values)
}
