package table

// OptionsSet is a set of toggled options that remembers the order in which
// options were first set.
type OptionsSet[T comparable] struct {
	set      map[T]bool
	order    []T
	onChange func(value T, set bool)
}

func NewOptionsSet[T comparable](initial ...T) *OptionsSet[T] {
	s := &OptionsSet[T]{set: make(map[T]bool)}
	for _, v := range initial {
		s.add(v)
	}
	return s
}

// OnChange registers fn to be called after an option changed.
func (s *OptionsSet[T]) OnChange(fn func(value T, set bool)) {
	s.onChange = fn
}

func (s *OptionsSet[T]) add(v T) {
	if s.set[v] {
		return
	}
	s.set[v] = true
	s.order = append(s.order, v)
}

// Set sets or clears v.
func (s *OptionsSet[T]) Set(v T, on bool) {
	if s.set[v] == on {
		return
	}
	if on {
		s.add(v)
	} else {
		delete(s.set, v)
		for i, x := range s.order {
			if x == v {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	if s.onChange != nil {
		s.onChange(v, on)
	}
}

// Toggle flips v and returns its new state.
func (s *OptionsSet[T]) Toggle(v T) bool {
	on := !s.set[v]
	s.Set(v, on)
	return on
}

func (s *OptionsSet[T]) IsSet(v T) bool {
	return s.set[v]
}

// Values returns the set options in the order they were set.
func (s *OptionsSet[T]) Values() []T {
	return append([]T(nil), s.order...)
}

func (s *OptionsSet[T]) Len() int {
	return len(s.order)
}

// Clear removes every option, reporting each removal.
func (s *OptionsSet[T]) Clear() {
	for _, v := range s.Values() {
		s.Set(v, false)
	}
}
