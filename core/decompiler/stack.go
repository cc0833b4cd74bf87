package decompiler

// Stack is a value stack used both for the translator's simulated operand
// stack and for the unstacker's snapshots of temporaries.
type Stack[T any] struct {
	data []T
}

func (s *Stack[T]) push(v T) {
	s.data = append(s.data, v)
}

// pop removes the top item. ok is false on an empty stack.
func (s *Stack[T]) pop() (v T, ok bool) {
	if len(s.data) == 0 {
		return v, false
	}
	v = s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return v, true
}

func (s *Stack[T]) size() int {
	return len(s.data)
}

// peek returns a pointer to the nth item from the top of the stack (0-indexed)
// or nil.
func (s *Stack[T]) peek(n int) *T {
	if n < 0 || n >= len(s.data) {
		return nil
	}
	return &s.data[len(s.data)-1-n]
}

// at returns the item at depth i counted from the bottom.
func (s *Stack[T]) at(i int) T {
	return s.data[i]
}

func (s *Stack[T]) clear() {
	s.data = s.data[:0]
}

func (s *Stack[T]) clone() *Stack[T] {
	return &Stack[T]{data: append([]T(nil), s.data...)}
}
