package scan

// Stack is a LIFO of enclosing function names.
// Popping or peeking an empty stack is not an error.
type Stack struct {
	items []string
}

// Push adds name on top of the stack.
func (s *Stack) Push(name string) {
	s.items = append(s.items, name)
}

// Pop removes and returns the top name. ok is false if the stack was empty.
func (s *Stack) Pop() (name string, ok bool) {
	if len(s.items) == 0 {
		return "", false
	}
	name = s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return name, true
}

// Top returns the top name without removing it.
func (s *Stack) Top() (name string, ok bool) {
	if len(s.items) == 0 {
		return "", false
	}
	return s.items[len(s.items)-1], true
}

// Len returns the stack depth.
func (s *Stack) Len() int {
	return len(s.items)
}

// Items returns a copy of the stack, bottom first.
func (s *Stack) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
