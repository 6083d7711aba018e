package analysis

// recordSet keeps the first occurrence of each structurally equal value, in
// insertion order.
type recordSet[T comparable] struct {
    seen  map[T]struct{}
    items []T
}

func newRecordSet[T comparable]() *recordSet[T] {
    return &recordSet[T]{seen: make(map[T]struct{})}
}

// Add inserts v and reports whether it was new.
func (s *recordSet[T]) Add(v T) bool {
    if _, ok := s.seen[v]; ok { return false }
    s.seen[v] = struct{}{}
    s.items = append(s.items, v)
    return true
}

func (s *recordSet[T]) Has(v T) bool {
    _, ok := s.seen[v]
    return ok
}

func (s *recordSet[T]) Items() []T { return s.items }

func contains(list []string, v string) bool {
    for _, x := range list {
        if x == v { return true }
    }
    return false
}

func equalStrings(a, b []string) bool {
    if len(a) != len(b) { return false }
    for i := range a {
        if a[i] != b[i] { return false }
    }
    return true
}

func clone(s []string) []string {
    if s == nil { return []string{} }
    return append([]string(nil), s...)
}
