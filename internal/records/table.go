package records

// table keeps rows in insertion order.
type table[T any] struct {
	rows  []T
	idOf  func(T) string
	clone func(T) T
}

func newTable[T any](idOf func(T) string, clone func(T) T) *table[T] {
	return &table[T]{idOf: idOf, clone: clone}
}

func (t *table[T]) index(id string) int {
	for i, row := range t.rows {
		if t.idOf(row) == id {
			return i
		}
	}
	return -1
}

func (t *table[T]) list() []T {
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, t.clone(row))
	}
	return out
}

func (t *table[T]) find(id string) (T, bool) {
	if i := t.index(id); i >= 0 {
		return t.clone(t.rows[i]), true
	}
	var zero T
	return zero, false
}

func (t *table[T]) filter(pred func(T) bool) []T {
	out := []T{}
	for _, row := range t.rows {
		if pred(row) {
			out = append(out, t.clone(row))
		}
	}
	return out
}

func (t *table[T]) exists(pred func(T) bool) bool {
	for _, row := range t.rows {
		if pred(row) {
			return true
		}
	}
	return false
}

func (t *table[T]) insert(row T) {
	t.rows = append(t.rows, t.clone(row))
}

func (t *table[T]) replace(i int, row T) {
	t.rows[i] = t.clone(row)
}

func (t *table[T]) removeAt(i int) {
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
}

// removeWhere drops every matching row and returns how many were removed.
func (t *table[T]) removeWhere(pred func(T) bool) int {
	kept := t.rows[:0]
	removed := 0
	for _, row := range t.rows {
		if pred(row) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	var zero T
	for i := len(kept); i < len(t.rows); i++ {
		t.rows[i] = zero
	}
	t.rows = kept
	return removed
}

func (t *table[T]) reset(rows []T) {
	t.rows = make([]T, 0, len(rows))
	for _, row := range rows {
		t.rows = append(t.rows, t.clone(row))
	}
}

func (t *table[T]) len() int {
	return len(t.rows)
}
