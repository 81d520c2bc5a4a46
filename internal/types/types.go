package types

// Row is one table row. Every field is a string; rows have no identity
// beyond their values.
type Row []string

// Equal reports whether two rows hold the same values in the same order.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share storage with r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}
