package tile

// FragmentMeta carries the per-fragment bookkeeping consulted when a delete
// condition evaluates the synthetic delete-timestamps field: the fragment's
// timestamp range, the timestamp of each delete condition by marker, and the
// set of condition markers already folded into the fragment's data.
type FragmentMeta struct {
	TimestampStart uint64
	TimestampEnd   uint64

	conditionTimestamps map[string]uint64
	processed           map[string]struct{}
}

// NewFragmentMeta creates fragment metadata for the given timestamp range.
func NewFragmentMeta(start, end uint64) *FragmentMeta {
	return &FragmentMeta{
		TimestampStart:      start,
		TimestampEnd:        end,
		conditionTimestamps: make(map[string]uint64),
		processed:           make(map[string]struct{}),
	}
}

// SetConditionTimestamp records the timestamp of the delete condition
// identified by marker.
func (m *FragmentMeta) SetConditionTimestamp(marker string, ts uint64) {
	m.conditionTimestamps[marker] = ts
}

// ConditionTimestamp returns the timestamp recorded for marker.
func (m *FragmentMeta) ConditionTimestamp(marker string) (uint64, bool) {
	ts, ok := m.conditionTimestamps[marker]
	return ts, ok
}

// MarkProcessed records that the condition identified by marker was already
// applied when this fragment was written.
func (m *FragmentMeta) MarkProcessed(marker string) {
	m.processed[marker] = struct{}{}
}

// IsProcessed reports whether the condition identified by marker was already
// applied to this fragment.
func (m *FragmentMeta) IsProcessed(marker string) bool {
	_, ok := m.processed[marker]
	return ok
}
