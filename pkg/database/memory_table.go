package database

// MemoryTable holds its rows in memory and can be iterated any number of
// times.
type MemoryTable struct {
	rows []Row
}

// NewMemoryTable creates a table over the given rows.
func NewMemoryTable(rows ...Row) *MemoryTable {
	return &MemoryTable{rows: rows}
}

// Buffer drains one pass of t into a MemoryTable. Used for sources that can
// only be read once, like stdin.
func Buffer(t Table) (*MemoryTable, error) {
	it, err := t.Iterate()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rows []Row
	for it.Next() {
		rows = append(rows, it.Row())
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return &MemoryTable{rows: rows}, nil
}

func (t *MemoryTable) Len() int {
	return len(t.rows)
}

func (t *MemoryTable) Iterate() (RowIterator, error) {
	return &memoryIterator{rows: t.rows, index: -1}, nil
}

type memoryIterator struct {
	rows  []Row
	index int
}

func (it *memoryIterator) Next() bool {
	if it.index < len(it.rows) {
		it.index++
	}
	return it.index < len(it.rows)
}

func (it *memoryIterator) Row() Row {
	if it.index >= 0 && it.index < len(it.rows) {
		return it.rows[it.index]
	}
	return nil
}

func (it *memoryIterator) Error() error { return nil }
func (it *memoryIterator) Close() error { return nil }
