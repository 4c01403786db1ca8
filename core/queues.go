package core

// StoreQueueEntry is one in-flight store (spec.md §3).
type StoreQueueEntry struct {
	Size     int
	Addr     uint64
	NewBytes uint64
	OldBytes uint64
}

// StoreQueue is a bounded FIFO of in-flight stores, used to roll back
// or replay architectural state when the memory subsystem later
// reports an access fault (spec.md §3, §4.4.2).
type StoreQueue struct {
	entries []StoreQueueEntry
	max     int
}

// NewStoreQueue creates a store queue with the given maximum depth.
// Insertion past the limit drops the oldest entry (spec.md §3).
func NewStoreQueue(max int) *StoreQueue {
	if max <= 0 {
		max = 1
	}
	return &StoreQueue{max: max}
}

func (q *StoreQueue) Reset() { q.entries = nil }

func (q *StoreQueue) Len() int { return len(q.entries) }

// Push appends a new store entry, dropping the oldest if at capacity.
func (q *StoreQueue) Push(e StoreQueueEntry) {
	if len(q.entries) >= q.max {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, e)
}

func overlaps(addr1 uint64, size1 int, addr2 uint64, size2 int) bool {
	return addr1 < addr2+uint64(size2) && addr2 < addr1+uint64(size1)
}

// ApplyStoreException implements spec.md §4.4.2's apply_store_exception:
// it scans the store queue for the single matching entry, undoes the
// faulting store by writing back prior bytes, replays any younger
// overlapping store, and removes the faulting entry whole (it is never
// trimmed). It reports whether exactly one entry matched.
func (q *StoreQueue) ApplyStoreException(mem Memory, addr uint64) bool {
	matchIdx := -1
	matchCount := 0
	for i, e := range q.entries {
		if addr >= e.Addr && addr < e.Addr+uint64(e.Size) {
			matchCount++
			matchIdx = i
		}
	}
	if matchCount != 1 {
		return false
	}

	faulting := q.entries[matchIdx]
	// Undo the faulting store: write back the entry's own Size previous
	// bytes only, not up to the next 8-byte boundary.
	writeBytes(mem, faulting.Addr, faulting.OldBytes, faulting.Size)

	// Replay any younger store whose bytes overlap the undone range.
	for i := matchIdx + 1; i < len(q.entries); i++ {
		y := q.entries[i]
		if overlaps(faulting.Addr, faulting.Size, y.Addr, y.Size) {
			writeBytes(mem, y.Addr, y.NewBytes, y.Size)
		}
	}

	q.entries = append(q.entries[:matchIdx], q.entries[matchIdx+1:]...)
	return true
}

func writeBytes(mem Memory, addr uint64, value uint64, size int) {
	switch size {
	case SizeByte:
		mem.WriteByte(addr, uint8(value))
	case SizeHalf:
		mem.WriteHalf(addr, uint16(value))
	case SizeWord:
		mem.WriteWord(addr, uint32(value))
	case SizeDWord:
		mem.WriteDWord(addr, value)
	}
}

// LoadQueueEntry is one in-flight load (spec.md §3).
type LoadQueueEntry struct {
	Size      int
	Addr      uint64
	TargetReg int
	PrevValue uint64
	Valid     bool
}

// LoadQueue is a bounded FIFO of in-flight loads (spec.md §3, §4.4.2).
type LoadQueue struct {
	entries []LoadQueueEntry
	max     int
}

// NewLoadQueue creates a load queue with the given maximum depth.
func NewLoadQueue(max int) *LoadQueue {
	if max <= 0 {
		max = 1
	}
	return &LoadQueue{max: max}
}

func (q *LoadQueue) Reset() { q.entries = nil }

func (q *LoadQueue) Len() int { return len(q.entries) }

// Push appends a new load entry, dropping the oldest if at capacity.
func (q *LoadQueue) Push(e LoadQueueEntry) {
	if len(q.entries) >= q.max {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, e)
}

// ApplyLoadException implements spec.md §4.4.2's apply_load_exception.
// It finds the single matching (valid) load entry; if no younger load
// writes the same register, it restores the target register to the
// oldest prior load-queue value for that register, invalidates all
// older matching-target entries, and updates the prev-value of the
// nearest younger matching-target entry.
func (q *LoadQueue) ApplyLoadException(regs *IntRegisterFile, addr uint64) bool {
	matchIdx := -1
	matchCount := 0
	for i, e := range q.entries {
		if !e.Valid {
			continue
		}
		if addr >= e.Addr && addr < e.Addr+uint64(e.Size) {
			matchCount++
			matchIdx = i
		}
	}
	if matchCount != 1 {
		return false
	}

	target := q.entries[matchIdx].TargetReg
	youngerSameTarget := -1
	for i := matchIdx + 1; i < len(q.entries); i++ {
		if q.entries[i].Valid && q.entries[i].TargetReg == target {
			youngerSameTarget = i
			break
		}
	}
	restore := q.entries[matchIdx].PrevValue
	for i := 0; i < matchIdx; i++ {
		if q.entries[i].Valid && q.entries[i].TargetReg == target {
			restore = q.entries[i].PrevValue
			break
		}
	}
	if youngerSameTarget == -1 {
		regs.Poke(target, restore)
	} else {
		q.entries[youngerSameTarget].PrevValue = restore
	}

	for i := 0; i <= matchIdx; i++ {
		if q.entries[i].TargetReg == target {
			q.entries[i].Valid = false
		}
	}
	return true
}

// ApplyLoadFinished implements spec.md §4.4.2's apply_load_finished: a
// non-faulting completion. It removes the matching entry
// (oldest-or-newest per matchOldest) and updates earlier/later entries'
// prev-values identically so later exceptions still roll back right.
func (q *LoadQueue) ApplyLoadFinished(addr uint64, matchOldest bool) bool {
	var idx = -1
	if matchOldest {
		for i, e := range q.entries {
			if e.Valid && e.Addr == addr {
				idx = i
				break
			}
		}
	} else {
		for i := len(q.entries) - 1; i >= 0; i-- {
			if q.entries[i].Valid && q.entries[i].Addr == addr {
				idx = i
				break
			}
		}
	}
	if idx == -1 {
		return false
	}
	removed := q.entries[idx]
	for i := range q.entries {
		if i == idx {
			continue
		}
		if q.entries[i].TargetReg == removed.TargetReg {
			q.entries[i].PrevValue = removed.PrevValue
		}
	}
	q.entries = append(q.entries[:idx], q.entries[idx+1:]...)
	return true
}

// RemoveYoungestForSource implements spec.md §4.5 step 9: for a
// non-load retirement, remove the youngest load-queue entry matching
// an integer source register, because the processor would have
// stalled for that load so its value is now committed.
func (q *LoadQueue) RemoveYoungestForSource(reg int) {
	for i := len(q.entries) - 1; i >= 0; i-- {
		if q.entries[i].Valid && q.entries[i].TargetReg == reg {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

// InvalidateOlderForDest implements spec.md §4.5 step 9: for an
// integer destination, invalidate older load-queue entries matching it.
func (q *LoadQueue) InvalidateOlderForDest(reg int) {
	for i := range q.entries {
		if q.entries[i].TargetReg == reg {
			q.entries[i].Valid = false
		}
	}
}
