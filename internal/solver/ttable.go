package solver

import "chicago/internal/domain"

// ttKey identifies a trick-start position: rank-compressed remaining
// holdings plus the seat on lead. Trump is fixed per search instance.
type ttKey struct {
	hands  handSet
	leader domain.Seat
}

// ttEntry bounds the declaring side's tricks from the keyed position.
type ttEntry struct {
	lo, hi int8
}

// ttable is a bounded transposition table owned by a single searcher.
// When full it is cleared wholesale, keeping memory use predictable;
// parallel searchers each own an independent table.
type ttable struct {
	entries map[ttKey]ttEntry
	max     int
}

func newTTable(max int) *ttable {
	return &ttable{entries: make(map[ttKey]ttEntry, 1024), max: max}
}

func (t *ttable) probe(k ttKey) (ttEntry, bool) {
	e, ok := t.entries[k]
	return e, ok
}

// store merges new bounds into the table, tightening any existing entry.
func (t *ttable) store(k ttKey, lo, hi int8) {
	if e, ok := t.entries[k]; ok {
		if e.lo > lo {
			lo = e.lo
		}
		if e.hi < hi {
			hi = e.hi
		}
	} else if len(t.entries) >= t.max {
		t.entries = make(map[ttKey]ttEntry, 1024)
	}
	t.entries[k] = ttEntry{lo: lo, hi: hi}
}
