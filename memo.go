package gruntz

// memo caches the results of engine calls within one top-level
// computation. Entries are keyed by the limit variable and the canonical
// form of the argument. A key is written at most once; errors are never
// cached.
type memo struct {
	limits map[string]Expr
	signs  map[string]int
	leads  map[string]leadEntry
}

type leadEntry struct {
	coeff Expr
	exp   Expr
}

func newMemo() *memo {
	return &memo{
		limits: map[string]Expr{},
		signs:  map[string]int{},
		leads:  map[string]leadEntry{},
	}
}

func memoKey(x *Sym, e Expr) string { return x.name + "\x00" + e.String() }

func (m *memo) lookupLimit(key string) (Expr, bool) {
	v, ok := m.limits[key]
	return v, ok
}

func (m *memo) storeLimit(key string, v Expr) {
	if _, ok := m.limits[key]; !ok {
		m.limits[key] = v
	}
}

func (m *memo) lookupSign(key string) (int, bool) {
	v, ok := m.signs[key]
	return v, ok
}

func (m *memo) storeSign(key string, v int) {
	if _, ok := m.signs[key]; !ok {
		m.signs[key] = v
	}
}

func (m *memo) lookupLead(key string) (leadEntry, bool) {
	v, ok := m.leads[key]
	return v, ok
}

func (m *memo) storeLead(key string, v leadEntry) {
	if _, ok := m.leads[key]; !ok {
		m.leads[key] = v
	}
}

func (m *memo) size() int { return len(m.limits) + len(m.signs) + len(m.leads) }
