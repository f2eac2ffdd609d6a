package utils

type Hashable interface {
	HashCode() uint64
	EqualI(Hashable) bool
}

// Map is a hash map keyed by Hashable values, tolerant of hash collisions.
type Map map[uint64][]mapEntry

type mapEntry struct {
	e Hashable
	v interface{}
}

func (m Map) Find(e Hashable) (interface{}, bool) {
	s, ok := m[e.HashCode()]
	if !ok {
		return nil, false
	}
	for _, x := range s {
		if x.e.EqualI(e) {
			return x.v, true
		}
	}
	return nil, false
}

func (m Map) Set(e Hashable, v interface{}) {
	h := e.HashCode()
	s := m[h]
	for i := range s {
		if s[i].e.EqualI(e) {
			s[i].v = v
			return
		}
	}
	m[h] = append(s, mapEntry{
		e: e,
		v: v,
	})
}

// Add inserts e when it is absent and returns the stored value
func (m Map) Add(e Hashable, v interface{}) interface{} {
	h := e.HashCode()
	s := m[h]
	for _, x := range s {
		if x.e.EqualI(e) {
			return x.v
		}
	}
	m[h] = append(s, mapEntry{
		e: e,
		v: v,
	})
	return v
}

func (m Map) Len() int {
	n := 0
	for _, s := range m {
		n += len(s)
	}
	return n
}

func (m Map) Clear() {
	for k := range m {
		delete(m, k)
	}
}
