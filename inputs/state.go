package inputs

type slot struct {
	raw uint8
	seq uint64
}

// State caches the latest raw value seen for each controller, stamped with
// the order in which values arrived. Entries are never removed; values for
// controllers the active mapping table no longer names are simply not read.
//
// State is owned by the render thread and is not safe for concurrent use.
type State struct {
	values map[ControllerKey]slot
	seq    uint64
}

func NewState() *State {
	return &State{values: make(map[ControllerKey]slot)}
}

// Merge folds one poll's updates into the cache, in order.
func (s *State) Merge(updates []Update) {
	for _, u := range updates {
		s.seq++
		s.values[u.Key] = slot{raw: u.Value, seq: s.seq}
	}
}

// Value returns the cached raw value for key.
func (s *State) Value(key ControllerKey) (uint8, bool) {
	v, ok := s.values[key]
	return v.raw, ok
}

func (s *State) Len() int {
	return len(s.values)
}

// UniformValue is the raw controller value a uniform receives.
type UniformValue struct {
	Uniform string
	Raw     uint8
}

// Resolve returns one value per uniform of table that has seen input, in
// the table's uniform order. When several controllers feed the same
// uniform, the one updated most recently wins.
func (s *State) Resolve(table *MappingTable) []UniformValue {
	var out []UniformValue
	index := make(map[string]int)
	newest := make(map[string]uint64)
	for _, e := range table.Entries() {
		v, ok := s.values[e.Key]
		if !ok {
			continue
		}
		i, seen := index[e.Uniform]
		if !seen {
			index[e.Uniform] = len(out)
			newest[e.Uniform] = v.seq
			out = append(out, UniformValue{Uniform: e.Uniform, Raw: v.raw})
			continue
		}
		if v.seq > newest[e.Uniform] {
			newest[e.Uniform] = v.seq
			out[i].Raw = v.raw
		}
	}
	return out
}
