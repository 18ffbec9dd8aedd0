package inputs

import (
	"log/slog"

	"github.com/richinsley/goshaderlive/config"
)

// Entry is one resolved controller -> uniform binding.
type Entry struct {
	Key     ControllerKey
	Uniform string
}

// MappingTable associates controllers with uniform names. A table is built
// once per shader load and never modified afterwards.
type MappingTable struct {
	entries []Entry
	index   map[ControllerKey]int
}

// BuildTable flattens the configured mappings into a table. Mappings are
// applied in order, so when two name the same controller the later one
// wins. Mappings for devices that isOpen rejects are skipped; a nil isOpen
// accepts every device.
func BuildTable(mappings []config.Mapping, isOpen func(DeviceID) bool) *MappingTable {
	t := &MappingTable{index: make(map[ControllerKey]int)}
	for _, m := range mappings {
		key := ControllerKey{Device: DeviceID(m.Device), Channel: m.Channel, Control: m.Control}
		if isOpen != nil && !isOpen(key.Device) {
			slog.Debug("skipping mapping for unopened device", "key", key, "uniform", m.Uniform)
			continue
		}
		if i, ok := t.index[key]; ok {
			t.entries[i].Uniform = m.Uniform
			continue
		}
		t.index[key] = len(t.entries)
		t.entries = append(t.entries, Entry{Key: key, Uniform: m.Uniform})
	}
	return t
}

// Lookup returns the uniform bound to key.
func (t *MappingTable) Lookup(key ControllerKey) (string, bool) {
	if t == nil {
		return "", false
	}
	i, ok := t.index[key]
	if !ok {
		return "", false
	}
	return t.entries[i].Uniform, true
}

// Entries returns the bindings in build order.
func (t *MappingTable) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Uniforms returns the distinct uniform names in build order.
func (t *MappingTable) Uniforms() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool, len(t.entries))
	var names []string
	for _, e := range t.entries {
		if !seen[e.Uniform] {
			seen[e.Uniform] = true
			names = append(names, e.Uniform)
		}
	}
	return names
}

func (t *MappingTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
