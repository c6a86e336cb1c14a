package registry

// HostRecord is one tracked host of a project, keyed by its address.
type HostRecord struct {
	Address    string
	Hostname   string
	HardwareID string

	// Changed is set by Merge when the record was created or its hostname
	// moved during this run. It is never persisted.
	Changed bool
}

// Registry maps addresses to host records and remembers insertion order,
// so that cache rewrites and change logs come out in a stable order.
type Registry struct {
	keys    []string
	records map[string]*HostRecord
}

func New() *Registry {
	return &Registry{
		records: make(map[string]*HostRecord),
	}
}

// Put inserts or replaces the record stored under rec.Address. Replacing
// keeps the key's original position.
func (r *Registry) Put(rec HostRecord) {
	if _, ok := r.records[rec.Address]; !ok {
		r.keys = append(r.keys, rec.Address)
	}

	stored := rec
	r.records[rec.Address] = &stored
}

func (r *Registry) Get(address string) (HostRecord, bool) {
	rec, ok := r.records[address]
	if !ok {
		return HostRecord{}, false
	}

	return *rec, true
}

func (r *Registry) Len() int {
	return len(r.keys)
}

func (r *Registry) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Records returns copies of all records in insertion order.
func (r *Registry) Records() []HostRecord {
	result := make([]HostRecord, 0, len(r.keys))
	for _, k := range r.keys {
		result = append(result, *r.records[k])
	}

	return result
}

// Changed returns the records flagged by the last merge.
func (r *Registry) Changed() []HostRecord {
	var result []HostRecord
	for _, k := range r.keys {
		if rec := r.records[k]; rec.Changed {
			result = append(result, *rec)
		}
	}

	return result
}

// Clone returns a deep copy with every Changed flag cleared.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		keys:    make([]string, len(r.keys)),
		records: make(map[string]*HostRecord, len(r.records)),
	}
	copy(c.keys, r.keys)

	for k, rec := range r.records {
		cp := *rec
		cp.Changed = false
		c.records[k] = &cp
	}

	return c
}

// Equal reports whether both registries hold the same records in the same
// order, ignoring Changed flags.
func (r *Registry) Equal(o *Registry) bool {
	if r.Len() != o.Len() {
		return false
	}

	for i, k := range r.keys {
		if o.keys[i] != k {
			return false
		}

		a, b := r.records[k], o.records[k]
		if a.Hostname != b.Hostname || a.HardwareID != b.HardwareID {
			return false
		}
	}

	return true
}
