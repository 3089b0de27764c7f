package schema

// Remap maps logical field names (as clients write them) to schema paths.
// It is built once per entity and only read afterwards, so it is safe for
// concurrent use without locking.
type Remap map[string]string

// Resolve returns the schema path for a logical name, or the name itself when
// the table has no entry for it.
func (r Remap) Resolve(key string) string {
	if path, ok := r[key]; ok {
		return path
	}
	return key
}
