package records

const (
	// RecordTypeKey is the discriminant field set by the webhook provider
	RecordTypeKey = "RecordType"

	// DefaultRecordType is used for records whose RecordType is missing or empty
	DefaultRecordType = "inbound"
)

// PartitionMap holds records grouped by a discriminant value.
// Bucket iteration order is the order in which values were first seen.
type PartitionMap struct {
	keys    []string
	buckets map[string][]Record
}

// Partition groups records by the value stored under key. Records without the key,
// or with an empty value, go to the defaultValue bucket. Arrival order is kept
// within each bucket.
func Partition(rows []Record, key, defaultValue string) *PartitionMap {
	pm := &PartitionMap{buckets: map[string][]Record{}}
	for _, row := range rows {
		name, ok := row.Get(key)
		if !ok || name == "" {
			name = defaultValue
		}
		if _, seen := pm.buckets[name]; !seen {
			pm.keys = append(pm.keys, name)
		}
		pm.buckets[name] = append(pm.buckets[name], row)
	}
	return pm
}

// Keys returns bucket names in first-seen order
func (pm *PartitionMap) Keys() []string {
	return append([]string(nil), pm.keys...)
}

// Get returns the records in the named bucket
func (pm *PartitionMap) Get(name string) []Record {
	return pm.buckets[name]
}

// Len returns the number of buckets
func (pm *PartitionMap) Len() int {
	return len(pm.keys)
}
