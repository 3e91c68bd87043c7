// Package annotation holds the tracked-object records produced while
// annotating a video.
//
// A TrackedObject aggregates the instances (per-frame boxes and attributes)
// of a single object across frames. It is a plain data container: storage
// formats and tracking algorithms live elsewhere.
package annotation

import "fmt"

// Instance is one observation of a tracked object, keyed by attribute name
// (for example "frame_id", "x1", "y1", "x2", "y2").
type Instance map[string]any

// Record is a flattened instance that also carries the object identity.
type Record map[string]any

// DefaultTags returns the tag vocabulary attached to new objects.
func DefaultTags() map[string][]string {
	return map[string][]string{"view": {"small", "middle", "large"}}
}

// TrackedObject is a single tracked object with all of its instances.
type TrackedObject struct {
	TrackID     int
	ObjectClass string
	Instances   []Instance
	Tags        map[string][]string
}

// NewTrackedObject creates an object seeded with its first instance.
func NewTrackedObject(trackID int, objectClass string, first Instance) *TrackedObject {
	t := &TrackedObject{
		TrackID:     trackID,
		ObjectClass: objectClass,
		Tags:        DefaultTags(),
	}
	if first != nil {
		t.AddInstance(first)
	}
	return t
}

// AddInstance appends an instance.
func (t *TrackedObject) AddInstance(instance Instance) {
	t.Instances = append(t.Instances, instance)
}

// ChangeTrackID reassigns the object's track id.
func (t *TrackedObject) ChangeTrackID(trackID int) {
	t.TrackID = trackID
}

// Len returns the number of instances.
func (t *TrackedObject) Len() int {
	return len(t.Instances)
}

// Instance returns instance i flattened with the object identity.
func (t *TrackedObject) Instance(i int) (Record, error) {
	if i < 0 || i >= len(t.Instances) {
		return nil, fmt.Errorf("instance %d out of range [0, %d)", i, len(t.Instances))
	}
	return t.flatten(t.Instances[i]), nil
}

// ToRecords flattens every instance, in insertion order.
func (t *TrackedObject) ToRecords() []Record {
	records := make([]Record, 0, len(t.Instances))
	for _, instance := range t.Instances {
		records = append(records, t.flatten(instance))
	}
	return records
}

func (t *TrackedObject) flatten(instance Instance) Record {
	r := make(Record, len(instance)+2)
	r["track_id"] = t.TrackID
	r["object_class"] = t.ObjectClass
	for k, v := range instance {
		r[k] = v
	}
	return r
}
