package catalog

import "fmt"

// Redis key pattern helpers
//
// Every key and Pub/Sub channel is namespaced by studio namespace, and
// show-owned data additionally by show id, so one show's documents can be
// listed without touching any other show.
//
// Key pattern: concepto:{namespace}:show:{show_id}:{collection}:{id}
// Channel pattern: concepto:{namespace}:show:{show_id}:events

// ShowsKey returns the Redis key for the set of all show IDs (the catalog index).
// Pattern: concepto:{namespace}:shows
func ShowsKey(namespace string) string {
	return fmt.Sprintf("concepto:%s:shows", namespace)
}

// ShowKey returns the Redis key for a show hash.
// Pattern: concepto:{namespace}:show:{show_id}
func ShowKey(namespace, showID string) string {
	return fmt.Sprintf("concepto:%s:show:%s", namespace, showID)
}

// CollectionIndexKey returns the Redis key for the set of document IDs in one
// collection of one show.
// Pattern: concepto:{namespace}:show:{show_id}:{collection}
func CollectionIndexKey(namespace, showID string, collection Collection) string {
	return fmt.Sprintf("concepto:%s:show:%s:%s", namespace, showID, collection)
}

// DocumentKey returns the Redis key for a single document hash.
// Pattern: concepto:{namespace}:show:{show_id}:{collection}:{id}
func DocumentKey(namespace, showID string, collection Collection, id string) string {
	return fmt.Sprintf("concepto:%s:show:%s:%s:%s", namespace, showID, collection, id)
}

// ShowEventsChannel returns the Pub/Sub channel carrying change events for a show.
// Pattern: concepto:{namespace}:show:{show_id}:events
func ShowEventsChannel(namespace, showID string) string {
	return fmt.Sprintf("concepto:%s:show:%s:events", namespace, showID)
}
