package catalog

import "fmt"

// Redis key pattern helpers
//
// All keys and Pub/Sub channels are namespaced by resource name.
//
// Key pattern: modcat:{resource_name}:{entity}:{id}
// Channel pattern: modcat:{resource_name}:{event_type}_events

// RecordKey returns the Redis key for a record hash.
// Pattern: modcat:{resource_name}:record:{record_id}
func RecordKey(resourceName, recordID string) string {
	return fmt.Sprintf("modcat:%s:record:%s", resourceName, recordID)
}

// RecordKeyPrefix returns the prefix shared by every record key of a resource.
// Pattern: modcat:{resource_name}:record:
func RecordKeyPrefix(resourceName string) string {
	return fmt.Sprintf("modcat:%s:record:", resourceName)
}

// HandleKey returns the Redis key for the handle->record index set.
// Several records may share one handle when two files declare the same name/version.
// Pattern: modcat:{resource_name}:handle:{handle_value}
func HandleKey(resourceName, handleValue string) string {
	return fmt.Sprintf("modcat:%s:handle:%s", resourceName, handleValue)
}

// RunKey returns the Redis key for the last publication summary.
// Pattern: modcat:{resource_name}:last_run
func RunKey(resourceName string) string {
	return fmt.Sprintf("modcat:%s:last_run", resourceName)
}

// RecordEventsChannel returns the Pub/Sub channel for record publication events.
// Pattern: modcat:{resource_name}:record_events
func RecordEventsChannel(resourceName string) string {
	return fmt.Sprintf("modcat:%s:record_events", resourceName)
}
