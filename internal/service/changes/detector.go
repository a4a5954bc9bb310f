// Package changes decides which task mutations are worth logging and
// notifying about, and normalizes them into change events. It is pure:
// no I/O happens here.
package changes

import "time"

// Relations tracked through membership deltas.
const (
	RelationAssignees = "assignees"
	RelationTags      = "tags"
)

// Event is one detected mutation worth logging. A scalar save bundles all
// its changed fields; a relation delta carries the affected object ids.
type Event struct {
	TaskID     int64
	Fields     []string // scalar save, empty for relation events
	Relation   string   // RelationAssignees / RelationTags, empty for scalar saves
	Action     string   // model.ActionAdd / model.ActionRemove for relation events
	ObjectIDs  []int64
	ActorID    *int64
	Detail     string // caller-supplied override, wins over generated text
	OccurredAt time.Time
}

// Housekeeping fields that never produce a log entry on their own.
var excludedFields = map[string]struct{}{
	"updated_at": {},
	"updated_by": {},
	"archive_at": {},
}

// Detect normalizes a scalar save into an event, or nil when nothing
// interesting changed after housekeeping fields are filtered out.
func Detect(taskID int64, changedFields []string, actorID *int64, occurredAt time.Time) *Event {
	fields := make([]string, 0, len(changedFields))
	for _, f := range changedFields {
		if _, excluded := excludedFields[f]; excluded {
			continue
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil
	}

	return &Event{
		TaskID:     taskID,
		Fields:     fields,
		ActorID:    actorID,
		OccurredAt: occurredAt,
	}
}

// DetectRelation normalizes a relation-membership delta, or nil for an
// unknown relation or an empty id set.
func DetectRelation(taskID int64, relation, action string, objectIDs []int64, actorID *int64, occurredAt time.Time) *Event {
	if relation != RelationAssignees && relation != RelationTags {
		return nil
	}
	if len(objectIDs) == 0 {
		return nil
	}

	return &Event{
		TaskID:     taskID,
		Relation:   relation,
		Action:     action,
		ObjectIDs:  objectIDs,
		ActorID:    actorID,
		OccurredAt: occurredAt,
	}
}
