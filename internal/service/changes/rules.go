package changes

import (
	"fmt"
	"strconv"
	"time"

	"taskhive/internal/model"
)

// FieldRule resolves the action kind and detail text for one scalar field.
// Extend the table, not the logic: new behavior means a new table entry.
type FieldRule struct {
	// Kind classifies the change given the new value ("" means unset).
	Kind func(value string) string
	// Detail renders the human-readable line. actor may be empty when the
	// acting user no longer exists.
	Detail func(actor, field, value string) string
}

var defaultRule = FieldRule{
	Kind: func(string) string { return model.ActionSet },
	Detail: func(actor, field, value string) string {
		return fmt.Sprintf("%s set %s %s", actor, field, value)
	},
}

var fieldRules = map[string]FieldRule{
	"module_id": {
		Kind: func(value string) string {
			if value == "" {
				return model.ActionRemove
			}
			return model.ActionAdd
		},
		Detail: func(actor, field, value string) string {
			if value == "" {
				return fmt.Sprintf("%s removed the task from the module", actor)
			}
			return fmt.Sprintf("%s added this task to module %s", actor, value)
		},
	},
}

// RuleFor returns the rule for a scalar field, falling back to the generic
// SET rule.
func RuleFor(field string) FieldRule {
	if rule, ok := fieldRules[field]; ok {
		return rule
	}
	return defaultRule
}

// RelationDetail renders the detail line for a relation delta. names is the
// comma-joined display names of the affected objects.
func RelationDetail(actor, relation, action, names string) string {
	if action == model.ActionRemove {
		return fmt.Sprintf("%s removed the %s: %s", actor, relation, names)
	}
	return fmt.Sprintf("%s added a new %s: %s", actor, relation, names)
}

// Snapshot accessors per scalar field. The snapshot is the new value
// rendered as a string, empty for unset nullable fields.
var fieldValues = map[string]func(t *model.Task) string{
	"title":       func(t *model.Task) string { return t.Title },
	"description": func(t *model.Task) string { return t.Description },
	"state":       func(t *model.Task) string { return t.State },
	"priority":    func(t *model.Task) string { return strconv.Itoa(t.Priority) },
	"deadline": func(t *model.Task) string {
		if t.Deadline == nil {
			return ""
		}
		return t.Deadline.Format(time.RFC3339)
	},
	"module_id": func(t *model.Task) string {
		if t.ModuleID == nil {
			return ""
		}
		return strconv.FormatInt(*t.ModuleID, 10)
	},
}

// TaskFieldValue snapshots a scalar field's current value off the task.
func TaskFieldValue(t *model.Task, field string) string {
	if accessor, ok := fieldValues[field]; ok {
		return accessor(t)
	}
	return ""
}
