package notify

import (
	"fmt"

	mqcontracts "taskhive/contracts/mq"
)

// Summarize collapses the log entries of one save into a single message:
// a lone change keeps its detail text verbatim, a multi-field edit becomes
// one summary line instead of one notification per field.
func Summarize(entries []mqcontracts.LogEntryRecord) string {
	if len(entries) == 0 {
		return ""
	}
	if len(entries) == 1 {
		return entries[0].Detail
	}
	return fmt.Sprintf("%s and %d other fields have been changed", entries[0].Field, len(entries)-1)
}
