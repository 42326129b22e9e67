package tasks

import (
	"fmt"
	"time"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	QueueLinks Phase = iota
	CheckLinks
)

func (p Phase) String() string {
	switch p {
	case QueueLinks:
		return "queue_links"
	case CheckLinks:
		return "check_links"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func queueLinksUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   QueueLinks,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Checking %d links...", total),
	}
}

func linkCheckedUpdate(step, total int, status LinkStatus) ProgressUpdate {
	var msg string
	switch {
	case status.Err != nil:
		msg = fmt.Sprintf("✗ %s (%v)", status.URL, status.Err)
	case status.OK():
		msg = fmt.Sprintf("✓ %s [%d, %s]", status.URL, status.StatusCode, status.Elapsed.Round(time.Millisecond))
	default:
		msg = fmt.Sprintf("✗ %s [%d]", status.URL, status.StatusCode)
	}

	return ProgressUpdate{
		Phase:   CheckLinks,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    status,
	}
}
