package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchRepairOrder Phase = iota
	ExportRepairOrder
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchRepairOrder:
		return "fetch_repair_order"
	case ExportRepairOrder:
		return "export_repair_order"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress delivers update without blocking. A nil channel is ignored.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRepairOrder,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching repair order %s...", step, total, id),
	}
}

func exportCompletedUpdate(step, total int, res ExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRepairOrder,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ RO #%s (%d files)", step, total, res.Label(), len(res.Files)),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res ExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRepairOrder,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ RO #%s: %v", step, total, res.Label(), res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest to %s", path),
	}
}
