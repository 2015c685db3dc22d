package tasks

import (
	"fmt"

	"github.com/desertthunder/soundmatch/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or server layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data, such as a [services.Result]
}

// Operation phase enumeration
type Phase int

const (
	SearchProviders Phase = iota
	ResolveProvider
	RunStrategies
	UseFallback
	Recognize
	Enrich
	SaveHistory
)

func (p Phase) String() string {
	switch p {
	case SearchProviders:
		return "search_providers"
	case ResolveProvider:
		return "resolve_provider"
	case RunStrategies:
		return "run_strategies"
	case UseFallback:
		return "use_fallback"
	case Recognize:
		return "recognize"
	case Enrich:
		return "enrich"
	case SaveHistory:
		return "save_history"
	default:
		return ""
	}
}

// sendProgress delivers u without blocking; updates are dropped when nobody is reading.
func sendProgress(ch chan<- ProgressUpdate, u ProgressUpdate) {
	if ch == nil {
		return
	}
	select {
	case ch <- u:
	default:
	}
}

func providerUpdate(phase Phase, step, total int, res services.Result) ProgressUpdate {
	var msg string
	switch res.Outcome() {
	case services.OutcomeOK:
		msg = fmt.Sprintf("%s: %d track(s)", res.Platform.DisplayName(), len(res.Tracks))
	case services.OutcomeEmpty:
		msg = fmt.Sprintf("%s: no results", res.Platform.DisplayName())
	default:
		msg = fmt.Sprintf("%s: failed (%v)", res.Platform.DisplayName(), res.Err)
	}
	return ProgressUpdate{Phase: phase, Step: step, Total: total, Message: msg, Data: res}
}

func strategyUpdate(step, total int, name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RunStrategies,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s strategy: %d candidate(s)", name, count),
	}
}

func fallbackUpdate(reason string) ProgressUpdate {
	return ProgressUpdate{Phase: UseFallback, Step: 1, Total: 1, Message: "Using popular picks: " + reason}
}

func stepUpdate(phase Phase, msg string, data any) ProgressUpdate {
	return ProgressUpdate{Phase: phase, Step: 1, Total: 1, Message: msg, Data: data}
}
