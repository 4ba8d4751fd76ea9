package shared

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// WarningType represents different types of per-track diagnostics
type WarningType int

const (
	ResolveWarning WarningType = iota
	FetchWarning
	TranscodeWarning
	TaggingWarning
	SkippedEntryWarning
	PublishWarning
)

// Warning behaviours accepted by NewWarningCollector.
const (
	WarningImmediate = "immediate"
	WarningSummary   = "summary"
	WarningSilent    = "silent"
)

// Reporter receives per-track diagnostics. Implementations must be safe for
// concurrent use; every pipeline chain reports through the same one.
type Reporter interface {
	AddWarning(warningType WarningType, context, message, details string)
}

// Warning represents a single warning with context
type Warning struct {
	Type    WarningType
	Message string
	Context string // track context, usually "<songname> (<songmid>)"
	Details string
}

// WarningCollector collects diagnostics during a pipeline run. In
// "immediate" mode each warning is also printed as it arrives.
type WarningCollector struct {
	mu        sync.Mutex
	warnings  []Warning
	enabled   bool
	immediate bool
}

// NewWarningCollector creates a collector for the given behaviour.
func NewWarningCollector(behavior string) *WarningCollector {
	return &WarningCollector{
		warnings:  make([]Warning, 0),
		enabled:   behavior != WarningSilent,
		immediate: behavior == WarningImmediate,
	}
}

// AddWarning adds a warning to the collector
func (wc *WarningCollector) AddWarning(warningType WarningType, context, message, details string) {
	if !wc.enabled {
		return
	}

	warning := Warning{
		Type:    warningType,
		Message: message,
		Context: context,
		Details: details,
	}

	wc.mu.Lock()
	wc.warnings = append(wc.warnings, warning)
	wc.mu.Unlock()

	if wc.immediate {
		if details != "" {
			ColorWarning.Printf("⚠️ %s: %s (%s)\n", message, context, details)
		} else {
			ColorWarning.Printf("⚠️ %s: %s\n", message, context)
		}
	}
}

// AddResolveFailure records a track whose media link could not be resolved.
func (wc *WarningCollector) AddResolveFailure(context, details string) {
	wc.AddWarning(ResolveWarning, context, "Could not resolve download link", details)
}

// AddFetchFailure records a failed media download.
func (wc *WarningCollector) AddFetchFailure(context, details string) {
	wc.AddWarning(FetchWarning, context, "Download failed", details)
}

// AddTranscodeFailure records a failed conversion; the source file is kept.
func (wc *WarningCollector) AddTranscodeFailure(context, details string) {
	wc.AddWarning(TranscodeWarning, context, "Conversion failed", details)
}

// AddSkippedEntry records an input entry without a name or identifier.
func (wc *WarningCollector) AddSkippedEntry(context string) {
	wc.AddWarning(SkippedEntryWarning, context, "Incomplete track list entry skipped", "")
}

// HasWarnings returns true if there are any warnings
func (wc *WarningCollector) HasWarnings() bool {
	return wc.GetWarningCount() > 0
}

// GetWarningCount returns the total number of warnings
func (wc *WarningCollector) GetWarningCount() int {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return len(wc.warnings)
}

// Warnings returns a copy of everything collected so far.
func (wc *WarningCollector) Warnings() []Warning {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return append([]Warning(nil), wc.warnings...)
}

// GetWarningsByType returns warnings grouped by type
func (wc *WarningCollector) GetWarningsByType() map[WarningType][]Warning {
	grouped := make(map[WarningType][]Warning)
	for _, warning := range wc.Warnings() {
		grouped[warning.Type] = append(grouped[warning.Type], warning)
	}
	return grouped
}

// PrintSummary prints a formatted summary of all warnings
func (wc *WarningCollector) PrintSummary() {
	warnings := wc.Warnings()
	if len(warnings) == 0 {
		return
	}

	ColorWarning.Printf("\n⚠️  Warning Summary (%d warnings):\n", len(warnings))
	ColorWarning.Println(strings.Repeat("─", 50))

	grouped := wc.GetWarningsByType()

	var types []WarningType
	for warningType := range grouped {
		types = append(types, warningType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, warningType := range types {
		wc.printWarningTypeSection(warningType, grouped[warningType])
	}
}

func (wc *WarningCollector) printWarningTypeSection(warningType WarningType, warnings []Warning) {
	if len(warnings) == 0 {
		return
	}

	ColorWarning.Printf("\n%s (%d):\n", warningTypeTitle(warningType), len(warnings))

	sort.SliceStable(warnings, func(i, j int) bool { return warnings[i].Context < warnings[j].Context })
	for _, warning := range warnings {
		line := fmt.Sprintf("  • %s", warning.Context)
		if warning.Details != "" {
			line += fmt.Sprintf(": %s", warning.Details)
		}
		ColorWarning.Println(line)
	}
}

func warningTypeTitle(warningType WarningType) string {
	switch warningType {
	case ResolveWarning:
		return "Link Resolution Failures"
	case FetchWarning:
		return "Download Failures"
	case TranscodeWarning:
		return "Conversion Failures (source kept)"
	case TaggingWarning:
		return "Tagging Failures"
	case SkippedEntryWarning:
		return "Skipped Track List Entries"
	case PublishWarning:
		return "Navidrome Publish Failures"
	default:
		return "Other Warnings"
	}
}

// TrackContext formats the context string used for a track's diagnostics.
func TrackContext(track TrackDescriptor) string {
	return fmt.Sprintf("%s (%s)", track.Name, track.Identifier)
}

type trackKey struct{}

// WithTrack labels ctx with track so diagnostics raised by code that only
// sees the identifier can name the whole track.
func WithTrack(ctx context.Context, track TrackDescriptor) context.Context {
	return context.WithValue(ctx, trackKey{}, track)
}

// DiagnosticContext returns the TrackContext of the track carried by ctx,
// or fallback when ctx carries none.
func DiagnosticContext(ctx context.Context, fallback string) string {
	if track, ok := ctx.Value(trackKey{}).(TrackDescriptor); ok {
		return TrackContext(track)
	}
	return fallback
}
