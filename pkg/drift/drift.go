// Package drift detects coverage regressions by comparing a new snapshot
// against the previous one.
package drift

import (
	"fmt"
	"sort"
	"time"

	"github.com/covview/covview/pkg/model"
)

// Severity represents the severity level of a drift alert.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// AlertType categorizes different kinds of drift alerts.
type AlertType string

const (
	AlertOverallDrop  AlertType = "overall_drop"
	AlertFileDrop     AlertType = "file_drop"
	AlertFileRemoved  AlertType = "file_removed"
	AlertNewUncovered AlertType = "new_uncovered"
)

// Thresholds for alert severities, as coverage fractions.
const (
	overallDropWarning  = 0.01
	overallDropCritical = 0.05
	fileDropWarning     = 0.05
	fileDropCritical    = 0.20
)

// Alert represents a single drift detection alert.
type Alert struct {
	Type        AlertType `json:"type"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	Path        string    `json:"path,omitempty"`
	BaselineVal float64   `json:"baseline_value,omitempty"`
	CurrentVal  float64   `json:"current_value,omitempty"`
	Delta       float64   `json:"delta,omitempty"`
	DetectedAt  time.Time `json:"detected_at"`
}

// Result contains the complete drift analysis for one snapshot pair.
type Result struct {
	HasDrift bool    `json:"has_drift"`
	Alerts   []Alert `json:"alerts"`
}

// Regressions returns only the warning and critical alerts.
func (r Result) Regressions() []Alert {
	var out []Alert
	for _, a := range r.Alerts {
		if a.Severity != SeverityInfo {
			out = append(out, a)
		}
	}
	return out
}

// fileStats walks the snapshot and collects per-file coverage keyed by
// slash-joined path from the root.
func fileStats(root *model.Node) map[string]model.Stats {
	out := make(map[string]model.Stats)
	var walk func(n *model.Node, path string)
	walk = func(n *model.Node, path string) {
		if n.Kind == model.KindClass {
			out[path] = n.Total()
			return
		}
		for _, c := range n.Children {
			walk(c, path+"/"+c.Name)
		}
	}
	walk(root, root.Name)
	return out
}

// Compare analyzes curr against prev and reports coverage drift. A nil
// prev yields an empty result; the first snapshot has no baseline.
func Compare(prev, curr *model.Node) Result {
	var res Result
	if prev == nil || curr == nil {
		return res
	}
	now := time.Now()

	prevTotal := prev.Total()
	currTotal := curr.Total()
	if prevTotal.Total > 0 && currTotal.Total > 0 {
		delta := currTotal.Percent() - prevTotal.Percent()
		if delta <= -overallDropWarning {
			sev := SeverityWarning
			if delta <= -overallDropCritical {
				sev = SeverityCritical
			}
			res.Alerts = append(res.Alerts, Alert{
				Type:     AlertOverallDrop,
				Severity: sev,
				Message: fmt.Sprintf("overall coverage dropped %.1f%% (%.1f%% -> %.1f%%)",
					-delta*100, prevTotal.Percent()*100, currTotal.Percent()*100),
				BaselineVal: prevTotal.Percent(),
				CurrentVal:  currTotal.Percent(),
				Delta:       delta,
				DetectedAt:  now,
			})
		}
	}

	prevFiles := fileStats(prev)
	currFiles := fileStats(curr)

	paths := make([]string, 0, len(currFiles))
	for p := range currFiles {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		cur := currFiles[path]
		base, existed := prevFiles[path]
		if !existed {
			if cur.Total > 0 && cur.Covered == 0 {
				res.Alerts = append(res.Alerts, Alert{
					Type:       AlertNewUncovered,
					Severity:   SeverityWarning,
					Message:    fmt.Sprintf("%s is new and entirely uncovered (%d statements)", path, cur.Total),
					Path:       path,
					DetectedAt: now,
				})
			}
			continue
		}
		if base.Total == 0 || cur.Total == 0 {
			continue
		}
		delta := cur.Percent() - base.Percent()
		if delta <= -fileDropWarning {
			sev := SeverityWarning
			if delta <= -fileDropCritical {
				sev = SeverityCritical
			}
			res.Alerts = append(res.Alerts, Alert{
				Type:     AlertFileDrop,
				Severity: sev,
				Message: fmt.Sprintf("%s dropped %.1f%% (%.1f%% -> %.1f%%)",
					path, -delta*100, base.Percent()*100, cur.Percent()*100),
				Path:        path,
				BaselineVal: base.Percent(),
				CurrentVal:  cur.Percent(),
				Delta:       delta,
				DetectedAt:  now,
			})
		}
	}

	removed := make([]string, 0)
	for p := range prevFiles {
		if _, ok := currFiles[p]; !ok {
			removed = append(removed, p)
		}
	}
	sort.Strings(removed)
	for _, path := range removed {
		res.Alerts = append(res.Alerts, Alert{
			Type:       AlertFileRemoved,
			Severity:   SeverityInfo,
			Message:    fmt.Sprintf("%s left the profile", path),
			Path:       path,
			DetectedAt: now,
		})
	}

	res.HasDrift = len(res.Alerts) > 0
	return res
}
