package logging

import "strings"

// shortRunIDLength keeps console subjects readable; the full ID stays in JSON output.
const shortRunIDLength = 8

// FormatSubject builds the run/stage subject string used in console output.
func FormatSubject(runID, stage string) string {
	runID = strings.TrimSpace(runID)
	stage = strings.TrimSpace(stage)
	if len(runID) > shortRunIDLength {
		runID = runID[:shortRunIDLength]
	}
	switch {
	case runID != "" && stage != "":
		return "Run " + runID + " (" + stage + ")"
	case runID != "":
		return "Run " + runID
	case stage != "":
		return stage
	default:
		return ""
	}
}
