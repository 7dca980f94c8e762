// Package output renders hexflow results on the terminal.
//
// The package offers a simple API for printing colored messages with
// automatic color detection and graceful fallback for non-terminal
// environments, plus renderers for run payloads in text or JSON form.
//
// Features:
//   - Automatic terminal detection
//   - NO_COLOR environment variable support
//   - Different message types (success, error, warning, info, step, detail)
//   - Run, status and run list rendering as text or JSON
//   - Test-friendly with custom writers
//
// Example usage:
//
//	printer := output.NewPrinter()
//	printer.Success("Run %s completed", runID)
//	printer.Error("Failed to trigger run: %v", err)
//	_ = printer.Status(output.FormatJSON, status)
package output
