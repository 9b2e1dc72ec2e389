package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// DebugMode controls whether PrintDebug output is visible.
var DebugMode = false

// QuietMode suppresses informational messages; errors and warnings are still shown.
var QuietMode = false

// Output streams, swapped out in tests.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// logPrefix tags every line printed by the CLI.
const logPrefix = "[LDMX]"

// ---------------------------------------------------------
// Raw colors stay private; logic code goes through Style*.
// ---------------------------------------------------------

var (
	red      = color.New(color.FgRed).SprintFunc()
	green    = color.New(color.FgGreen).SprintFunc()
	yellow   = color.New(color.FgYellow).SprintFunc()
	blueBold = color.New(color.FgBlue, color.Bold).SprintFunc()
	magenta  = color.New(color.FgMagenta).SprintFunc()
	cyan     = color.New(color.FgCyan).SprintFunc()
	cyanBold = color.New(color.FgCyan, color.Bold).SprintFunc()
	gray     = color.New(color.FgWhite).SprintFunc()
	bold     = color.New(color.Bold).SprintFunc()
)

// StyleError formats failures (Red).
func StyleError(msg string) string { return red(msg) }

// StyleSuccess formats success messages (Green).
func StyleSuccess(msg string) string { return green(msg) }

// StyleWarning formats non-critical warnings (Yellow).
func StyleWarning(msg string) string { return yellow(msg) }

// StyleHint formats tips (Cyan).
func StyleHint(msg string) string { return cyan(msg) }

// StyleNote formats neutral annotations (Magenta).
func StyleNote(msg string) string { return magenta(msg) }

// StyleInfo formats status labels or properties (Magenta).
func StyleInfo(msg string) string { return magenta(msg) }

// StyleDebug formats low-level technical info (Gray).
func StyleDebug(msg string) string { return gray(msg) }

// StyleCommand formats shell commands or flags (Gray).
func StyleCommand(cmd string) string { return gray(cmd) }

// StyleTitle formats section headers.
func StyleTitle(title string) string { return bold(cyan(title)) }

// StyleNumber formats counts, run numbers and cluster ids (Magenta).
func StyleNumber(num any) string {
	return magenta(fmt.Sprintf("%v", num))
}

// StylePath formats file paths. Event files are highlighted so they stand
// out from the directories around them.
func StylePath(path string) string {
	if strings.HasSuffix(path, ".root") {
		return cyanBold(path)
	}
	return blueBold(path)
}

// StyleName formats machine names, versions and keys (Yellow).
func StyleName(name string) string { return yellow(name) }

// ---------------------------------------------------------
// Log printers
// ---------------------------------------------------------

// PrintMessage prints a standard info message.
// Output: [LDMX] Message...
func PrintMessage(format string, a ...any) {
	if QuietMode {
		return
	}
	fmt.Fprintf(Stdout, "%s %s\n", logPrefix, fmt.Sprintf(format, a...))
}

// PrintSuccess prints a success message with a green tag.
func PrintSuccess(format string, a ...any) {
	if QuietMode {
		return
	}
	fmt.Fprintf(Stdout, "%s%s %s\n", logPrefix, StyleSuccess("[PASS]"), fmt.Sprintf(format, a...))
}

// PrintError prints an error message with a red tag to Stderr.
func PrintError(format string, a ...any) {
	fmt.Fprintf(Stderr, "%s%s %s\n", logPrefix, StyleError("[ERR] "), fmt.Sprintf(format, a...))
}

// PrintWarning prints a warning with a yellow tag to Stderr.
func PrintWarning(format string, a ...any) {
	fmt.Fprintf(Stderr, "%s%s %s\n", logPrefix, StyleWarning("[WARN]"), fmt.Sprintf(format, a...))
}

// PrintHint prints a hint with a cyan tag.
func PrintHint(format string, a ...any) {
	if QuietMode {
		return
	}
	fmt.Fprintf(Stdout, "%s%s %s\n", logPrefix, StyleHint("[HINT]"), fmt.Sprintf(format, a...))
}

// PrintNote prints a note with a magenta tag.
func PrintNote(format string, a ...any) {
	if QuietMode {
		return
	}
	fmt.Fprintf(Stdout, "%s%s %s\n", logPrefix, StyleNote("[NOTE]"), fmt.Sprintf(format, a...))
}

// PrintDebug prints a debug message (only if DebugMode is true).
func PrintDebug(format string, a ...any) {
	if !DebugMode {
		return
	}
	fmt.Fprintf(Stderr, "%s%s %s\n", logPrefix, StyleDebug("[DBG] "), fmt.Sprintf(format, a...))
}

// IsInteractiveShell checks if stdout is connected to a terminal.
func IsInteractiveShell() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
