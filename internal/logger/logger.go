package logger

import (
	"github.com/fatih/color" // Colored console output, shared by every log level and banner
)

// Colorized printf-style functions for the different log levels.
// Each behaves like fmt.Printf with the text colored for its level.

// Info logs informational messages in green.
var Info = color.New(color.FgGreen).PrintfFunc()

// Warn logs warnings in bright magenta.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error logs errors in red.
var Error = color.New(color.FgRed).PrintfFunc()

// Debug logs debug messages in cyan once Init(true) has been called.
// Until then it is a no-op so packages can log before the CLI initializes logging.
var Debug = func(format string, a ...any) {}

// Step prints a pipeline progress line (e.g. "Pouring Soda...") in cyan.
var Step = color.New(color.FgCyan).PrintfFunc()

// banner and alert styles mirror the installer's boxed headings:
// blue background for progress, red background for problems.
var (
	bannerStyle = color.New(color.BgBlue, color.FgCyan)
	alertStyle  = color.New(color.BgRed, color.FgWhite)
	emphasis    = color.New(color.Underline)
)

// Init enables or disables debug logging and ANSI colors.
// Parameters:
// - enableDebug: print Debug messages in cyan when true, drop them otherwise.
// - noColor: strip every color sequence (the --no-ansi flag).
func Init(enableDebug, noColor bool) {
	color.NoColor = color.NoColor || noColor

	if enableDebug {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}

// Banner prints text inside a padded three-line box:
//
//	"                    "
//	"   Soda Installer   "
//	"                    "
func Banner(text string) {
	padded := "   " + text + "   "
	blank := make([]byte, len(padded))
	for i := range blank {
		blank[i] = ' '
	}
	bannerStyle.Println(string(blank))
	bannerStyle.Println(padded)
	bannerStyle.Println(string(blank))
}

// Alert prints a single line on a red background.
func Alert(text string) {
	alertStyle.Println(text)
}

// Emphasize returns s underlined, for version numbers and commands inside alerts.
func Emphasize(s string) string {
	return emphasis.Sprint(s)
}
