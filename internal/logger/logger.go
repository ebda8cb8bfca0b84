// Package logger is a small tagged console logger for startup and
// operational messages. Request-scope logging uses the stdlib log package;
// this one exists for the human-facing startup sequence.
package logger

import (
	"fmt"
	"os"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func emit(color, symbol, tag, msg string) {
	fmt.Fprintf(os.Stdout, "%s%s %s[%s]%s %s\n", color, symbol, colorBold, tag, colorReset, msg)
}

// Info logs a neutral progress message.
func Info(tag, msg string) {
	emit(colorCyan, "•", tag, msg)
}

// Success logs a completed step.
func Success(tag, msg string) {
	emit(colorGreen, "✓", tag, msg)
}

// Warn logs a recoverable problem.
func Warn(tag, msg string) {
	emit(colorYellow, "!", tag, msg)
}

// Error logs a failure.
func Error(tag, msg string) {
	emit(colorRed, "✗", tag, msg)
}

// Banner prints the startup banner with the build version.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(os.Stdout, "%s%s╭──────────────────────────────────────╮%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(os.Stdout, "%s%s│  skillfolio %-24s │%s\n", colorBold, colorCyan, version, colorReset)
	fmt.Fprintf(os.Stdout, "%s%s│  curriculum portfolio optimizer      │%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(os.Stdout, "%s%s╰──────────────────────────────────────╯%s\n", colorBold, colorCyan, colorReset)
}

// Section prints a visual divider for a named startup phase.
func Section(title string) {
	fmt.Fprintf(os.Stdout, "%s── %s %s%s\n", colorGray, title, "─────────────────────", colorReset)
}

// Stats prints a key/value pair aligned under the current section.
func Stats(key string, value interface{}) {
	fmt.Fprintf(os.Stdout, "  %s%-24s%s %v\n", colorGray, key, colorReset, value)
}

// Server announces the listen address once the HTTP server is up.
func Server(addr string) {
	fmt.Fprintf(os.Stdout, "%s⇒ %sListening on http://%s%s\n", colorGreen, colorBold, addr, colorReset)
}
