// Package color styles terminal output for the CLI.
package color

import (
	"github.com/fatih/color"
)

var (
	promptColor    = color.New(color.FgCyan, color.Bold)
	infoColor      = color.New(color.FgGreen)
	warningColor   = color.New(color.FgYellow, color.Bold)
	errorColor     = color.New(color.FgRed, color.Bold)
	assistantColor = color.New(color.FgHiYellow)
)

func Prompt(s string) string {
	return promptColor.Sprint(s)
}

func Info(s string) string {
	return infoColor.Sprint(s)
}

func Warning(s string) string {
	return warningColor.Sprint(s)
}

func Error(s string) string {
	return errorColor.Sprint(s)
}

func Assistant(s string) string {
	return assistantColor.Sprint(s)
}

// Status renders a boolean as a coloured ok / unavailable marker.
func Status(ok bool) string {
	if ok {
		return Info("ok")
	}
	return Error("unavailable")
}

// Disable turns styling off, e.g. when output is piped.
func Disable() {
	color.NoColor = true
}
