// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides colorized terminal output helpers.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	headerColor    = color.New(color.FgCyan, color.Bold)
	subHeaderColor = color.New(color.FgCyan)
	successColor   = color.New(color.FgGreen)
	warningColor   = color.New(color.FgYellow)
	infoColor      = color.New(color.FgBlue)
	labelColor     = color.New(color.Bold)
	dimColor       = color.New(color.Faint)
	countColor     = color.New(color.FgMagenta)
)

// InitColors enables or disables color output. Color is disabled when
// noColor is set or when stdout is not a terminal.
func InitColors(noColor bool) {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Header prints a bold section header.
func Header(text string) {
	_, _ = headerColor.Println(text)
}

// SubHeader prints a secondary section header.
func SubHeader(text string) {
	_, _ = subHeaderColor.Println(text)
}

// Success prints a success message with a leading check mark.
func Success(text string) {
	_, _ = successColor.Printf("✓ %s\n", text)
}

// Successf prints a formatted success message.
func Successf(format string, args ...any) {
	Success(fmt.Sprintf(format, args...))
}

// Info prints an informational message.
func Info(text string) {
	_, _ = infoColor.Printf("• %s\n", text)
}

// Infof prints a formatted informational message.
func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

// Warning prints a warning message to stderr.
func Warning(text string) {
	_, _ = warningColor.Fprintf(os.Stderr, "! %s\n", text)
}

// Warningf prints a formatted warning message to stderr.
func Warningf(format string, args ...any) {
	Warning(fmt.Sprintf(format, args...))
}

// Label returns text styled as a field label.
func Label(text string) string {
	return labelColor.Sprint(text)
}

// DimText returns text styled dim, for paths and URLs.
func DimText(text string) string {
	return dimColor.Sprint(text)
}

// CountText returns a number styled for entity counts.
func CountText(n int) string {
	return countColor.Sprintf("%d", n)
}
