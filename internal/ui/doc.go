// Package ui renders export results and run history for the terminal with lipgloss styles.
package ui
