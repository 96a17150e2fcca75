package ui

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════════════════════╗
    ║ ██╗   ██╗██╗  ██╗███████╗ ██████╗██████╗  █████╗ ██████╗ ███████╗ ║
    ║ ██║   ██║██║ ██╔╝██╔════╝██╔════╝██╔══██╗██╔══██╗██╔══██╗██╔════╝ ║
    ║ ██║   ██║█████╔╝ ███████╗██║     ██████╔╝███████║██████╔╝█████╗   ║
    ║ ╚██╗ ██╔╝██╔═██╗ ╚════██║██║     ██╔══██╗██╔══██║██╔═══╝ ██╔══╝   ║
    ║  ╚████╔╝ ██║  ██╗███████║╚██████╗██║  ██║██║  ██║██║     ███████╗ ║
    ║   ╚═══╝  ╚═╝  ╚═╝╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝     ╚══════╝ ║
    ║            DIALOG PHOTO ARCHIVER - VK MESSAGES API               ║
    ╚═══════════════════════════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("36")
	Yellow  = colorize("33")
	Red     = colorize("31")
	Green   = colorize("32")
	Magenta = colorize("35")
	Dim     = colorize("2")
)

// colorEnabled is false when NO_COLOR is set or stdout is not a terminal
var colorEnabled = os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))

// SetColor forces colored output on or off
func SetColor(enabled bool) {
	colorEnabled = enabled
}

func colorize(code string) func(string) string {
	return func(text string) string {
		if !colorEnabled {
			return text
		}
		return "\033[" + code + "m" + text + "\033[0m"
	}
}

// PrintLogo prints the ASCII logo
func PrintLogo() {
	fmt.Print(Cyan(ASCIILogo))
}

// PrintError prints an error line to stderr, with an optional cause
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, Red(withCause(msg, args)))
}

func PrintSuccess(msg string) {
	fmt.Println(Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

func PrintWarning(msg string, args ...interface{}) {
	fmt.Println(Yellow(withCause(msg, args)))
}

func withCause(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return msg + ": " + fmt.Sprint(args...)
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
