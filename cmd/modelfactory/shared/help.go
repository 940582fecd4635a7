package shared

import "strings"

// CLIHelp trims the indentation and blank lines that come from writing help
// text as a raw string literal inside a command definition.
func CLIHelp(text string) string {
	return strings.TrimSpace(text)
}

// CLIExample indents every line of an example block the way cobra expects.
func CLIExample(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}
