package logger

import (
	"fmt"
	"strings"
)

func StepFormat(step, total int, message string) string {
	return fmt.Sprintf("Step %d/%d: %s", step, total, message)
}

// CommandLine renders a command and its arguments for debug output.
func CommandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
