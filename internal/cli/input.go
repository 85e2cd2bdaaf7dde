package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// readInput returns the user prompt from args, a file, or stdin ("-").
// An empty result means the configured default prompt applies.
func readInput(args []string, inputFile string, stdin io.Reader) (string, error) {
	if inputFile != "" && len(args) > 0 {
		return "", fmt.Errorf("prompt args and -F are mutually exclusive")
	}
	if inputFile == "" {
		return strings.Join(args, " "), nil
	}
	if inputFile == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return trimTrailingNewline(string(data)), nil
	}
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return trimTrailingNewline(string(data)), nil
}

func trimTrailingNewline(value string) string {
	return strings.TrimRight(value, "\r\n")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
