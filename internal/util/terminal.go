package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// IsTerminal checks if the given file descriptor is a terminal
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// Interactive reports whether a user can answer prompts: stdin and stderr
// are both terminals
func Interactive() bool {
	return IsTerminal(os.Stdin.Fd()) && IsTerminal(os.Stderr.Fd())
}

// Confirm writes a yes/no question to w and reads one answer line from r.
// Anything but y/yes, including EOF, is no.
func Confirm(r io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
