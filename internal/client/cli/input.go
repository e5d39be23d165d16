package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// endOfBody terminates multi-line note content, so bodies may contain blank
// lines.
const endOfBody = "."

var readPassword = term.ReadPassword

// GetSimpleText shows prompt followed by a "> " marker and returns the next
// line with surrounding whitespace removed. A final line without a newline
// is accepted.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	fmt.Fprintf(w, "%s\n> ", prompt)

	line, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a password from stdin with echo disabled. Callers wipe
// the result with common.Wipe.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	fmt.Fprintf(w, "%s: ", prompt)
	defer fmt.Fprintln(w)

	return readPassword(int(os.Stdin.Fd()))
}

// GetMultiline collects note content until a line holding only "." or the
// end of input. Line endings are normalised to "\n" and the result is
// trimmed.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	fmt.Fprintf(w, "%s\n(finish with a line containing only %q)\n", prompt, endOfBody)

	var b strings.Builder
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == endOfBody {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// Confirm asks a yes/no question that defaults to no, including on EOF.
func Confirm(reader *bufio.Reader, prompt string, w io.Writer) (bool, error) {
	answer, err := GetSimpleText(reader, prompt+" [y/N]", w)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	a := strings.ToLower(answer)
	return a == "y" || a == "yes", nil
}
