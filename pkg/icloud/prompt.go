package icloud

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/photomirror/photomirror/pkg/errors"
)

// PromptPassword reads a password from the terminal without echoing it. When
// stdin is not a terminal (piped input, CI) it falls back to a plain line
// read.
func PromptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", errors.Wrap(errors.ErrAuthFailed, "failed to read password")
		}
		return string(b), nil
	}
	return readLine(os.Stdin)
}

// PromptTwoFactorCode reads the 6-digit verification code. The code is not a
// secret, so echoing is fine.
func PromptTwoFactorCode() (string, error) {
	fmt.Fprint(os.Stderr, "Verification code: ")
	code, err := readLine(os.Stdin)
	if err != nil {
		return "", err
	}
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return "", errors.Wrapf(errors.ErrAuthFailed, "expected a 6-digit code, got %q", code)
	}
	return code, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(errors.ErrAuthFailed, "failed to read input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
