package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// readLine reads one line from the command's input. A final line without a
// newline is returned as is.
func (a *App) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ask prompts for a value unless one was already given.
func (a *App) ask(label, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	fmt.Fprintf(a.out, "%s: ", label)
	v, err := a.readLine()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return v, nil
}

func (a *App) askPassword(current string) (string, error) {
	if current != "" {
		return current, nil
	}
	fmt.Fprint(a.out, "Password: ")
	pw, err := a.readPassword()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// confirm asks a yes/no question; anything but y or yes is no.
func (a *App) confirm(question string) bool {
	fmt.Fprintf(a.out, "%s [y/N]: ", question)
	answer, err := a.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}
