package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/barcoder/internal/identity"
)

// session reads answers to prompts, one line each.
type session struct {
	in  *bufio.Reader
	out io.Writer
}

func (s *session) ask(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askPath prompts until exists accepts the path.
func (s *session) askPath(exists func(string) bool) (string, error) {
	line, err := s.ask("Drag your PDF here or enter path: ")
	for {
		if err != nil {
			return "", err
		}
		if p := cleanPath(line); p != "" && exists(p) {
			return p, nil
		}
		line, err = s.ask("File not found. Try again: ")
	}
}

func (s *session) askCategory() (int, error) {
	line, err := s.ask("Enter category (1-4): ")
	for {
		if err != nil {
			return 0, err
		}
		if n, perr := identity.ParseCategory(line); perr == nil {
			return n, nil
		}
		line, err = s.ask("Invalid. Enter 1-4: ")
	}
}

// askStart falls back to def on empty or non-numeric input.
func (s *session) askStart(def int) (int, error) {
	line, err := s.ask(fmt.Sprintf("Enter starting product number [default: %03d]: ", def))
	if err != nil {
		return 0, err
	}
	return identity.ParseStart(line, def), nil
}

// cleanPath strips whitespace and the quotes a file manager adds when a
// file is dragged into the terminal.
func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if len(p) >= 2 && (p[0] == '"' || p[0] == '\'') && p[len(p)-1] == p[0] {
		p = p[1 : len(p)-1]
	}
	return strings.Trim(p, `"`)
}
