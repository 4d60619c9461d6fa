// Package console implements the terminal side of ems: prompts, table
// rendering and the interactive console loop.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// Prompter reads answers from a line-oriented input. Passwords are read
// without echo when the input is a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // -1 when in is not a terminal
}

var _ ems.Confirmer = (*Prompter)(nil)

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &Prompter{in: bufio.NewReader(in), out: out, fd: fd}
}

// ReadLine returns the next input line without its line ending. A final
// line without a newline is returned before io.EOF.
func (p *Prompter) ReadLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Ask prints label and reads one line.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	return p.ReadLine()
}

// AskDefault is Ask with a shown default that a blank answer keeps.
func (p *Prompter) AskDefault(label, current string) (string, error) {
	fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	answer, err := p.ReadLine()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return current, nil
	}
	return answer, nil
}

// Password reads a secret.
func (p *Prompter) Password(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if p.fd < 0 {
		return p.ReadLine()
	}
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

// Confirm asks a yes/no question. Anything but y or yes is no, and so is
// running out of input.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	answer, err := p.Ask(prompt + " [y/N]")
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
