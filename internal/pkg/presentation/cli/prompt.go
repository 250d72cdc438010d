package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrNoSelection = errors.New("no selection was made")

type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Ask prints the question and returns the next non empty, trimmed line.
func (p *prompter) Ask(question string) (string, error) {
	for {
		fmt.Fprintf(p.out, "\n%s ==>  ", question)

		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return "", err
			}
			return "", ErrNoSelection
		}

		answer := strings.TrimSpace(p.scanner.Text())
		if answer != "" {
			return answer, nil
		}
	}
}

// SelectLine asks for a line number between 1 and count and returns the
// matching zero based index. Invalid input is reported and asked for again.
func (p *prompter) SelectLine(question string, count int) (int, error) {
	if count == 0 {
		return 0, ErrNoSelection
	}

	for {
		answer, err := p.Ask(question)
		if err != nil {
			return 0, err
		}

		lineNo, err := strconv.Atoi(answer)
		if err != nil || lineNo < 1 || lineNo > count {
			fmt.Fprintln(p.out, errorStyle.Render(fmt.Sprintf("please enter a line number between 1 and %d", count)))
			continue
		}

		return lineNo - 1, nil
	}
}
