package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"romshelf/internal/catalog"
	"romshelf/internal/saves"
)

const (
	ansiReset  = "\x1b[0m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// consolePrompter asks identification and duplicate questions on the
// terminal. Answers are read line by line; an empty answer declines.
type consolePrompter struct {
	in       *bufio.Reader
	out      io.Writer
	colorize bool
}

func newConsolePrompter() *consolePrompter {
	return &consolePrompter{
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		colorize: shouldColorize(os.Stdout),
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *consolePrompter) ConfirmCandidate(path string, candidate *catalog.KnownTitle) (bool, error) {
	p.headline("Match found for %s", path)
	fmt.Fprintf(p.out, "  %s\n", candidate.Describe())
	answer, err := p.ask("Accept? [y/N] ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

func (p *consolePrompter) ChooseCandidate(path string, candidates []*catalog.KnownTitle) (int, bool, error) {
	p.headline("Several candidates for %s", path)
	for i, candidate := range candidates {
		fmt.Fprintf(p.out, "  %2d) %s\n", i+1, candidate.Describe())
	}
	return p.pick(len(candidates))
}

func (p *consolePrompter) SearchTerm(path string) (string, bool, error) {
	p.headline("No match for %s", path)
	answer, err := p.ask("Search the catalog (empty to skip): ")
	if err != nil {
		return "", false, err
	}
	if answer == "" {
		return "", false, nil
	}
	return answer, true, nil
}

// ChooseKeeper picks which copy of a duplicate group to keep.
func (p *consolePrompter) ChooseKeeper(group []catalog.LocalFile) (int, bool, error) {
	p.headline("%d copies share one checksum", len(group))
	for i, file := range group {
		fmt.Fprintf(p.out, "  %2d) %s (%s)\n", i+1, file.NormalizedName, file.Path)
	}
	fmt.Fprintln(p.out, "The chosen copy is kept; the others are deleted.")
	return p.pick(len(group))
}

// ChooseLocal picks one local file from a search result.
func (p *consolePrompter) ChooseLocal(prompt string, files []catalog.LocalFile) (int, bool, error) {
	p.headline("%s", prompt)
	for i, file := range files {
		fmt.Fprintf(p.out, "  %2d) %s (%s)\n", i+1, file.NormalizedName, file.Path)
	}
	return p.pick(len(files))
}

// ChooseSave picks one stored save, or declines.
func (p *consolePrompter) ChooseSave(list []saves.SaveFile) (int, bool, error) {
	p.headline("Stored saves for this game")
	for i, save := range list {
		fmt.Fprintf(p.out, "  %2d) %s\n", i+1, save.Describe())
	}
	return p.pick(len(list))
}

// pick reads a 1-based selection; empty input or anything out of range
// counts as "none".
func (p *consolePrompter) pick(n int) (int, bool, error) {
	answer, err := p.ask("Which one? (empty for none): ")
	if err != nil {
		return 0, false, err
	}
	if answer == "" {
		return 0, false, nil
	}
	index, err := strconv.Atoi(answer)
	if err != nil || index < 1 || index > n {
		fmt.Fprintln(p.out, "No such entry, skipping.")
		return 0, false, nil
	}
	return index - 1, true, nil
}

func (p *consolePrompter) ask(prompt string) (string, error) {
	if p.colorize {
		fmt.Fprint(p.out, ansiYellow+prompt+ansiReset)
	} else {
		fmt.Fprint(p.out, prompt)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *consolePrompter) headline(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if p.colorize {
		line = ansiBlue + line + ansiReset
	}
	fmt.Fprintln(p.out, line)
}
