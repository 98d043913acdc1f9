// Package loader turns cover profiles and test manifests into snapshot trees.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Block is one instrumented statement block from a cover profile.
type Block struct {
	File       string
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
	Statements int
	Count      int
}

// Covered reports whether the block was executed at least once.
func (b Block) Covered() bool {
	return b.Count > 0
}

// ParseProfile reads a cover profile in the standard text format:
//
//	mode: set
//	path/file.go:12.34,15.2 3 1
//
// Malformed lines are skipped so one bad record does not lose the run.
func ParseProfile(r io.Reader) (mode string, blocks []Block, err error) {
	scanner := bufio.NewScanner(r)
	const maxCapacity = 1024 * 1024 // 1MB, profile lines are short
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			if rest, ok := strings.CutPrefix(line, "mode: "); ok {
				mode = rest
				continue
			}
		}
		b, ok := parseBlockLine(line)
		if !ok {
			continue
		}
		blocks = append(blocks, b)
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("failed to read cover profile: %w", err)
	}
	if mode == "" {
		return "", nil, fmt.Errorf("cover profile missing mode header")
	}
	return mode, blocks, nil
}

// ParseProfileFile opens and parses a cover profile on disk.
func ParseProfileFile(path string) (string, []Block, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open cover profile: %w", err)
	}
	defer file.Close()
	return ParseProfile(file)
}

// parseBlockLine parses "file:sl.sc,el.ec stmts count".
func parseBlockLine(line string) (Block, bool) {
	colon := strings.LastIndex(line, ":")
	if colon <= 0 {
		return Block{}, false
	}
	file := line[:colon]

	fields := strings.Fields(line[colon+1:])
	if len(fields) != 3 {
		return Block{}, false
	}

	span, ok := parseSpan(fields[0])
	if !ok {
		return Block{}, false
	}
	stmts, err := strconv.Atoi(fields[1])
	if err != nil {
		return Block{}, false
	}
	count, err := strconv.Atoi(fields[2])
	if err != nil {
		return Block{}, false
	}

	span.File = file
	span.Statements = stmts
	span.Count = count
	return span, true
}

// parseSpan parses the "sl.sc,el.ec" position pair.
func parseSpan(s string) (Block, bool) {
	start, end, ok := strings.Cut(s, ",")
	if !ok {
		return Block{}, false
	}
	sl, sc, ok := parsePos(start)
	if !ok {
		return Block{}, false
	}
	el, ec, ok := parsePos(end)
	if !ok {
		return Block{}, false
	}
	return Block{StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec}, true
}

func parsePos(s string) (line, col int, ok bool) {
	l, c, found := strings.Cut(s, ".")
	if !found {
		return 0, 0, false
	}
	line, err := strconv.Atoi(l)
	if err != nil {
		return 0, 0, false
	}
	col, err = strconv.Atoi(c)
	if err != nil {
		return 0, 0, false
	}
	return line, col, true
}
