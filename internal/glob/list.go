package glob

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// ParseList compiles an ignore list: one pattern per line. Line terminators
// (\n or \r\n) are stripped, other whitespace is part of the pattern. Empty
// lines are skipped.
func ParseList(data []byte) ([]*Pattern, error) {
	var patterns []*Pattern

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		p, err := Compile(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		patterns = append(patterns, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}
