package search

import (
	"bufio"
	"io"
	"strings"
)

// ParseMarkdown reads knowledge entries from a small markdown document:
//
//   - "## topic" starts an entry; the following lines up to the next heading
//     form its answer.
//   - Table rows "| topic | answer ... |" become one entry each. Separator rows
//     and the header row directly above them are skipped.
//
// Anything before the first heading that is not a table is ignored.
func ParseMarkdown(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	var (
		out    []Entry
		topic  string
		answer []string
	)
	flush := func() {
		if topic != "" && len(answer) > 0 {
			out = append(out, Entry{Topic: topic, Answer: strings.Join(answer, " ")})
		}
		answer = answer[:0]
	}

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "#"):
			flush()
			topic = strings.ToLower(strings.TrimSpace(strings.TrimLeft(line, "#")))
		case isTableRow(line):
			flush()
			topic = ""
			if isSeparatorRow(line) {
				continue
			}
			if i+1 < len(lines) && isSeparatorRow(lines[i+1]) {
				continue // header
			}
			cells := tableCells(line)
			if len(cells) < 2 {
				continue
			}
			out = append(out, Entry{
				Topic:  strings.ToLower(cells[0]),
				Answer: strings.Join(cells[1:], " "),
			})
		case line == "":
			continue
		default:
			if topic != "" {
				answer = append(answer, line)
			}
		}
	}
	flush()
	return out, nil
}

func isTableRow(line string) bool {
	return strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") && len(line) > 1
}

func isSeparatorRow(line string) bool {
	if !isTableRow(line) {
		return false
	}
	for _, c := range strings.Split(strings.Trim(line, "|"), "|") {
		tmp := strings.ReplaceAll(c, ":", "")
		tmp = strings.ReplaceAll(tmp, "-", "")
		if strings.TrimSpace(tmp) != "" {
			return false
		}
	}
	return true
}

func tableCells(line string) []string {
	raw := strings.Split(strings.Trim(line, "|"), "|")
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if cell := strings.TrimSpace(c); cell != "" {
			out = append(out, cell)
		}
	}
	return out
}
