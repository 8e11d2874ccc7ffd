package fake

import (
	"fmt"
	"strconv"
	"strings"
)

const maxExpandedHostnames = 4096

// ExpandHostnames expands a hostname pattern with numeric ranges, e.g.
// `node[01-03].example.com` expands to node01, node02 and node03. A pattern can
// have multiple ranges and multiple patterns separated by commas or spaces.
func ExpandHostnames(pattern string) ([]string, error) {
	fields := strings.FieldsFunc(pattern, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' || r == '\t' })
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty hostname pattern")
	}

	var res []string
	for _, f := range fields {
		hs, err := expand(f)
		if err != nil {
			return nil, err
		}
		res = append(res, hs...)
		if len(res) > maxExpandedHostnames {
			return nil, fmt.Errorf("pattern expands to more than %d hostnames", maxExpandedHostnames)
		}
	}

	return res, nil
}

func expand(pattern string) ([]string, error) {
	start := strings.IndexByte(pattern, '[')
	if start < 0 {
		if strings.ContainsRune(pattern, ']') {
			return nil, fmt.Errorf("unbalanced range on %q", pattern)
		}
		return []string{pattern}, nil
	}

	end := strings.IndexByte(pattern[start:], ']')
	if end < 0 {
		return nil, fmt.Errorf("unbalanced range on %q", pattern)
	}
	end += start

	from, to, ok := strings.Cut(pattern[start+1:end], "-")
	if !ok {
		return nil, fmt.Errorf("invalid range %q on %q", pattern[start:end+1], pattern)
	}

	fromN, err := strconv.Atoi(from)
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q: %w", from, err)
	}
	toN, err := strconv.Atoi(to)
	if err != nil {
		return nil, fmt.Errorf("invalid range end %q: %w", to, err)
	}
	if fromN > toN {
		return nil, fmt.Errorf("range start %d is greater than end %d", fromN, toN)
	}
	if toN-fromN >= maxExpandedHostnames {
		return nil, fmt.Errorf("range %q is too big", pattern[start:end+1])
	}

	// Ranges like 01-10 keep the zero padding.
	width := 0
	if len(from) > 1 && from[0] == '0' {
		width = len(from)
	}

	rest, err := expand(pattern[end+1:])
	if err != nil {
		return nil, err
	}

	prefix := pattern[:start]
	res := make([]string, 0, (toN-fromN+1)*len(rest))
	for i := fromN; i <= toN; i++ {
		n := fmt.Sprintf("%0*d", width, i)
		for _, r := range rest {
			res = append(res, prefix+n+r)
		}
	}

	return res, nil
}
