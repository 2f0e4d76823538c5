package permission

import (
	"errors"
	"regexp"
	"strings"
)

var (
	errPatternEmpty    = errors.New("path pattern is empty")
	errPatternRelative = errors.New("path pattern must start with /")
	errPatternSegment  = errors.New("path pattern has an empty segment")
	errPatternParam    = errors.New("path pattern has an unnamed placeholder")
)

// placeholder matches a `:name` run up to the next slash.
var placeholder = regexp.MustCompile(`:[^/]+`)

type pattern struct {
	raw   string
	param bool
	re    *regexp.Regexp
}

func compilePattern(raw string) (*pattern, error) {
	switch {
	case raw == "":
		return nil, errPatternEmpty
	case !strings.HasPrefix(raw, "/"):
		return nil, errPatternRelative
	case raw != "/" && (strings.Contains(raw, "//") || strings.HasSuffix(raw, "/")):
		return nil, errPatternSegment
	}

	p := &pattern{raw: raw}
	if !strings.Contains(raw, ":") {
		return p, nil
	}

	var b strings.Builder
	b.WriteByte('^')
	last := 0
	for _, loc := range placeholder.FindAllStringIndex(raw, -1) {
		if strings.Contains(raw[last:loc[0]], ":") {
			return nil, errPatternParam
		}
		b.WriteString(regexp.QuoteMeta(raw[last:loc[0]]))
		b.WriteString(`[^/]+`)
		last = loc[1]
	}
	rest := raw[last:]
	if strings.Contains(rest, ":") {
		return nil, errPatternParam
	}
	b.WriteString(regexp.QuoteMeta(rest))
	b.WriteByte('$')

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	p.param = true
	p.re = re
	return p, nil
}

func (p *pattern) match(path string) bool {
	if !p.param {
		return p.raw == path
	}
	return p.re.MatchString(path)
}

// MatchPath reports whether path satisfies the pattern raw. Malformed patterns
// never match.
func MatchPath(raw, path string) bool {
	p, err := compilePattern(raw)
	if err != nil {
		return false
	}
	return p.match(path)
}
