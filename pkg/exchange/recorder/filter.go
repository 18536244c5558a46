package recorder

import (
	"fmt"
	"regexp"
)

// Filter decides which request paths are recorded.
type Filter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewFilter compiles the include and exclude pattern lists. Patterns
// are anchored at the start of the path; excludes additionally match
// case-insensitively.
func NewFilter(include, exclude []string) (*Filter, error) {
	inc, err := compile(include, false)
	if err != nil {
		return nil, fmt.Errorf("include pattern: %w", err)
	}
	exc, err := compile(exclude, true)
	if err != nil {
		return nil, fmt.Errorf("exclude pattern: %w", err)
	}
	return &Filter{include: inc, exclude: exc}, nil
}

// ShouldRecord reports whether a path passes the filter. Excludes win
// over includes; an empty include list admits everything else.
func (f *Filter) ShouldRecord(path string) bool {
	for _, re := range f.exclude {
		if re.MatchString(path) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, re := range f.include {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func compile(patterns []string, caseInsensitive bool) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pat := range patterns {
		full := `\A(?:` + pat + `)`
		if caseInsensitive {
			full = `(?i)` + full
		}
		re, err := regexp.Compile(full)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", pat, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
