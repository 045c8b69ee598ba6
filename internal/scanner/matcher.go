package scanner

import (
	"fmt"
	"regexp"
	"strings"
)

// LinkMatcher decides whether a link path looks like a recent article.
type LinkMatcher interface {
	Match(path string) bool
}

// PrefixMatcher accepts paths starting with a fixed era token such as "/202".
type PrefixMatcher string

func (p PrefixMatcher) Match(path string) bool {
	return strings.HasPrefix(path, string(p))
}

var datePathExpr = regexp.MustCompile(`(^|/)(19|20)\d{2}/(0[1-9]|1[0-2])/(0[1-9]|[12]\d|3[01])/`)

// DatePathMatcher accepts any path carrying a /YYYY/MM/DD/ segment.
type DatePathMatcher struct{}

func (DatePathMatcher) Match(path string) bool {
	return datePathExpr.MatchString(path)
}

// NewMatcher builds a matcher from its configured name.
func NewMatcher(kind, prefix string) (LinkMatcher, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "datepath":
		return DatePathMatcher{}, nil
	case "prefix":
		if prefix == "" {
			return nil, fmt.Errorf("prefix matcher needs a prefix")
		}
		return PrefixMatcher(prefix), nil
	default:
		return nil, fmt.Errorf("unknown link matcher %q", kind)
	}
}
