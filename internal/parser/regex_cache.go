package parser

import (
	"regexp"
	"sync"
)

// identifier with optional double quotes or backticks around it
const ident = "[\"`]?(\\w+)[\"`]?"

// RegexCache holds the pre-compiled patterns used while parsing DDL clauses.
// All patterns run against lower-cased text.
type RegexCache struct {
	ConstraintName *regexp.Regexp
	PrimaryKey     *regexp.Regexp
	ForeignKey     *regexp.Regexp
	InlineRef      *regexp.Regexp
	InlinePrimary  *regexp.Regexp
	TypeLength     *regexp.Regexp
	// body of a unique/check/index/key/exclude constraint after its keyword
	TableConstraint *regexp.Regexp
}

var (
	regexCache     *RegexCache
	regexCacheOnce sync.Once
)

// GetRegexCache returns the package regex cache, compiling it on first use.
func GetRegexCache() *RegexCache {
	regexCacheOnce.Do(func() {
		regexCache = &RegexCache{
			ConstraintName: regexp.MustCompile(`^constraint\s+` + ident + `\s+`),
			PrimaryKey:     regexp.MustCompile(`^primary\s+key\s*\(([^)]*)\)`),
			ForeignKey: regexp.MustCompile(`^foreign\s+key\s*\(\s*` + ident + `\s*\)\s*references\s+` +
				ident + `\s*\(\s*` + ident + `\s*\)`),
			InlineRef:       regexp.MustCompile(`\breferences\s+` + ident + `\s*\(\s*` + ident + `\s*\)`),
			InlinePrimary:   regexp.MustCompile(`\bprimary\b`),
			TypeLength:      regexp.MustCompile(`^\(\s*(\d+)`),
			TableConstraint: regexp.MustCompile(`^(?:(?:key|index)\s+)?(?:using\s+\w+\s*)?(?:` + ident + `\s*)?\(`),
		}
	})
	return regexCache
}
