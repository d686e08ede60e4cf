package patterns

import (
	"strings"
)

// FanOut is how many leading-zero tiers one PrefixSet accepts.
const FanOut = 34

type MatchResult struct {
	Prefix string
	Index  int // position in the set
	Lead   int // leading zero digits after 0x
}

// PrefixSet accepts an address that starts with any of its prefixes.
// Immutable after construction.
type PrefixSet struct {
	minLead       int
	caseSensitive bool
	prefixes      []string
}

// BuildPrefixes returns "0x" followed by minLead, minLead+1, ...,
// minLead+fanOut-1 zeros.
func BuildPrefixes(minLead, fanOut int) []string {
	out := make([]string, fanOut)
	for i := range out {
		out[i] = "0x" + strings.Repeat("0", minLead+i)
	}
	return out
}

func NewPrefixSet(minLead int, caseSensitive bool) *PrefixSet {
	return &PrefixSet{
		minLead:       minLead,
		caseSensitive: caseSensitive,
		prefixes:      BuildPrefixes(minLead, FanOut),
	}
}

func (s *PrefixSet) MinLead() int { return s.minLead }

func (s *PrefixSet) Prefixes() []string {
	return append([]string(nil), s.prefixes...)
}

// Match reports the longest prefix addr carries, or nil.
func (s *PrefixSet) Match(addr string) *MatchResult {
	check := addr
	if !s.caseSensitive {
		check = strings.ToLower(check)
	}
	for i := len(s.prefixes) - 1; i >= 0; i-- {
		if strings.HasPrefix(check, s.prefixes[i]) {
			return &MatchResult{Prefix: s.prefixes[i], Index: i, Lead: LeadingZeros(check)}
		}
	}
	return nil
}

// LeadingZeros counts '0' digits following an optional 0x/0X.
func LeadingZeros(addr string) int {
	s := addr
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	n := 0
	for n < len(s) && s[n] == '0' {
		n++
	}
	return n
}
