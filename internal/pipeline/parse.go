package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"rolls/internal"
	"rolls/internal/ranks"
	"rolls/internal/schema"
	"rolls/internal/util"
)

const DefaultOrgSuffix = "AAFC"

// ErrNoRankPattern is returned in strict mode for a token that does not even
// start with an uppercase rank-like run, such as "Smith" or "Invalid Name".
var ErrNoRankPattern = errors.New("no rank pattern")

type ParseMode string

const (
	// ModeLenient resolves every token, falling back to rank UNKNOWN.
	ModeLenient ParseMode = "lenient"
	// ModeStrict rejects tokens without a leading rank-like run.
	ModeStrict ParseMode = "strict"
)

func ParseModeFromString(v string) (ParseMode, error) {
	switch ParseMode(strings.ToLower(strings.TrimSpace(v))) {
	case "", ModeLenient:
		return ModeLenient, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("unsupported parse mode: %s", v)
	}
}

type NameParser struct {
	ranks   ranks.Tables
	grammar schema.Grammar
	mode    ParseMode
	rankRe  *regexp.Regexp
}

func NewNameParser(tables ranks.Tables, grammar schema.Grammar, mode ParseMode, orgSuffix string) *NameParser {
	pattern := `^([A-Z]+)\s+(.+)$`
	if suffix := strings.TrimSpace(orgSuffix); suffix != "" {
		pattern = `^([A-Z]+)(?:\s*\(` + regexp.QuoteMeta(suffix) + `\))?\s+(.+)$`
	}
	if mode == "" {
		mode = ModeLenient
	}
	if grammar == "" {
		grammar = schema.GrammarSurnameOnly
	}
	return &NameParser{
		ranks:   tables,
		grammar: grammar,
		mode:    mode,
		rankRe:  regexp.MustCompile(pattern),
	}
}

// Parse turns one raw token into a ParsedName. Section is left for the caller.
func (p *NameParser) Parse(token string) (internal.ParsedName, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return internal.ParsedName{}, errors.New("empty name token")
	}

	m := p.rankRe.FindStringSubmatch(token)
	if m == nil && p.mode == ModeStrict {
		return internal.ParsedName{}, fmt.Errorf("%w: %q", ErrNoRankPattern, token)
	}
	if m == nil || !p.ranks.IsRank(m[1]) {
		surname, firstName := splitBracketed(token)
		return internal.ParsedName{
			Rank:      ranks.Unknown,
			Surname:   surname,
			FirstName: firstName,
			Original:  ranks.Unknown + " " + token,
		}, nil
	}

	rank, remainder := m[1], strings.TrimSpace(m[2])
	if strings.HasPrefix(remainder, "(") {
		// "SGT (AAFC)" or "SGT (John)": a rank with nothing to use as a surname.
		return internal.ParsedName{
			Rank:     ranks.Unknown,
			Surname:  token,
			Original: ranks.Unknown + " " + token,
		}, nil
	}
	var surname string
	var firstName *string
	if hasBrackets(remainder) {
		surname, firstName = splitBracketed(remainder)
	} else {
		surname, firstName = p.splitPlain(remainder)
	}

	return internal.ParsedName{
		Rank:      rank,
		Surname:   surname,
		FirstName: firstName,
		Original:  token,
	}, nil
}

func (p *NameParser) splitPlain(remainder string) (string, *string) {
	if p.grammar != schema.GrammarFirstnameSurname {
		return remainder, nil
	}
	fields := strings.Fields(remainder)
	if len(fields) < 2 {
		return remainder, nil
	}
	return fields[len(fields)-1], util.StringPtr(strings.Join(fields[:len(fields)-1], " "))
}

func hasBrackets(s string) bool {
	return strings.Contains(s, "(") && strings.Contains(s, ")")
}

// splitBracketed reads "Surname (First)". Without a usable bracket pair the
// whole text is the surname.
func splitBracketed(s string) (string, *string) {
	s = strings.TrimSpace(s)
	open := strings.Index(s, "(")
	if open < 0 {
		return s, nil
	}
	closing := strings.Index(s[open:], ")")
	if closing < 0 {
		return s, nil
	}
	surname := strings.TrimSpace(s[:open])
	if surname == "" {
		surname = s
	}
	first := strings.TrimSpace(s[open+1 : open+closing])
	if first == "" {
		return surname, nil
	}
	return surname, util.StringPtr(first)
}
