package universe

import (
	"strings"
	"unicode"
)

// Resolution methods, strongest first.
const (
	MethodAlias    = "alias"
	MethodFallback = "fallback"
	MethodNone     = "none"
)

// Resolved is the outcome of a company resolution. Confidence and Method are
// part of the contract and are preserved for observability even when callers
// only consume CompanyID.
type Resolved struct {
	CompanyID   string
	Tickers     []string
	MatchedName string
	Confidence  float64
	Method      string
}

// Resolver binds free-text company/operator mentions to universe companies.
type Resolver struct {
	aliasIndex map[string]string
	companies  map[string]*Company
	order      []string
}

// NewResolver builds the normalized alias index over company names and
// aliases.
func NewResolver(u *Universe) *Resolver {
	r := &Resolver{
		aliasIndex: make(map[string]string),
		companies:  make(map[string]*Company),
	}
	if u == nil {
		return r
	}
	for i := range u.Companies {
		c := &u.Companies[i]
		if c.CompanyID == "" {
			continue
		}
		if _, seen := r.companies[c.CompanyID]; !seen {
			r.order = append(r.order, c.CompanyID)
		}
		r.companies[c.CompanyID] = c
		if n := Normalize(c.Name); n != "" {
			r.aliasIndex[n] = c.CompanyID
		}
		for _, alias := range c.Aliases {
			if n := Normalize(alias); n != "" {
				r.aliasIndex[n] = c.CompanyID
			}
		}
	}
	return r
}

// Normalize lowercases, maps non-alphanumerics to spaces, and collapses
// whitespace. The same normalization is used for convergence company keys.
func Normalize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch {
		case unicode.IsLetter(ch) || unicode.IsDigit(ch):
			b.WriteRune(unicode.ToLower(ch))
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Resolve tries name first, then operator. Policy: exact normalized alias
// match wins at confidence 0.95; a single-company universe falls back at
// 0.25; otherwise no match at 0.0.
func (r *Resolver) Resolve(name, operator string) Resolved {
	for _, raw := range []string{name, operator} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if companyID, ok := r.aliasIndex[Normalize(raw)]; ok {
			c := r.companies[companyID]
			return Resolved{
				CompanyID:   companyID,
				Tickers:     append([]string(nil), c.Tickers...),
				MatchedName: raw,
				Confidence:  0.95,
				Method:      MethodAlias,
			}
		}
	}

	if len(r.order) == 1 {
		c := r.companies[r.order[0]]
		return Resolved{
			CompanyID:  c.CompanyID,
			Tickers:    append([]string(nil), c.Tickers...),
			Confidence: 0.25,
			Method:     MethodFallback,
		}
	}

	return Resolved{Method: MethodNone}
}
