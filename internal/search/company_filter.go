package search

import "strings"

// Wire sentinels carried in the excludeCompanies query list.
const (
	SentinelNone    = "__none__"
	SentinelInclude = "__include__"
)

type CompanyMode int

const (
	CompaniesAll CompanyMode = iota
	CompaniesNone
	CompaniesInclude
	CompaniesExclude
)

func (m CompanyMode) String() string {
	switch m {
	case CompaniesNone:
		return "none"
	case CompaniesInclude:
		return "include"
	case CompaniesExclude:
		return "exclude"
	default:
		return "all"
	}
}

// CompanyFilter restricts results by company name. The zero value matches
// every company.
type CompanyFilter struct {
	Mode  CompanyMode
	Names []string
}

func AllCompanies() CompanyFilter { return CompanyFilter{Mode: CompaniesAll} }

func NoCompanies() CompanyFilter { return CompanyFilter{Mode: CompaniesNone} }

func IncludeCompanies(names ...string) CompanyFilter {
	return CompanyFilter{Mode: CompaniesInclude, Names: cleanNames(names)}
}

func ExcludeCompanies(names ...string) CompanyFilter {
	c := CompanyFilter{Mode: CompaniesExclude, Names: cleanNames(names)}
	if len(c.Names) == 0 {
		return AllCompanies()
	}
	return c
}

// ParseCompanyFilter decodes the wire list. __none__ anywhere wins; with
// __include__ the remaining names are an allow-list; otherwise they are
// excluded.
func ParseCompanyFilter(raw []string) CompanyFilter {
	names := make([]string, 0, len(raw))
	include := false
	for _, r := range raw {
		switch strings.TrimSpace(r) {
		case SentinelNone:
			return NoCompanies()
		case SentinelInclude:
			include = true
		default:
			names = append(names, r)
		}
	}
	if include {
		return IncludeCompanies(names...)
	}
	return ExcludeCompanies(names...)
}

// MatchesNothing reports whether no job can satisfy the filter.
func (c CompanyFilter) MatchesNothing() bool {
	switch c.Mode {
	case CompaniesNone:
		return true
	case CompaniesInclude:
		return len(c.Names) == 0
	default:
		return false
	}
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
