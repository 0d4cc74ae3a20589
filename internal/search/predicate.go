package search

import (
	"strings"
	"time"
)

const sqlTimeLayout = "2006-01-02 15:04:05"

const (
	HotWindow = 48 * time.Hour
	NewWindow = 7 * 24 * time.Hour
)

// Predicate is a WHERE clause over jobs aliased j and company_enrichment
// aliased ce, with its positional arguments.
type Predicate struct {
	Where string
	Args  []any
	// MatchesNothing lets callers skip the store entirely.
	MatchesNothing bool
}

// BuildPredicate translates f into SQL. Output depends only on f and now,
// so equal inputs produce identical text and arguments.
func BuildPredicate(f JobFilter, now time.Time) Predicate {
	conds := []string{"j.status = 'open'"}
	var args []any

	if len(f.RoleTypes) > 0 {
		var roleClauses []string
		for _, rt := range f.RoleTypes {
			clause, kwArgs, ok := RoleCondition(rt)
			if !ok {
				continue
			}
			roleClauses = append(roleClauses, clause)
			args = append(args, kwArgs...)
		}
		if len(roleClauses) > 0 {
			conds = append(conds, "("+strings.Join(roleClauses, " OR ")+")")
		}
	}

	if c := strings.TrimSpace(f.Country); c != "" {
		conds = append(conds, "j.country = ?")
		args = append(args, c)
	}

	if f.Remote {
		conds = append(conds, "(j.is_remote = 1 OR lower(j.location) LIKE '%remote%')")
	}

	if stages := nonEmpty(f.Stages); len(stages) > 0 {
		clauses := make([]string, 0, len(stages))
		for _, s := range stages {
			clauses = append(clauses, "ce.funding_stage LIKE ?")
			args = append(args, "%"+s+"%")
		}
		conds = append(conds, "("+strings.Join(clauses, " OR ")+")")
	}

	if f.SalaryOnly {
		conds = append(conds, "(j.salary_range IS NOT NULL AND j.salary_range != '')")
	}

	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		like := "%" + q + "%"
		conds = append(conds, "(lower(j.title) LIKE ? OR lower(j.company) LIKE ? OR lower(j.description_snippet) LIKE ?)")
		args = append(args, like, like, like)
	}

	nothing := f.Companies.MatchesNothing()
	switch {
	case nothing:
		conds = append(conds, "0 = 1")
	case f.Companies.Mode == CompaniesInclude:
		conds = append(conds, "j.company IN ("+placeholders(len(f.Companies.Names))+")")
		for _, n := range f.Companies.Names {
			args = append(args, n)
		}
	case f.Companies.Mode == CompaniesExclude && len(f.Companies.Names) > 0:
		conds = append(conds, "j.company NOT IN ("+placeholders(len(f.Companies.Names))+")")
		for _, n := range f.Companies.Names {
			args = append(args, n)
		}
	}

	if len(f.Freshness) > 0 {
		var clauses []string
		for _, fr := range f.Freshness {
			switch fr {
			case FreshHot:
				clauses = append(clauses, "(j.posted_date IS NOT NULL AND j.posted_date != '' AND datetime(j.posted_date) >= datetime(?))")
				args = append(args, now.Add(-HotWindow).UTC().Format(sqlTimeLayout))
			case FreshNew:
				clauses = append(clauses, "(j.posted_date IS NOT NULL AND j.posted_date != '' AND datetime(j.posted_date) >= datetime(?))")
				args = append(args, now.Add(-NewWindow).UTC().Format(sqlTimeLayout))
			case FreshDiscovered:
				clauses = append(clauses, "(j.posted_date IS NULL OR j.posted_date = '')")
			}
		}
		if len(clauses) > 0 {
			conds = append(conds, "("+strings.Join(clauses, " OR ")+")")
		}
	}

	return Predicate{
		Where:          strings.Join(conds, " AND "),
		Args:           args,
		MatchesNothing: nothing,
	}
}

// RoleCondition matches a job title against any keyword of role key.
func RoleCondition(key string) (string, []any, bool) {
	kws, ok := RoleKeywords[strings.ToLower(strings.TrimSpace(key))]
	if !ok || len(kws) == 0 {
		return "", nil, false
	}
	clauses := make([]string, 0, len(kws))
	args := make([]any, 0, len(kws))
	for _, kw := range kws {
		clauses = append(clauses, "lower(j.title) LIKE ?")
		args = append(args, "%"+kw+"%")
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args, true
}

// OrderBy returns the ORDER BY expression for s. Ties fall back to id so
// pages never overlap.
func OrderBy(s Sort) string {
	if s == SortDiscovered {
		return "j.first_seen_at DESC, j.id DESC"
	}
	return "COALESCE(j.posted_date, j.first_seen_at) DESC, j.id DESC"
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
