package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"fdeworld/internal/search"
)

const (
	JobsSearchPrefix = "jobs:search:"
	JobsLockPrefix   = "jobs:lock:"
	// JobsPrefix covers every job-derived cache entry.
	JobsPrefix = "jobs:"
	// JobsGenerationKey sits outside JobsPrefix so invalidation keeps it.
	JobsGenerationKey = "catalog:jobs:generation"
)

type jobSearchCacheKeyInput struct {
	RoleTypes   []string `json:"role_types"`
	Country     string   `json:"country"`
	Remote      bool     `json:"remote"`
	Stages      []string `json:"stages"`
	SalaryOnly  bool     `json:"salary_only"`
	Search      string   `json:"search"`
	CompanyMode int      `json:"company_mode"`
	Companies   []string `json:"companies"`
	Freshness   []string `json:"freshness"`
	Sort        string   `json:"sort"`
	Page        int      `json:"page"`
	Limit       int      `json:"limit"`
}

// normalizeSearchValue mirrors the predicate builder: inner whitespace is
// part of the LIKE pattern, so it must stay part of the key.
func normalizeSearchValue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeSet lowercases, drops blanks and duplicates and sorts, so set
// valued filters in any order share one key.
func normalizeSet(in []string, lower bool) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if lower {
			s = normalizeSearchValue(s)
		} else {
			s = strings.TrimSpace(s)
		}
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// JobsSearchCacheKey hashes the filter as the predicate builder sees it.
// Company names keep their case because the IN / NOT IN match is exact.
func JobsSearchCacheKey(f search.JobFilter, p search.Pagination) string {
	p = p.Clamp()
	fresh := make([]string, 0, len(f.Freshness))
	for _, fr := range f.Freshness {
		fresh = append(fresh, string(fr))
	}
	sortKey := string(f.Sort)
	if sortKey == "" {
		sortKey = string(search.SortPosted)
	}

	in := jobSearchCacheKeyInput{
		RoleTypes:   normalizeSet(f.RoleTypes, true),
		Country:     strings.TrimSpace(f.Country),
		Remote:      f.Remote,
		Stages:      normalizeSet(f.Stages, false),
		SalaryOnly:  f.SalaryOnly,
		Search:      normalizeSearchValue(f.Search),
		CompanyMode: int(f.Companies.Mode),
		Companies:   normalizeSet(f.Companies.Names, false),
		Freshness:   normalizeSet(fresh, true),
		Sort:        sortKey,
		Page:        p.Page,
		Limit:       p.Limit,
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	h := hex.EncodeToString(sum[:])
	return JobsSearchPrefix + h
}

// JobsSearchKeyAt places a search key inside generation gen of the job
// namespace.
func JobsSearchKeyAt(searchKey string, gen int64) string {
	return JobsSearchPrefix + strconv.FormatInt(gen, 10) + ":" + strings.TrimPrefix(searchKey, JobsSearchPrefix)
}

func JobsSearchLockKey(searchKey string) string {
	searchKey = strings.TrimSpace(searchKey)
	if strings.HasPrefix(searchKey, JobsSearchPrefix) {
		return JobsLockPrefix + strings.TrimPrefix(searchKey, JobsSearchPrefix)
	}
	return JobsLockPrefix + searchKey
}
