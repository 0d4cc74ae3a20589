package search

import (
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrInvalidSort      = errors.New("invalid sort")
	ErrInvalidFreshness = errors.New("invalid freshness")
)

type Sort string

const (
	SortPosted     Sort = "posted"
	SortDiscovered Sort = "discovered"
)

func ParseSort(raw string) (Sort, error) {
	switch Sort(strings.TrimSpace(raw)) {
	case "", SortPosted:
		return SortPosted, nil
	case SortDiscovered:
		return SortDiscovered, nil
	default:
		return "", errors.Wrapf(ErrInvalidSort, "%q", raw)
	}
}

type Freshness string

const (
	FreshHot        Freshness = "hot"
	FreshNew        Freshness = "new"
	FreshDiscovered Freshness = "discovered"
)

func ParseFreshness(raw []string) ([]Freshness, error) {
	out := make([]Freshness, 0, len(raw))
	for _, r := range raw {
		f := Freshness(strings.ToLower(strings.TrimSpace(r)))
		switch f {
		case "":
			continue
		case FreshHot, FreshNew, FreshDiscovered:
			out = append(out, f)
		default:
			return nil, errors.Wrapf(ErrInvalidFreshness, "%q", r)
		}
	}
	return out, nil
}

// JobFilter is a validated search request. Empty fields mean no constraint.
type JobFilter struct {
	RoleTypes  []string      `json:"role_types"`
	Country    string        `json:"country"`
	Remote     bool          `json:"remote"`
	Stages     []string      `json:"stages"`
	SalaryOnly bool          `json:"salary_only"`
	Search     string        `json:"search"`
	Companies  CompanyFilter `json:"companies"`
	Freshness  []Freshness   `json:"freshness"`
	Sort       Sort          `json:"sort"`
}
