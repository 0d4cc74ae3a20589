package search

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Clamp applies the defaults: limit 20 when unset, at most 50, page >= 1.
func (p Pagination) Clamp() Pagination {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

func (p Pagination) Offset() int {
	c := p.Clamp()
	return (c.Page - 1) * c.Limit
}

// TotalPages is ceil(total / limit).
func (p Pagination) TotalPages(total int) int {
	c := p.Clamp()
	if total <= 0 {
		return 0
	}
	return (total + c.Limit - 1) / c.Limit
}
