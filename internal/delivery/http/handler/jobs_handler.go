package handler

import (
	"strings"
	"time"

	"fdeworld/internal/delivery/http/dto"
	"fdeworld/internal/pkg/response"
	"fdeworld/internal/search"
	"fdeworld/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type JobsHandler struct {
	uc  usecase.JobCatalogUsecase
	now func() time.Time
}

func NewJobsHandler(uc usecase.JobCatalogUsecase) *JobsHandler {
	return &JobsHandler{uc: uc, now: time.Now}
}

func (h *JobsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.List)
	r.Get("/stats", h.Stats)
	r.Get("/counts", h.Counts)
	r.Get("/companies", h.Companies)
	r.Get("/recent", h.Recent)
	r.Get("/featured", h.Featured)
	r.Get("/lookup", h.Lookup)
	r.Get("/detail", h.Detail)
}

func (h *JobsHandler) List(c fiber.Ctx) error {
	params, err := parseJobSearch(c)
	if err != nil {
		return err
	}

	res, err := h.uc.ListJobs(c.Context(), params)
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobListResponse(res, h.now()))
}

// parseJobSearch reads the listing query: comma separated roleTypes, stage,
// excludeCompanies and freshness, plus scalar filters and paging.
func parseJobSearch(c fiber.Ctx) (usecase.JobSearchParams, error) {
	page, err := parseQueryIntStrict(c, "page", 1)
	if err != nil {
		return usecase.JobSearchParams{}, badRequest("Invalid page", err)
	}
	limit, err := parseQueryIntStrict(c, "limit", search.DefaultLimit)
	if err != nil {
		return usecase.JobSearchParams{}, badRequest("Invalid limit", err)
	}
	sort, err := search.ParseSort(c.Query("sort"))
	if err != nil {
		return usecase.JobSearchParams{}, badRequest("Invalid sort", err)
	}
	fresh, err := search.ParseFreshness(parseListQuery(c.Query("freshness")))
	if err != nil {
		return usecase.JobSearchParams{}, badRequest("Invalid freshness", err)
	}

	return usecase.JobSearchParams{
		Filter: search.JobFilter{
			RoleTypes:  parseListQuery(c.Query("roleTypes")),
			Country:    strings.TrimSpace(c.Query("country")),
			Remote:     parseQueryBool(c, "remote"),
			Stages:     parseListQuery(c.Query("stage")),
			SalaryOnly: parseQueryBool(c, "salaryOnly"),
			Search:     strings.TrimSpace(c.Query("search")),
			Companies:  search.ParseCompanyFilter(parseListQuery(c.Query("excludeCompanies"))),
			Freshness:  fresh,
			Sort:       sort,
		},
		Page: search.Pagination{Page: page, Limit: limit},
	}, nil
}

func (h *JobsHandler) Stats(c fiber.Ctx) error {
	st, err := h.uc.Stats(c.Context())
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, st)
}

func (h *JobsHandler) Counts(c fiber.Ctx) error {
	out, err := h.uc.CountsByRole(c.Context())
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *JobsHandler) Companies(c fiber.Ctx) error {
	out, err := h.uc.Companies(c.Context())
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *JobsHandler) Recent(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 0)
	if err != nil {
		return badRequest("Invalid limit", err)
	}
	out, err := h.uc.Recent(c.Context(), limit)
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobResponses(out, h.now()))
}

func (h *JobsHandler) Featured(c fiber.Ctx) error {
	out, err := h.uc.Featured(c.Context())
	if err != nil {
		return mapUsecaseError(err, "")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobResponses(out, h.now()))
}

func (h *JobsHandler) Lookup(c fiber.Ctx) error {
	j, err := h.uc.Lookup(c.Context(), c.Query("url"))
	if err != nil {
		return mapUsecaseError(err, "Job not found")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobResponse(j, h.now()))
}

func (h *JobsHandler) Detail(c fiber.Ctx) error {
	d, err := h.uc.Detail(c.Context(), c.Query("url"), strings.TrimSpace(c.Query("source")))
	if err != nil {
		return mapUsecaseError(err, "Job details unavailable")
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, d)
}
