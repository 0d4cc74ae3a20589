package repository

import (
	"context"
	"testing"
	"time"

	"fdeworld/internal/domain/candidate"
	"fdeworld/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateRepository_UpsertKeepsOneRowPerEmail(t *testing.T) {
	repo := NewCandidateRepository(testutil.NewStore(t))
	ctx := context.Background()

	first, err := repo.Upsert(ctx, candidate.Signup{
		Email: "Ada@Example.com", Name: "Ada", RoleTypes: []string{"fde"}, LinkedinURL: "https://linkedin.com/in/ada",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", first.Email)
	assert.Equal(t, []string{"fde"}, first.RoleTypes)
	assert.True(t, first.OpenToWork)
	assert.Equal(t, "weekly", first.AlertFreq)

	second, err := repo.Upsert(ctx, candidate.Signup{Email: "ada@example.com", Name: "Ada L", RoleTypes: []string{"se", "tam"}})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.Name)
	assert.Equal(t, "Ada L", *second.Name)
	assert.Equal(t, []string{"se", "tam"}, second.RoleTypes)
	require.NotNil(t, second.LinkedinURL)
	assert.Equal(t, "https://linkedin.com/in/ada", *second.LinkedinURL)

	_, total, err := repo.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	other, err := repo.Upsert(ctx, candidate.Signup{Email: "grace@example.com", Name: "Grace"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	_, total, err = repo.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestCandidateRepository_TokenIsSingleUse(t *testing.T) {
	repo := NewCandidateRepository(testutil.NewStore(t))
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }
	ctx := context.Background()

	c, err := repo.Upsert(ctx, candidate.Signup{Email: "grace@example.com", Name: "Grace"})
	require.NoError(t, err)
	require.NoError(t, repo.IssueToken(ctx, c.ID, "tok-1", clock.Add(candidate.VerificationTTL)))

	verified, err := repo.ConsumeToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Equal(t, c.ID, verified.ID)

	_, err = repo.ConsumeToken(ctx, "tok-1")
	require.ErrorIs(t, err, candidate.ErrTokenInvalid)
}

func TestCandidateRepository_ExpiredTokenRejectedAndPurged(t *testing.T) {
	repo := NewCandidateRepository(testutil.NewStore(t))
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }
	ctx := context.Background()

	c, err := repo.Upsert(ctx, candidate.Signup{Email: "linus@example.com"})
	require.NoError(t, err)
	require.NoError(t, repo.IssueToken(ctx, c.ID, "tok-old", clock.Add(-time.Minute)))

	_, err = repo.ConsumeToken(ctx, "tok-old")
	require.ErrorIs(t, err, candidate.ErrTokenInvalid)

	n, err := repo.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.ErrorIs(t, repo.IssueToken(ctx, 999, "x", clock), candidate.ErrNotFound)
}

func TestCandidateRepository_PatchOnlySuppliedFields(t *testing.T) {
	repo := NewCandidateRepository(testutil.NewStore(t))
	ctx := context.Background()

	c, err := repo.Upsert(ctx, candidate.Signup{Email: "k@example.com", Name: "Ken", Location: "Berlin"})
	require.NoError(t, err)

	role := "Staff SE"
	skills := []string{"go", "sql"}
	open := false
	ok, err := repo.Update(ctx, c.ID, candidate.Patch{CurrentRole: &role, Skills: &skills, OpenToWork: &open})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentRole)
	assert.Equal(t, "Staff SE", *got.CurrentRole)
	assert.Equal(t, []string{"go", "sql"}, got.Skills)
	assert.False(t, got.OpenToWork)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Berlin", *got.Location)

	ok, err = repo.Update(ctx, c.ID, candidate.Patch{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCandidateRepository_DeleteRemovesSavedJobs(t *testing.T) {
	store := testutil.NewStore(t)
	repo := NewCandidateRepository(store)
	saved := NewSavedJobRepository(store)
	ctx := context.Background()

	c, err := repo.Upsert(ctx, candidate.Signup{Email: "del@example.com"})
	require.NoError(t, err)
	testutil.SeedJob(t, store, testutil.JobSeed{Title: "SE", Company: "Acme", URL: "https://a/1"})
	_, err = saved.Save(ctx, c.ID, "https://a/1")
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := saved.Count(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = repo.GetByID(ctx, c.ID)
	require.ErrorIs(t, err, candidate.ErrNotFound)
}

func TestSavedJobRepository_SaveIsIdempotent(t *testing.T) {
	store := testutil.NewStore(t)
	repo := NewSavedJobRepository(store)
	ctx := context.Background()
	testutil.SeedJob(t, store, testutil.JobSeed{Title: "SE", Company: "Acme", URL: "https://a/1"})

	created, err := repo.Save(ctx, 7, "https://a/1")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = repo.Save(ctx, 7, "https://a/1")
	require.NoError(t, err)
	assert.False(t, created)

	// Saved URLs that are no longer in the catalog are listed but not joined.
	_, err = repo.Save(ctx, 7, "https://a/gone")
	require.NoError(t, err)

	urls, err := repo.URLs(ctx, 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"https://a/1", "https://a/gone"}, urls)

	jobs, err := repo.Jobs(ctx, 7)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Acme", jobs[0].Company)

	removed, err := repo.Unsave(ctx, 7, "https://a/1")
	require.NoError(t, err)
	assert.True(t, removed)
	n, err := repo.Count(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
