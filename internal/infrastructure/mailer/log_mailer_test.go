package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogMailer_LogsLinks(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer("ops@fde.test", zap.New(core).Sugar())

	require.NoError(t, m.SendCandidateLink(context.Background(), "ada@example.com", "Ada", "https://x/verify?token=t"))
	require.NoError(t, m.NotifyAdminSubmission(context.Background(), "Acme", "FDE", "https://acme.io/fde", 7))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "https://x/verify?token=t", entries[0].ContextMap()["link"])
	assert.Equal(t, "ops@fde.test", entries[1].ContextMap()["to"])
	assert.EqualValues(t, 7, entries[1].ContextMap()["submission_id"])
}

func TestLogMailer_NoAdminAddress(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer("", zap.New(core).Sugar())

	require.NoError(t, m.NotifyAdminSubmission(context.Background(), "Acme", "FDE", "https://acme.io/fde", 7))
	assert.Equal(t, 0, logs.Len())
}
