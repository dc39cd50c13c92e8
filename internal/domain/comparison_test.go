package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparisonStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    ComparisonStatus
		to      ComparisonStatus
		allowed bool
	}{
		{"pending to analyzing", ComparisonPending, ComparisonAnalyzing, true},
		{"pending to completed", ComparisonPending, ComparisonCompleted, true},
		{"analyzing to completed", ComparisonAnalyzing, ComparisonCompleted, true},
		{"analyzing to failed", ComparisonAnalyzing, ComparisonFailed, true},
		{"analyzing to pending", ComparisonAnalyzing, ComparisonPending, false},
		{"completed to analyzing", ComparisonCompleted, ComparisonAnalyzing, false},
		{"completed to failed", ComparisonCompleted, ComparisonFailed, false},
		{"failed to completed", ComparisonFailed, ComparisonCompleted, false},
		{"invalid target", ComparisonAnalyzing, ComparisonStatus("weird"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewCompetitorComparison(t *testing.T) {
	reportID := uuid.New()
	comp := NewCompetitorComparison(reportID, "example.com")

	assert.Equal(t, ComparisonAnalyzing, comp.Status)
	assert.Equal(t, reportID, comp.UserReportID)
	assert.Equal(t, "example.com", comp.UserDomain)
	assert.WithinDuration(t, comp.CreatedAt.Add(ComparisonTTL), comp.ExpiresAt, time.Second)
	assert.False(t, comp.IsExpired(time.Now().UTC()))
	assert.True(t, comp.IsExpired(time.Now().UTC().Add(8*24*time.Hour)))
}

func TestCompetitorComparisonLifecycle(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		comp := NewCompetitorComparison(uuid.New(), "example.com")

		err := comp.AttachCompetitors([]CompetitorEntry{{Domain: "rival.com", Rank: 1}})
		require.NoError(t, err)
		assert.Equal(t, ComparisonAnalyzing, comp.Status)

		err = comp.Complete(&ComparisonResult{Position: "competitive"})
		require.NoError(t, err)
		assert.Equal(t, ComparisonCompleted, comp.Status)
		assert.NotNil(t, comp.Comparison)

		// Terminal state rejects any further mutation.
		assert.Error(t, comp.Fail("too late"))
		assert.Error(t, comp.Complete(nil))
		assert.Error(t, comp.AttachCompetitors(nil))
	})

	t.Run("fail", func(t *testing.T) {
		comp := NewCompetitorComparison(uuid.New(), "example.com")

		err := comp.Fail("only 1 of the required 2 analyses succeeded")
		require.NoError(t, err)
		assert.Equal(t, ComparisonFailed, comp.Status)
		assert.NotEmpty(t, comp.FailureReason)
		assert.Error(t, comp.Complete(&ComparisonResult{}))
	})
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare domain", "example.com", "https://example.com", false},
		{"http preserved", "http://example.com/page", "http://example.com/page", false},
		{"https preserved", "https://example.com", "https://example.com", false},
		{"whitespace trimmed", "  example.com  ", "https://example.com", false},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsSentinelError(err, ErrInvalidInputVal))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", DomainOf("https://www.example.com/pricing"))
	assert.Equal(t, "example.com", DomainOf("example.com"))
	assert.Equal(t, "shop.example.com", DomainOf("http://shop.example.com"))
}

func TestDomainErrors(t *testing.T) {
	err := InsufficientDataError(1, 2)
	assert.True(t, IsSentinelError(err, ErrInsufficientDataVal))
	assert.Contains(t, err.Error(), "INSUFFICIENT_DATA")

	nf := NotFoundError("report", uuid.Nil)
	assert.True(t, IsSentinelError(nf, ErrNotFoundVal))
	assert.False(t, IsSentinelError(nf, ErrInsufficientDataVal))
}
