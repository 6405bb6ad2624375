package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucketFor(t *testing.T) {
	asOf := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		due  time.Time
		want AgingBucket
	}{
		{"not yet due", asOf.AddDate(0, 0, 1), AgingCurrent},
		{"due today", asOf.Add(-2 * time.Hour), Aging0To30},
		{"30 days", asOf.AddDate(0, 0, -30), Aging0To30},
		{"31 days", asOf.AddDate(0, 0, -31), Aging31To60},
		{"60 days", asOf.AddDate(0, 0, -60), Aging31To60},
		{"90 days", asOf.AddDate(0, 0, -90), Aging61To90},
		{"91 days", asOf.AddDate(0, 0, -91), AgingOver90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketFor(tt.due, asOf))
		})
	}
}

func TestAgingBuckets(t *testing.T) {
	assert.Equal(t, []AgingBucket{"current", "0-30", "31-60", "61-90", "90+"}, AgingBuckets())
}
