package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProjectedReleaseDate(t *testing.T) {
	cases := []struct {
		name      string
		committed time.Time
		years     int
		months    int
		days      int
		want      time.Time
	}{
		{"plain addition", date(2024, time.March, 10), 2, 0, 0, date(2026, time.March, 10)},
		{"month-end rollover", date(2024, time.January, 31), 0, 1, 0, date(2024, time.March, 2)},
		{"leap day plus a year", date(2024, time.February, 29), 1, 0, 0, date(2025, time.March, 1)},
		{"mixed duration", date(2023, time.June, 15), 1, 6, 10, date(2024, time.December, 25)},
		{"zero sentence", date(2024, time.May, 1), 0, 0, 0, date(2024, time.May, 1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ProjectedReleaseDate(tc.committed, tc.years, tc.months, tc.days)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDetailForStatus(t *testing.T) {
	conviction := &ConvictionDetail{CourtBranch: "RTC Branch 12"}
	detention := &DetentionDetail{DetentionFacility: "Municipal Jail"}

	t.Run("sentenced takes exactly a conviction detail", func(t *testing.T) {
		got, err := DetailForStatus(CaseStatusSentenced, conviction, nil)
		assert.NoError(t, err)
		assert.IsType(t, ConvictionDetail{}, got)

		_, err = DetailForStatus(CaseStatusSentenced, nil, nil)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = DetailForStatus(CaseStatusSentenced, conviction, detention)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("detained takes exactly a detention detail", func(t *testing.T) {
		got, err := DetailForStatus(CaseStatusDetained, nil, detention)
		assert.NoError(t, err)
		assert.IsType(t, DetentionDetail{}, got)

		_, err = DetailForStatus(CaseStatusDetained, conviction, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("awaiting transfer takes none", func(t *testing.T) {
		got, err := DetailForStatus(CaseStatusTransfer, nil, nil)
		assert.NoError(t, err)
		assert.Nil(t, got)

		_, err = DetailForStatus(CaseStatusTransfer, nil, detention)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		_, err := DetailForStatus("Paroled", nil, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestPermissionGrantAllows(t *testing.T) {
	grant := PermissionGrant{Module: "PDL Management", CanView: true, CanEdit: true}

	assert.True(t, grant.Allows(CapabilityView))
	assert.True(t, grant.Allows(CapabilityEdit))
	assert.False(t, grant.Allows(CapabilityCreate))
	assert.False(t, grant.Allows(CapabilityDelete))
	assert.False(t, grant.Allows(CapabilityApprove))
	assert.False(t, grant.Allows("root"))
}
