package quota

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binhocut/clipforge/internal/clips/models"
)

func activeUser(plan models.Plan, used int) *models.User {
	return &models.User{
		ID:                 uuid.New(),
		Plan:               plan,
		SubscriptionStatus: models.SubscriptionActive,
		VideosThisMonth:    used,
	}
}

func TestAdmit_NilUser(t *testing.T) {
	_, err := Admit(nil, 60)
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestAdmit_MonthlyLimitBoundary(t *testing.T) {
	limit := models.PlanFree.Limits().VideosPerMonth

	// One below the limit is admitted.
	d, err := Admit(activeUser(models.PlanFree, limit-1), 60)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, "OK", d.Reason)

	// At the limit the submission is denied.
	d, err = Admit(activeUser(models.PlanFree, limit), 60)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Cause, models.ErrQuotaExceeded)
	assert.Contains(t, d.Reason, "monthly limit reached")
}

func TestAdmit_UnlimitedPlanIgnoresCounters(t *testing.T) {
	d, err := Admit(activeUser(models.PlanEnterprise, 100000), 36000)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestAdmit_DurationLimit(t *testing.T) {
	maxSec := models.PlanFree.Limits().MaxDurationSec

	d, err := Admit(activeUser(models.PlanFree, 0), float64(maxSec))
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = Admit(activeUser(models.PlanFree, 0), float64(maxSec)+1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Cause, models.ErrDurationLimit)
	assert.Contains(t, d.Reason, "video too long")
}

func TestAdmit_UnknownDurationSkipsCheck(t *testing.T) {
	d, err := Admit(activeUser(models.PlanFree, 0), 0)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestAdmit_SubscriptionStanding(t *testing.T) {
	u := activeUser(models.PlanPro, 0)
	u.SubscriptionStatus = models.SubscriptionSuspended

	d, err := Admit(u, 60)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Cause, models.ErrSubscriptionInactive)

	u.SubscriptionStatus = models.SubscriptionTrialing
	d, err = Admit(u, 60)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestAdmit_CheckOrder(t *testing.T) {
	// Quota is checked before subscription standing, so a suspended user
	// over quota sees the quota denial.
	limit := models.PlanFree.Limits().VideosPerMonth
	u := activeUser(models.PlanFree, limit)
	u.SubscriptionStatus = models.SubscriptionSuspended

	d, err := Admit(u, 60)
	require.NoError(t, err)
	assert.ErrorIs(t, d.Cause, models.ErrQuotaExceeded)
}

func TestMaxClips(t *testing.T) {
	freeLimit := models.PlanFree.Limits().MaxClipsPerVideo

	assert.Equal(t, 1, MaxClips(models.PlanFree, 0))
	assert.Equal(t, 1, MaxClips(models.PlanFree, -3))
	assert.Equal(t, freeLimit, MaxClips(models.PlanFree, freeLimit+5))
	assert.Equal(t, 2, MaxClips(models.PlanFree, 2))

	// Enterprise is bounded only by the absolute range.
	assert.Equal(t, models.MaxClipsAbsolute, MaxClips(models.PlanEnterprise, 50))
}
