package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
	"sweetbox/pkg/utils"
)

func TestRosterBuildsValidUsers(t *testing.T) {
	today := models.DateOf(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	admins := 0
	for _, s := range roster {
		user, err := newUser(s, today)
		require.NoError(t, err, s.ID)
		require.NotNil(t, user.PinHash)
		assert.NoError(t, utils.ComparePIN(*user.PinHash, s.PIN), s.ID)
		require.NotNil(t, user.HireDate)
		assert.Equal(t, today, *user.HireDate)
		assert.Equal(t, models.UserStatusActive, user.Status)

		if user.IsAdmin() {
			admins++
			assert.Nil(t, user.ShiftStart, "admins have no shift")
			continue
		}
		require.NotNil(t, user.ShiftStart, s.ID)
		_, _, ok := engine.ParseShiftStart(*user.ShiftStart)
		assert.True(t, ok, s.ID)
	}
	assert.Equal(t, 1, admins)
}

func TestNewUserRejectsBadPIN(t *testing.T) {
	_, err := newUser(seedUser{ID: "u-x", Name: "X", Permission: models.PermissionFrontStaff, PIN: "12ab"}, "2026-03-10")
	assert.Error(t, err)
}

func TestStockSeedsValidItems(t *testing.T) {
	ids := map[string]bool{}
	for _, item := range stock {
		assert.False(t, ids[item.ID], "duplicate %s", item.ID)
		ids[item.ID] = true
		assert.NotEmpty(t, item.Name)
		assert.GreaterOrEqual(t, item.Quantity, 0.0)
	}
}
