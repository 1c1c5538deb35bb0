package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvitationStatus(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	pending := InvitationCode{ExpiresAt: now.Add(time.Hour).Format(time.RFC3339)}
	assert.Equal(t, InvitationStatusPending, pending.Status(now))
	assert.True(t, pending.IsRedeemable(now))

	expired := InvitationCode{ExpiresAt: now.Add(-time.Second).Format(time.RFC3339)}
	assert.Equal(t, InvitationStatusExpired, expired.Status(now))
	assert.False(t, expired.IsRedeemable(now))

	// Expiry boundary: a code expiring exactly now is no longer redeemable.
	boundary := InvitationCode{ExpiresAt: now.Format(time.RFC3339)}
	assert.False(t, boundary.IsRedeemable(now))

	used := InvitationCode{IsUsed: true, ExpiresAt: now.Add(time.Hour).Format(time.RFC3339)}
	assert.Equal(t, InvitationStatusUsed, used.Status(now))
	assert.False(t, used.IsRedeemable(now))

	garbled := InvitationCode{ExpiresAt: "not-a-timestamp"}
	assert.False(t, garbled.IsRedeemable(now))
}

func TestInvitationSanitized(t *testing.T) {
	inv := InvitationCode{
		ID:               "inv-1",
		Code:             "12345",
		TherapistID:      "T1",
		PatientEmail:     "p@x.com",
		PatientFirstName: "Jo",
		IsUsed:           true,
		UsedAt:           "2026-09-01T12:00:00Z",
		PatientID:        "P1",
		CreatedAt:        "2026-09-01T10:00:00Z",
		ExpiresAt:        "2026-09-03T10:00:00Z",
	}

	sanitized := inv.Sanitized()
	assert.Equal(t, "inv-1", sanitized.ID)
	assert.Equal(t, "12345", sanitized.Code)
	assert.False(t, sanitized.IsUsed)
	assert.Empty(t, sanitized.UsedAt)
	assert.Empty(t, sanitized.PatientID)
}
