package payments

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fitdesk/gymportal-backend/pkg/db"
	"github.com/fitdesk/gymportal-backend/pkg/db/models"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	payments := `
CREATE TABLE IF NOT EXISTS payments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  membership_id INTEGER NOT NULL,
  transaction_id TEXT NOT NULL,
  payment_date DATETIME NOT NULL,
  amount NUMERIC NOT NULL,
  screenshot_path TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_purpose TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	pendingIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS one_pending_payment_per_membership
  ON payments (membership_id) WHERE status = 'pending';`

	require.NoError(t, conn.Exec(payments).Error)
	require.NoError(t, conn.Exec(pendingIndex).Error)
	return conn
}

func createPayment(t *testing.T, conn *gorm.DB, membershipID int64, status enums.PaymentStatus, created time.Time) *models.Payment {
	t.Helper()

	payment := &models.Payment{
		MembershipID:   membershipID,
		TransactionID:  "TXN-" + created.Format("20060102150405.000"),
		PaymentDate:    created,
		Amount:         decimal.NewFromInt(650),
		ScreenshotPath: "uploads/txn.png",
		Status:         status,
		Purpose:        enums.PaymentPurposeMembershipRenewal,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	require.NoError(t, conn.Create(payment).Error)
	return payment
}

func TestRepositoryPendingIndexAllowsOnePendingPerMembership(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	const membershipID = int64(9001)
	first := createPayment(t, conn, membershipID, enums.PaymentStatusPending, now)

	second := &models.Payment{
		MembershipID:   membershipID,
		TransactionID:  "TXN-DUP",
		PaymentDate:    now,
		Amount:         decimal.NewFromInt(650),
		ScreenshotPath: "uploads/dup.png",
		Status:         enums.PaymentStatusPending,
		Purpose:        enums.PaymentPurposeMembershipRenewal,
	}
	err := repo.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))

	// a verified row frees the slot for the next pending submission
	require.NoError(t, repo.SetStatus(ctx, first.ID, enums.PaymentStatusVerified))
	require.NoError(t, repo.Create(ctx, second))

	hasPending, err := repo.HasPending(ctx, membershipID)
	require.NoError(t, err)
	assert.True(t, hasPending)
}

func TestRepositoryFindMostRecentPending(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	const membershipID = int64(9002)
	// terminal rows should never be picked up
	createPayment(t, conn, membershipID, enums.PaymentStatusRejected, now.Add(-48*time.Hour))
	createPayment(t, conn, membershipID, enums.PaymentStatusVerified, now.Add(-24*time.Hour))
	latest := createPayment(t, conn, membershipID, enums.PaymentStatusPending, now)

	found, err := repo.FindMostRecentPending(ctx, membershipID)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, found.ID)

	_, err = repo.FindMostRecentPending(ctx, int64(9999))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByMembershipPaginates(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	const membershipID = int64(9003)
	for i := 0; i < 5; i++ {
		status := enums.PaymentStatusVerified
		if i == 4 {
			status = enums.PaymentStatusPending
		}
		createPayment(t, conn, membershipID, status, base.Add(time.Duration(i)*time.Hour))
	}
	// a neighbouring membership must not bleed into the listing
	createPayment(t, conn, int64(9004), enums.PaymentStatusPending, base)

	firstPage, cursor, err := repo.ListByMembership(ctx, ListPaymentsQuery{MembershipID: membershipID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, firstPage, 3)
	require.NotNil(t, cursor)
	// newest first
	assert.True(t, firstPage[0].CreatedAt.After(firstPage[1].CreatedAt))

	secondPage, next, err := repo.ListByMembership(ctx, ListPaymentsQuery{MembershipID: membershipID, Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, secondPage, 2)
	assert.Nil(t, next)

	seen := map[int64]bool{}
	for _, p := range append(firstPage, secondPage...) {
		assert.Equal(t, membershipID, p.MembershipID)
		assert.False(t, seen[p.ID], "payment %d appeared twice", p.ID)
		seen[p.ID] = true
	}
}

func TestRepositoryDeleteRemovesRow(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	const membershipID = int64(9005)
	payment := createPayment(t, conn, membershipID, enums.PaymentStatusPending, now)

	require.NoError(t, repo.Delete(ctx, payment.ID))

	hasPending, err := repo.HasPending(ctx, membershipID)
	require.NoError(t, err)
	assert.False(t, hasPending)
}
