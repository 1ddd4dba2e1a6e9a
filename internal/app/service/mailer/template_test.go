package mailer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subwatch/subwatch/internal/models"
	"github.com/subwatch/subwatch/pkg/types"
)

func testFixtures() (*models.User, *models.Subscription) {
	u := &models.User{FullName: "Alice Nguyen", Email: "alice@example.com"}
	s := &models.Subscription{
		ServiceName:     "Netflix",
		Description:     "Family plan",
		Cost:            260000,
		Currency:        types.CurrencyVND,
		Cycle:           types.BillingCycleMonthly,
		NextPaymentDate: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
	}
	return u, s
}

func TestRenderReminder_Upcoming(t *testing.T) {
	u, s := testFixtures()
	today := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	subject, text, html, err := renderReminder(u, s, today, "https://app.example.com")
	require.NoError(t, err)

	assert.Equal(t, "[Reminder] Netflix - due in 5 day(s)", subject)
	assert.Contains(t, text, "Alice Nguyen")
	assert.Contains(t, text, "due in 5 day(s)")
	assert.Contains(t, text, "2024-03-15")
	assert.Contains(t, text, "260000.00 VND")
	assert.Contains(t, text, "https://app.example.com/login")

	assert.Contains(t, html, "coming up")
	assert.Contains(t, html, "Family plan")
	assert.Contains(t, html, "monthly")
	assert.NotContains(t, html, "overdue")
}

func TestRenderReminder_Overdue(t *testing.T) {
	u, s := testFixtures()
	today := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)

	subject, text, html, err := renderReminder(u, s, today, "https://app.example.com")
	require.NoError(t, err)

	assert.Equal(t, "[OVERDUE] Netflix - payment required", subject)
	assert.Contains(t, text, "past its payment date")
	assert.Contains(t, html, "payment overdue")
}

func TestRenderReminder_EscapesServiceName(t *testing.T) {
	u, s := testFixtures()
	s.ServiceName = `<script>alert("x")</script>`
	today := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	_, _, html, err := renderReminder(u, s, today, "https://app.example.com")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "9.99 USD", formatCost(9.99, types.CurrencyUSD))
	assert.Equal(t, "260000.00 VND", formatCost(260000, types.CurrencyVND))
}
