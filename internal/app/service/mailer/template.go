package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/subwatch/subwatch/internal/models"
	"github.com/subwatch/subwatch/pkg/types"
)

type reminderMailData struct {
	FullName    string
	ServiceName string
	Description string
	Cost        string
	Cycle       string
	PaymentDate string
	DaysUntil   int
	Overdue     bool
	LoginURL    string
}

var reminderHTML = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Payment reminder</title></head>
<body style="font-family:sans-serif;max-width:600px;margin:0 auto;">
  <h2>{{if .Overdue}}Subscription payment overdue{{else}}Subscription payment coming up{{end}}</h2>
  <p>Hello <strong>{{.FullName}}</strong>,</p>
  {{if .Overdue}}
  <p>Your subscription <strong>{{.ServiceName}}</strong> is past its payment date. Please renew it to keep the service running.</p>
  {{else}}
  <p>Your subscription <strong>{{.ServiceName}}</strong> is due in <strong>{{.DaysUntil}}</strong> day(s).</p>
  {{end}}
  <table cellpadding="6">
    <tr><td>Service</td><td><strong>{{.ServiceName}}</strong></td></tr>
    {{if .Description}}<tr><td>Description</td><td>{{.Description}}</td></tr>{{end}}
    <tr><td>Cost</td><td><strong>{{.Cost}}</strong></td></tr>
    <tr><td>Billing cycle</td><td>{{.Cycle}}</td></tr>
    <tr><td>Payment date</td><td><strong>{{.PaymentDate}}</strong></td></tr>
  </table>
  <p><a href="{{.LoginURL}}/login">Sign in to update the payment status</a></p>
  <p style="color:#64748b;font-size:13px;">This email was sent automatically. Please do not reply.</p>
</body>
</html>`))

func formatCost(cost float64, currency types.Currency) string {
	return strconv.FormatFloat(cost, 'f', 2, 64) + " " + string(currency)
}

func cycleText(c types.BillingCycle) string {
	switch c {
	case types.BillingCycleMonthly:
		return "monthly"
	case types.BillingCycleQuarterly:
		return "quarterly"
	case types.BillingCycleYearly:
		return "yearly"
	default:
		return string(c)
	}
}

// renderReminder produces subject, plain-text and HTML bodies for one
// reminder. The subject distinguishes overdue from upcoming so the inbox
// line alone tells the user what to do.
func renderReminder(user *models.User, sub *models.Subscription, today time.Time, loginURL string) (subject, text, html string, err error) {
	days := sub.DaysUntilPayment(today)
	data := reminderMailData{
		FullName:    user.FullName,
		ServiceName: sub.ServiceName,
		Description: sub.Description,
		Cost:        formatCost(sub.Cost, sub.Currency),
		Cycle:       cycleText(sub.Cycle),
		PaymentDate: sub.NextPaymentDate.Format("2006-01-02"),
		DaysUntil:   days,
		Overdue:     days < 0,
		LoginURL:    loginURL,
	}

	if data.Overdue {
		subject = fmt.Sprintf("[OVERDUE] %s - payment required", sub.ServiceName)
		text = fmt.Sprintf("Hello %s,\n\nYour subscription %q is past its payment date (%s).\n\nCost: %s\n\nPlease sign in at %s/login to renew it.\n",
			user.FullName, sub.ServiceName, data.PaymentDate, data.Cost, loginURL)
	} else {
		subject = fmt.Sprintf("[Reminder] %s - due in %d day(s)", sub.ServiceName, days)
		text = fmt.Sprintf("Hello %s,\n\nYour subscription %q is due in %d day(s), on %s.\n\nCost: %s\n\nPlease sign in at %s/login to update the payment status.\n",
			user.FullName, sub.ServiceName, days, data.PaymentDate, data.Cost, loginURL)
	}

	var buf bytes.Buffer
	if err := reminderHTML.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("failed to render reminder mail: %w", err)
	}
	return subject, text, buf.String(), nil
}
