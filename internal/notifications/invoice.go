// Package notifications builds and sends invoice and receipt emails with a
// parallel PDF rendition.
package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/mcvu-symposium/backend/internal/models"
	"github.com/mcvu-symposium/backend/internal/pricing"
)

// Line is one billed item on the invoice.
type Line struct {
	Description string
	Amount      int64
}

// InvoiceData is everything the HTML and PDF builders need.
type InvoiceData struct {
	RegistrationNo string
	RecipientName  string
	RecipientEmail string
	IssuedAt       time.Time
	Lines          []Line
	TotalAmount    int64
	DiscountAmount int64
	PromoCode      string
	FinalAmount    int64 // the unique payable amount
	Bank           *models.BankAccount
	Paid           bool // receipt instead of invoice
}

// Title returns "Invoice" or "Payment Receipt".
func (d InvoiceData) Title() string {
	if d.Paid {
		return "Payment Receipt"
	}
	return "Invoice"
}

// BuildInvoiceData shapes a registration detail into invoice lines. The
// billing contact is the recipient when present, otherwise the first
// participant.
func BuildInvoiceData(detail *models.RegistrationDetail, tickets pricing.TicketPrices, bank *models.BankAccount) InvoiceData {
	reg := detail.Registration
	d := InvoiceData{
		RegistrationNo: reg.RegistrationNo,
		IssuedAt:       time.Now(),
		TotalAmount:    reg.TotalAmount,
		DiscountAmount: reg.DiscountAmount,
		PromoCode:      reg.PromoCode,
		FinalAmount:    reg.FinalAmount,
		Bank:           bank,
		Paid:           reg.Status == models.RegistrationStatusPaid,
	}
	if detail.Payment != nil {
		d.FinalAmount = detail.Payment.Amount
	}
	if detail.ContactPerson != nil {
		d.RecipientName = detail.ContactPerson.FullName
		d.RecipientEmail = detail.ContactPerson.Email
	} else if len(detail.Participants) > 0 {
		d.RecipientName = detail.Participants[0].FullName
		d.RecipientEmail = detail.Participants[0].Email
	}

	for _, p := range detail.Participants {
		if p.AttendSymposium {
			d.Lines = append(d.Lines, Line{
				Description: fmt.Sprintf("Symposium — %s (%s)", p.FullName, categoryLabel(p.Category)),
				Amount:      tickets[p.Category],
			})
		}
		for _, w := range detail.Workshops[p.ID.String()] {
			d.Lines = append(d.Lines, Line{
				Description: fmt.Sprintf("Workshop %s — %s", w.Title, p.FullName),
				Amount:      w.Price,
			})
		}
	}
	return d
}

func categoryLabel(c string) string {
	switch c {
	case models.CategorySpecialistDoctor:
		return "Specialist Doctor"
	case models.CategoryGeneralDoctor:
		return "General Doctor"
	case models.CategoryNurse:
		return "Nurse"
	case models.CategoryStudent:
		return "Student"
	}
	return "Other"
}

// FormatRupiah renders an amount as "Rp 150.037".
func FormatRupiah(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, ch := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, ch)
	}
	if neg {
		return "Rp -" + string(out)
	}
	return "Rp " + string(out)
}

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"rupiah": FormatRupiah,
}).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a2e; max-width: 640px; margin: 0 auto;">
  <h2 style="border-bottom: 2px solid #16213e; padding-bottom: 8px;">{{.Title}} — {{.RegistrationNo}}</h2>
  <p>Dear {{.RecipientName}},</p>
  {{if .Paid}}
  <p>Your payment has been verified. Thank you for registering — see you at the symposium!</p>
  {{else}}
  <p>Thank you for registering. Please transfer the <strong>exact amount below</strong> so we can match your payment automatically.</p>
  {{end}}
  <table style="width: 100%; border-collapse: collapse;">
    <tr style="background: #16213e; color: #fff;">
      <th style="text-align: left; padding: 6px 8px;">Item</th>
      <th style="text-align: right; padding: 6px 8px;">Amount</th>
    </tr>
    {{range .Lines}}
    <tr>
      <td style="padding: 6px 8px; border-bottom: 1px solid #ddd;">{{.Description}}</td>
      <td style="text-align: right; padding: 6px 8px; border-bottom: 1px solid #ddd;">{{rupiah .Amount}}</td>
    </tr>
    {{end}}
    <tr>
      <td style="padding: 6px 8px;">Subtotal</td>
      <td style="text-align: right; padding: 6px 8px;">{{rupiah .TotalAmount}}</td>
    </tr>
    {{if .DiscountAmount}}
    <tr>
      <td style="padding: 6px 8px;">Discount{{if .PromoCode}} ({{.PromoCode}}){{end}}</td>
      <td style="text-align: right; padding: 6px 8px;">-{{rupiah .DiscountAmount}}</td>
    </tr>
    {{end}}
    <tr style="font-weight: bold;">
      <td style="padding: 6px 8px;">Amount to transfer</td>
      <td style="text-align: right; padding: 6px 8px;">{{rupiah .FinalAmount}}</td>
    </tr>
  </table>
  {{if and .Bank (not .Paid)}}
  <p>
    Bank: {{.Bank.BankName}}<br>
    Account: {{.Bank.AccountNumber}}<br>
    Holder: {{.Bank.AccountHolder}}
  </p>
  {{end}}
  <p style="color: #666; font-size: 12px;">Registration {{.RegistrationNo}}, issued {{.IssuedAt.Format "2 January 2006"}}.</p>
</body>
</html>`))

// BuildInvoiceHTML renders the email body.
func BuildInvoiceHTML(d InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render invoice html: %w", err)
	}
	return buf.String(), nil
}
