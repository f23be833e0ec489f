package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/config"
	"github.com/mcvu-symposium/backend/internal/models"
	"github.com/mcvu-symposium/backend/internal/pricing"
)

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "Rp 0"},
		{999, "Rp 999"},
		{1000, "Rp 1.000"},
		{150037, "Rp 150.037"},
		{1250000, "Rp 1.250.000"},
	}
	for _, tc := range cases {
		if got := FormatRupiah(tc.in); got != tc.want {
			t.Errorf("FormatRupiah(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func sampleData() InvoiceData {
	return InvoiceData{
		RegistrationNo: "MCVU-00000042",
		RecipientName:  "Dr. Siti Rahma",
		RecipientEmail: "siti@example.com",
		IssuedAt:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Lines: []Line{
			{Description: "Symposium — Dr. Siti Rahma (Specialist Doctor)", Amount: 400000},
			{Description: "Workshop Echocardiography — Dr. Siti Rahma", Amount: 150000},
		},
		TotalAmount:    550000,
		DiscountAmount: 55000,
		PromoCode:      "EARLYBIRD",
		FinalAmount:    495037,
		Bank: &models.BankAccount{
			BankName:      "Bank Mandiri",
			AccountNumber: "1370001234567",
			AccountHolder: "MCVU Symposium",
		},
	}
}

func TestBuildInvoiceHTML(t *testing.T) {
	html, err := BuildInvoiceHTML(sampleData())
	if err != nil {
		t.Fatalf("BuildInvoiceHTML: %v", err)
	}
	for _, want := range []string{
		"MCVU-00000042",
		"Dr. Siti Rahma",
		"Rp 495.037",
		"EARLYBIRD",
		"Bank Mandiri",
		"Invoice",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("invoice html missing %q", want)
		}
	}
	if strings.Contains(html, "Payment Receipt") {
		t.Error("unpaid invoice should not render as receipt")
	}
}

func TestBuildInvoiceHTMLReceipt(t *testing.T) {
	d := sampleData()
	d.Paid = true
	html, err := BuildInvoiceHTML(d)
	if err != nil {
		t.Fatalf("BuildInvoiceHTML: %v", err)
	}
	if !strings.Contains(html, "Payment Receipt") {
		t.Error("paid invoice should render as receipt")
	}
	if strings.Contains(html, "Bank Mandiri") {
		t.Error("receipt should not show transfer instructions")
	}
}

func TestBuildInvoicePDF(t *testing.T) {
	out, err := BuildInvoicePDF(sampleData())
	if err != nil {
		t.Fatalf("BuildInvoicePDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("output does not start with %%PDF header, got %q", out[:min(8, len(out))])
	}
}

func TestBuildInvoiceData(t *testing.T) {
	pid := uuid.New()
	detail := &models.RegistrationDetail{
		Registration: models.Registration{
			RegistrationNo: "MCVU-00000007",
			Status:         models.RegistrationStatusPending,
			TotalAmount:    150000,
			FinalAmount:    150321,
		},
		Participants: []models.Participant{{
			ID:              pid,
			FullName:        "Budi Santoso",
			Email:           "budi@example.com",
			Category:        models.CategoryStudent,
			AttendSymposium: true,
		}},
		Workshops: map[string][]models.Workshop{
			pid.String(): {{Title: "ECG Basics", Price: 50000}},
		},
	}
	d := BuildInvoiceData(detail, pricing.TicketPrices{models.CategoryStudent: 100000}, nil)

	if d.RecipientName != "Budi Santoso" {
		t.Errorf("recipient = %q, want first participant", d.RecipientName)
	}
	if len(d.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(d.Lines))
	}
	if d.Lines[0].Amount != 100000 || d.Lines[1].Amount != 50000 {
		t.Errorf("line amounts = %d, %d", d.Lines[0].Amount, d.Lines[1].Amount)
	}
	if d.FinalAmount != 150321 {
		t.Errorf("final amount = %d, want registration final amount", d.FinalAmount)
	}
}

func TestMailerSendAPI(t *testing.T) {
	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMailer(config.EmailConfig{
		FromAddress: "noreply@mcvu.example",
		FromName:    "MCVU Symposium",
		APIURL:      srv.URL,
		APIKey:      "test-key",
	}, zap.NewNop())

	err := m.Send(context.Background(), Message{
		To:      "budi@example.com",
		Subject: "Invoice MCVU-00000007",
		HTML:    "<p>hello</p>",
		Attachments: []Attachment{
			{Filename: "invoice.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
		},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(got.To) != 1 || got.To[0] != "budi@example.com" {
		t.Errorf("to = %v", got.To)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Filename != "invoice.pdf" {
		t.Errorf("attachments = %+v", got.Attachments)
	}
}

func TestMailerSendUnconfigured(t *testing.T) {
	m := NewMailer(config.EmailConfig{}, zap.NewNop())
	if err := m.Send(context.Background(), Message{To: "x@example.com"}); err == nil {
		t.Error("expected error when no delivery method configured")
	}
}
