package notifications

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// BuildInvoicePDF renders the invoice as an A4 PDF attachment.
func BuildInvoicePDF(d InvoiceData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "MCVU Symposium", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s %s", d.Title(), d.RegistrationNo), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Issued "+d.IssuedAt.Format("2 January 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Billed to: "+d.RecipientName, "", 1, "L", false, 0, "")
	if d.RecipientEmail != "" {
		pdf.CellFormat(0, 6, d.RecipientEmail, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// item table
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(22, 33, 62)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(140, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 8, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range d.Lines {
		pdf.CellFormat(140, 7, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, FormatRupiah(line.Amount), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(140, 7, "Subtotal", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 7, FormatRupiah(d.TotalAmount), "1", 1, "R", false, 0, "")
	if d.DiscountAmount > 0 {
		label := "Discount"
		if d.PromoCode != "" {
			label += " (" + d.PromoCode + ")"
		}
		pdf.CellFormat(140, 7, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, "-"+FormatRupiah(d.DiscountAmount), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(140, 8, "Amount to transfer", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, FormatRupiah(d.FinalAmount), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	if d.Bank != nil && !d.Paid {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, "Transfer to "+d.Bank.BankName, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, "Account "+d.Bank.AccountNumber+" ("+d.Bank.AccountHolder+")", "", 1, "L", false, 0, "")
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, "Transfer the exact amount shown above. The final digits let us match your payment to this registration.", "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
