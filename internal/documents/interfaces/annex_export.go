package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"billing-docs/internal/documents/application"
)

// BuildAnnexPDF renders the payment schedule and item breakdown of a record.
func BuildAnnexPDF(preview *application.Preview) ([]byte, error) {
	if preview == nil || preview.Record == nil {
		return nil, fmt.Errorf("annex: nil preview")
	}
	record := preview.Record
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, tr(fmt.Sprintf("Anexo - %s %s", record.Kind.Prefix(), record.Number)))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	if record.Company.TradingName != "" {
		pdf.Cell(0, 6, tr("Empresa: "+record.Company.TradingName))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Parcelas: %d", len(preview.Schedule)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Parcela", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Vencimento", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Valor", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, entry := range preview.Schedule {
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", entry.Number), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, entry.DueDate, "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, tr(entry.Value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Tipo", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Total", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, view := range preview.Classification.Recurring {
		pdf.CellFormat(70, 6, tr(view.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, "Recorrente", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, tr(view.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	for _, view := range preview.Classification.OneTime {
		pdf.CellFormat(70, 6, tr(view.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr("Único"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, tr(view.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildAnnexXLSX renders the same annex as a workbook with raw amounts.
func BuildAnnexXLSX(preview *application.Preview) ([]byte, error) {
	if preview == nil || preview.Record == nil {
		return nil, fmt.Errorf("annex: nil preview")
	}
	record := preview.Record
	f := excelize.NewFile()
	defer f.Close()
	scheduleSheet := "parcelas"
	itemsSheet := "itens"
	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(scheduleSheet, "A1", record.Kind.Prefix())
	_ = f.SetCellValue(scheduleSheet, "B1", record.Number)
	_ = f.SetCellValue(scheduleSheet, "A3", "Parcela")
	_ = f.SetCellValue(scheduleSheet, "B3", "Vencimento")
	_ = f.SetCellValue(scheduleSheet, "C3", "Valor")
	for i, entry := range preview.Schedule {
		row := i + 4
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("A%d", row), entry.Number)
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("B%d", row), entry.DueDate)
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("C%d", row), entry.Amount.InexactFloat64())
	}

	_ = f.SetCellValue(itemsSheet, "A1", "Item")
	_ = f.SetCellValue(itemsSheet, "B1", "Tipo")
	_ = f.SetCellValue(itemsSheet, "C1", "Total")
	row := 2
	for _, view := range preview.Classification.Recurring {
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), view.Name)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), "Recorrente")
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), view.LineTotal.InexactFloat64())
		row++
	}
	for _, view := range preview.Classification.OneTime {
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), view.Name)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), "Único")
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), view.LineTotal.InexactFloat64())
		row++
	}
	row++
	_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), "Total recorrente")
	_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), preview.Classification.RecurringTotal.InexactFloat64())
	row++
	_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), "Total único")
	_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), preview.Classification.OneTimeTotal.InexactFloat64())

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
