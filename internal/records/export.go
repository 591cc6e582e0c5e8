package records

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", apperr.Validation("Formato de exportação deve ser 'csv' ou 'xlsx'.")
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

var exportHeader = []string{"Carteirinha", "Unidade", "Senhas", "Criado em", "Criado por"}

func exportRow(r models.Record) []string {
	return []string{
		cell(r.CardID),
		cell(r.Unit),
		cell(strings.Join(r.Passwords.Values(), "; ")),
		r.CreatedAt.Format(time.DateTime),
		cell(r.CreatedBy),
	}
}

// cell keeps spreadsheet programs from evaluating user text as a formula.
func cell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

// Export writes the records visible to actor to w.
func (s *Service) Export(ctx context.Context, actor models.Actor, format Format, w io.Writer) error {
	recs, err := s.List(ctx, actor, "")
	if err != nil {
		return err
	}
	if format == FormatXLSX {
		return writeXLSX(w, recs)
	}
	return writeCSV(w, recs)
}

func writeCSV(w io.Writer, recs []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(exportRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const sheetName = "Registros"

func writeXLSX(w io.Writer, recs []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	write := func(row int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		vals := make([]any, len(values))
		for i, v := range values {
			vals[i] = v
		}
		return f.SetSheetRow(sheetName, cell, &vals)
	}

	if err := write(1, exportHeader); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return err
	}
	for i, r := range recs {
		if err := write(i+2, exportRow(r)); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetName, "A", "E", 22); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("gerar planilha: %w", err)
	}
	return nil
}
