package xlsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/kazuke353/Magnus-sub000/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const maxSheetNameLen = 31

var sheetNameSanitizer = strings.NewReplacer(
	":", " ",
	"\\", " ",
	"/", " ",
	"?", " ",
	"*", " ",
	"[", " ",
	"]", " ",
)

// bucketSheetName builds a sheet name the workbook format accepts: forbidden
// characters replaced, length capped at 31.
func bucketSheetName(ordinal int, bucketName string) string {
	name := fmt.Sprintf("%d. %s", ordinal, sheetNameSanitizer.Replace(bucketName))
	if runes := []rune(name); len(runes) > maxSheetNameLen {
		name = string(runes[:maxSheetNameLen])
	}
	return name
}

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

func (g *XLSXGenerator) Generate(ctx context.Context, metrics model.PerformanceMetrics) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	if len(metrics.Buckets) == 0 {
		return nil, "", errors.New("empty portfolio")
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err := g.fillSummarySheet(f, metrics); err != nil {
		return nil, "", err
	}

	for i, bucket := range metrics.Buckets {
		if err := g.fillBucketSheet(f, bucket, i+1); err != nil {
			return nil, "", err
		}
	}

	// Drop the default "Sheet1".
	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func headerStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
}

func (g *XLSXGenerator) fillSummarySheet(f *excelize.File, metrics model.PerformanceMetrics) error {
	const sheetName = "Summary"

	_, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "E1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "A1", "Allocation")

	styleID, err := headerStyle(f, "#cfe2f3")
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "bucket")
	_ = f.SetCellStr(sheetName, "B2", "value")
	_ = f.SetCellStr(sheetName, "C2", "current %")
	_ = f.SetCellStr(sheetName, "D2", "target %")
	_ = f.SetCellStr(sheetName, "E2", "difference")

	for i, alloc := range metrics.AllocationAnalysis.Allocations {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), alloc.BucketName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), alloc.CurrentValue.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), alloc.CurrentPercent.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), alloc.TargetPercent.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), alloc.Difference.InexactFloat64())
	}

	rowNum := len(metrics.AllocationAnalysis.Allocations) + 5

	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "total invested")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), metrics.OverallSummary.TotalInvested.InexactFloat64())
	rowNum++
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "total result")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), metrics.OverallSummary.TotalResult.InexactFloat64())
	rowNum++
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "return %")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), metrics.OverallSummary.ReturnPercentage.InexactFloat64())
	rowNum++
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "free cash")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), metrics.FreeCashAvailable.InexactFloat64())
	rowNum++
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "est. annual dividend")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), metrics.AllocationAnalysis.EstimatedAnnualDividend.InexactFloat64())

	return nil
}

func (g *XLSXGenerator) fillBucketSheet(f *excelize.File, bucket model.Bucket, ordinal int) error {
	sheetName := bucketSheetName(ordinal, bucket.Name)
	_, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "D1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "A1", "Holdings")

	styleID, err := headerStyle(f, "#d9ead3")
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	if err := f.MergeCell(sheetName, "E1", "G1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "E1", "Values")

	styleID, err = headerStyle(f, "#f9cb9c")
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "E1", "E1", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	if err := f.MergeCell(sheetName, "H1", "L1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "H1", "Market data")

	styleID, err = headerStyle(f, "#f4cccc")
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "H1", "H1", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "name")
	_ = f.SetCellStr(sheetName, "B2", "ticker")
	_ = f.SetCellStr(sheetName, "C2", "currency")
	_ = f.SetCellStr(sheetName, "D2", "quantity")
	_ = f.SetCellStr(sheetName, "E2", "invested")
	_ = f.SetCellStr(sheetName, "F2", "current")
	_ = f.SetCellStr(sheetName, "G2", "result")
	_ = f.SetCellStr(sheetName, "H2", "yield %")
	_ = f.SetCellStr(sheetName, "I2", "1w %")
	_ = f.SetCellStr(sheetName, "J2", "1m %")
	_ = f.SetCellStr(sheetName, "K2", "3m %")
	_ = f.SetCellStr(sheetName, "L2", "1y %")

	for i, holding := range bucket.Holdings {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), holding.FullName)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), holding.Ticker)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", row), holding.CurrencyCode)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), holding.Quantity.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), holding.InvestedValue.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), holding.CurrentValue.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), holding.ResultValue.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), holding.DividendYield.InexactFloat64())
		setOptionalCell(f, sheetName, fmt.Sprintf("I%d", row), holding.Performance1W)
		setOptionalCell(f, sheetName, fmt.Sprintf("J%d", row), holding.Performance1M)
		setOptionalCell(f, sheetName, fmt.Sprintf("K%d", row), holding.Performance3M)
		setOptionalCell(f, sheetName, fmt.Sprintf("L%d", row), holding.Performance1Y)
	}

	rowNum := len(bucket.Holdings) + 4
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "total invested")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), bucket.TotalInvested.InexactFloat64())
	rowNum++
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "return %")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), bucket.ReturnPercentage.InexactFloat64())

	return nil
}

func setOptionalCell(f *excelize.File, sheetName, cell string, value *decimal.Decimal) {
	if value == nil {
		_ = f.SetCellStr(sheetName, cell, "n/a")
		return
	}
	_ = f.SetCellValue(sheetName, cell, value.InexactFloat64())
}
