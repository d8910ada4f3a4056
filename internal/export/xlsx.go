package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Appliances"

// ApplianceHeader 导出表头
var ApplianceHeader = []string{
	"Name",
	"Category",
	"Brand",
	"Model",
	"Serial Number",
	"Purchase Date",
	"Warranty (months)",
	"Condition",
	"Alert Date",
	"Alert Status",
	"Snooze Until",
	"Recurrence",
	"Custom Days",
	"Notes",
}

var columnWidths = []float64{
	25, // Name
	15, // Category
	15, // Brand
	15, // Model
	20, // Serial Number
	15, // Purchase Date
	18, // Warranty (months)
	15, // Condition
	14, // Alert Date
	14, // Alert Status
	14, // Snooze Until
	12, // Recurrence
	12, // Custom Days
	40, // Notes
}

// Appliances 生成家电清单 Excel 文件
func Appliances(list []*models.Appliance) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 写入表头
	header := make([]interface{}, len(ApplianceHeader))
	for i, h := range ApplianceHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(ApplianceHeader))
	if err != nil {
		return nil, fmt.Errorf("failed to convert column number: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// 写入数据（从第2行开始）
	for i, a := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		row := applianceRow(a)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func applianceRow(a *models.Appliance) []interface{} {
	alertDate := ""
	if a.AlertDate != nil {
		alertDate = a.AlertDate.String()
	}
	snoozeUntil := ""
	if until, ok := a.Alert.SnoozeUntil(); ok {
		snoozeUntil = until.String()
	}
	customDays := ""
	if days := a.CustomDays(); days != nil {
		customDays = strconv.Itoa(*days)
	}
	warranty := ""
	if a.WarrantyMonths != nil {
		warranty = strconv.Itoa(*a.WarrantyMonths)
	}

	return []interface{}{
		a.Name,
		str(a.Category),
		str(a.Brand),
		str(a.Model),
		str(a.SerialNumber),
		str(a.PurchaseDate),
		warranty,
		str(a.ConditionText),
		alertDate,
		string(a.Alert.Status()),
		snoozeUntil,
		string(a.RecurringInterval),
		customDays,
		str(a.Notes),
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
