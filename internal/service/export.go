package service

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"shop-bot/internal/model"
)

const ordersSheet = "Orders"

var exportHeaders = []string{
	"ID", "Created", "Status", "Telegram ID", "Customer", "Phone", "Username",
	"Language", "Items", "Total", "Address", "WhatsApp", "Email", "Comment",
}

func writeOrdersWorkbook(w io.Writer, orders []model.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(ordersSheet, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(ordersSheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, o := range orders {
		items := make([]string, 0, len(o.Items))
		for _, item := range o.Items {
			items = append(items, fmt.Sprintf("%s x%d", item.ProductNameUZ, item.Quantity))
		}
		total, _ := o.Total.Float64()

		row := []any{
			o.ID,
			o.CreatedAt.Format("2006-01-02 15:04"),
			string(o.Status),
			o.Customer.TelegramID,
			o.Customer.FullName,
			o.Customer.Phone,
			o.Customer.Username,
			o.Customer.Language,
			strings.Join(items, "; "),
			total,
			o.Address,
			o.ContactWhatsApp,
			o.ContactEmail,
			o.Comment,
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return fmt.Errorf("write order %d: %w", o.ID, err)
		}
	}

	if err := f.SetColWidth(ordersSheet, "A", "N", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
