package services

import (
	"bytes"
	"fmt"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// InventoryReportRow is one catalog line in an inventory export.
type InventoryReportRow struct {
	Name       string  `csv:"name"`
	Category   string  `csv:"category"`
	Supplier   string  `csv:"supplier"`
	Price      float64 `csv:"price"`
	Quantity   int     `csv:"quantity"`
	StockValue float64 `csv:"stock_value"`
	Status     string  `csv:"status"` // ok|low|out
}

// SalesReportRow is one sale in a sales history export.
type SalesReportRow struct {
	SaleID        int64   `csv:"sale_id"`
	SaleTime      string  `csv:"sale_time"`
	PaymentMethod string  `csv:"payment_method"`
	Customer      string  `csv:"customer"`
	ItemCount     int     `csv:"item_count"`
	Subtotal      float64 `csv:"subtotal"`
	GSTAmount     float64 `csv:"gst_amount"`
	Total         float64 `csv:"total"`
}

// ReportService builds inventory and sales exports in CSV or XLSX form.
type ReportService interface {
	InventoryReport(userID int64) ([]InventoryReportRow, error)
	ExportInventory(userID int64, format string) ([]byte, string, error)
	ExportSales(userID int64, filters models.SaleFilters, format string) ([]byte, string, error)
}

type reportService struct {
	store repositories.Store
}

func NewReportService(store repositories.Store) ReportService {
	return &reportService{store: store}
}

func (s *reportService) InventoryReport(userID int64) ([]InventoryReportRow, error) {
	products, _, err := s.store.Products().GetAll(userID, models.ProductFilters{})
	if err != nil {
		return nil, err
	}
	rows := make([]InventoryReportRow, 0, len(products))
	for _, p := range products {
		supplier := ""
		if p.Supplier != nil {
			supplier = *p.Supplier
		}
		status := "ok"
		if p.Quantity == 0 {
			status = "out"
		} else if p.MinStockLevel != nil && p.Quantity <= *p.MinStockLevel {
			status = "low"
		}
		rows = append(rows, InventoryReportRow{
			Name:       p.Name,
			Category:   p.Category,
			Supplier:   supplier,
			Price:      p.Price,
			Quantity:   p.Quantity,
			StockValue: p.Price * float64(p.Quantity),
			Status:     status,
		})
	}
	return rows, nil
}

func (s *reportService) ExportInventory(userID int64, format string) ([]byte, string, error) {
	rows, err := s.InventoryReport(userID)
	if err != nil {
		return nil, "", err
	}
	switch format {
	case FormatCSV:
		out, err := gocsv.MarshalBytes(&rows)
		if err != nil {
			return nil, "", fmt.Errorf("encoding inventory csv: %w", err)
		}
		return out, contentTypeCSV, nil
	case FormatXLSX:
		out, err := inventoryXLSX(rows)
		if err != nil {
			return nil, "", err
		}
		return out, contentTypeXLSX, nil
	}
	return nil, "", fmt.Errorf("%w: unknown export format %q", ErrValidation, format)
}

func (s *reportService) ExportSales(userID int64, filters models.SaleFilters, format string) ([]byte, string, error) {
	// Pagination off: an export always covers the full filtered range.
	filters.Page = 0
	filters.PageSize = 0
	sales, _, err := s.store.Sales().GetAll(userID, filters)
	if err != nil {
		return nil, "", err
	}
	rows := make([]SalesReportRow, 0, len(sales))
	for _, sale := range sales {
		customer := ""
		if sale.CustomerName != nil {
			customer = *sale.CustomerName
		}
		rows = append(rows, SalesReportRow{
			SaleID:        sale.ID,
			SaleTime:      sale.SaleTime.Format("2006-01-02 15:04:05"),
			PaymentMethod: sale.PaymentMethod,
			Customer:      customer,
			ItemCount:     len(sale.Items),
			Subtotal:      sale.Subtotal,
			GSTAmount:     sale.GSTAmount,
			Total:         sale.Total,
		})
	}
	switch format {
	case FormatCSV:
		out, err := gocsv.MarshalBytes(&rows)
		if err != nil {
			return nil, "", fmt.Errorf("encoding sales csv: %w", err)
		}
		return out, contentTypeCSV, nil
	case FormatXLSX:
		out, err := salesXLSX(rows)
		if err != nil {
			return nil, "", err
		}
		return out, contentTypeXLSX, nil
	}
	return nil, "", fmt.Errorf("%w: unknown export format %q", ErrValidation, format)
}

func inventoryXLSX(rows []InventoryReportRow) ([]byte, error) {
	const sheet = "Sheet1"
	xlsx := excelize.NewFile()
	headers := []string{"Name", "Category", "Supplier", "Price", "Quantity", "Stock Value", "Status"}
	for col, h := range headers {
		xlsx.SetCellValue(sheet, cellRef(col, 0), h)
	}
	for i, r := range rows {
		xlsx.SetCellValue(sheet, cellRef(0, i+1), r.Name)
		xlsx.SetCellValue(sheet, cellRef(1, i+1), r.Category)
		xlsx.SetCellValue(sheet, cellRef(2, i+1), r.Supplier)
		xlsx.SetCellValue(sheet, cellRef(3, i+1), r.Price)
		xlsx.SetCellValue(sheet, cellRef(4, i+1), r.Quantity)
		xlsx.SetCellValue(sheet, cellRef(5, i+1), r.StockValue)
		xlsx.SetCellValue(sheet, cellRef(6, i+1), r.Status)
	}
	var buf bytes.Buffer
	if err := xlsx.Write(&buf); err != nil {
		return nil, fmt.Errorf("encoding inventory xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func salesXLSX(rows []SalesReportRow) ([]byte, error) {
	const sheet = "Sheet1"
	xlsx := excelize.NewFile()
	headers := []string{"Sale ID", "Time", "Payment", "Customer", "Items", "Subtotal", "GST", "Total"}
	for col, h := range headers {
		xlsx.SetCellValue(sheet, cellRef(col, 0), h)
	}
	for i, r := range rows {
		xlsx.SetCellValue(sheet, cellRef(0, i+1), r.SaleID)
		xlsx.SetCellValue(sheet, cellRef(1, i+1), r.SaleTime)
		xlsx.SetCellValue(sheet, cellRef(2, i+1), r.PaymentMethod)
		xlsx.SetCellValue(sheet, cellRef(3, i+1), r.Customer)
		xlsx.SetCellValue(sheet, cellRef(4, i+1), r.ItemCount)
		xlsx.SetCellValue(sheet, cellRef(5, i+1), r.Subtotal)
		xlsx.SetCellValue(sheet, cellRef(6, i+1), r.GSTAmount)
		xlsx.SetCellValue(sheet, cellRef(7, i+1), r.Total)
	}
	var buf bytes.Buffer
	if err := xlsx.Write(&buf); err != nil {
		return nil, fmt.Errorf("encoding sales xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// cellRef converts zero-based column/row to an A1-style reference.
func cellRef(col, row int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return fmt.Sprintf("%s%d", name, row+1)
}
