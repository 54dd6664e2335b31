package loader

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "retailcli/internal/errors"
	"retailcli/pkg/domain"
)

// Tables holds the four typed record sets produced by one load.
type Tables struct {
	Customers []domain.Customer
	Products  []domain.Product
	Sales     []domain.Sale
	SaleLines []domain.SaleLine
}

// Loader reads the four input workbooks into typed record sets. It performs
// no transformation beyond column-name trimming and numeric coercion; joins
// and price resolution belong to the merger.
type Loader struct {
	logger *slog.Logger
}

// New creates a loader. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads the four workbooks given by paths (keys: customers, products,
// sales, sale_lines). A missing file fails fast and names the input.
func (l *Loader) Load(ctx context.Context, paths map[string]string) (*Tables, error) {
	tables := &Tables{}

	customers, err := l.loadCustomers(ctx, paths["customers"])
	if err != nil {
		return nil, err
	}
	tables.Customers = customers

	products, err := l.loadProducts(ctx, paths["products"])
	if err != nil {
		return nil, err
	}
	tables.Products = products

	sales, err := l.loadSales(ctx, paths["sales"])
	if err != nil {
		return nil, err
	}
	tables.Sales = sales

	lines, err := l.loadSaleLines(ctx, paths["sale_lines"])
	if err != nil {
		return nil, err
	}
	tables.SaleLines = lines

	l.logger.InfoContext(ctx, "input workbooks loaded",
		slog.Int("customers", len(tables.Customers)),
		slog.Int("products", len(tables.Products)),
		slog.Int("sales", len(tables.Sales)),
		slog.Int("sale_lines", len(tables.SaleLines)))

	return tables, nil
}

func (l *Loader) loadCustomers(ctx context.Context, path string) ([]domain.Customer, error) {
	header, rows, err := l.readSheet(ctx, "customers", path)
	if err != nil {
		return nil, err
	}
	columns, err := resolveColumns("customers", header, customerColumns)
	if err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		id, ok := parseIntCell(cell(row, columns, "id"))
		if !ok {
			continue
		}
		c := domain.Customer{
			ID:    id,
			Name:  cell(row, columns, "name"),
			Email: cell(row, columns, "email"),
			City:  cell(row, columns, "city"),
		}
		if t, ok := parseDateCell(cell(row, columns, "signup_date")); ok {
			c.SignupDate = t
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (l *Loader) loadProducts(ctx context.Context, path string) ([]domain.Product, error) {
	header, rows, err := l.readSheet(ctx, "products", path)
	if err != nil {
		return nil, err
	}
	columns, err := resolveColumns("products", header, productColumns)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		id, ok := parseIntCell(cell(row, columns, "id"))
		if !ok {
			continue
		}
		p := domain.Product{
			ID:       id,
			Name:     cell(row, columns, "name"),
			Category: cell(row, columns, "category"),
		}
		if price, ok := parseFloatCell(cell(row, columns, "unit_price")); ok {
			p.CatalogPrice = price
			p.HasCatalogPrice = true
		}
		products = append(products, p)
	}
	return products, nil
}

func (l *Loader) loadSales(ctx context.Context, path string) ([]domain.Sale, error) {
	header, rows, err := l.readSheet(ctx, "sales", path)
	if err != nil {
		return nil, err
	}
	columns, err := resolveColumns("sales", header, saleColumns)
	if err != nil {
		return nil, err
	}

	sales := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		id, ok := parseIntCell(cell(row, columns, "id"))
		if !ok {
			continue
		}
		s := domain.Sale{
			ID:            id,
			PaymentMethod: cell(row, columns, "payment_method"),
		}
		if customerID, ok := parseIntCell(cell(row, columns, "customer_id")); ok {
			s.CustomerID = customerID
		}
		if t, ok := parseDateCell(cell(row, columns, "date")); ok {
			s.Date = t
			s.HasDate = true
		}
		sales = append(sales, s)
	}
	return sales, nil
}

func (l *Loader) loadSaleLines(ctx context.Context, path string) ([]domain.SaleLine, error) {
	header, rows, err := l.readSheet(ctx, "sale_lines", path)
	if err != nil {
		return nil, err
	}
	columns, err := resolveColumns("sale_lines", header, saleLineColumns)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.SaleLine, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		saleID, okSale := parseIntCell(cell(row, columns, "sale_id"))
		productID, okProduct := parseIntCell(cell(row, columns, "product_id"))
		if !okSale || !okProduct {
			skipped++
			continue
		}
		line := domain.SaleLine{
			SaleID:    saleID,
			ProductID: productID,
		}
		if qty, ok := parseIntCell(cell(row, columns, "quantity")); ok && qty >= 0 {
			line.Quantity = qty
		}
		if price, ok := parseFloatCell(cell(row, columns, "unit_price")); ok {
			line.UnitPrice = price
			line.HasUnitPrice = true
		}
		if amount, ok := parseFloatCell(cell(row, columns, "amount")); ok {
			line.Amount = amount
			line.HasAmount = true
		}
		lines = append(lines, line)
	}
	if skipped > 0 {
		l.logger.WarnContext(ctx, "skipped sale line rows without sale or product id",
			slog.Int("skipped", skipped))
	}
	return lines, nil
}

// readSheet opens a workbook and returns the header row plus the data rows of
// its first sheet. Raw cell values are requested so date cells come back as
// Excel serial numbers instead of locale-formatted strings.
func (l *Loader) readSheet(ctx context.Context, table, path string) ([]string, [][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, apperrors.NewMissingInputError(path, err).WithContext("table", table)
	}

	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to open workbook "+path, err).
			WithContext("table", table)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, apperrors.NewParsingError("workbook has no sheets: "+path, nil).
			WithContext("table", table)
	}
	sheet := pickSheet(table, sheets)

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to read sheet "+sheet, err).
			WithContext("table", table)
	}
	if len(rows) == 0 {
		return nil, nil, apperrors.NewSchemaError(table, "header", "sheet is empty")
	}

	l.logger.DebugContext(ctx, "sheet read",
		slog.String("table", table),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)-1))

	return rows[0], rows[1:], nil
}

// sheetNames maps each table to the sheet names (English and Spanish) that
// identify it inside a multi-sheet workbook.
var sheetNames = map[string][]string{
	"customers":  {"customers", "clientes"},
	"products":   {"products", "productos"},
	"sales":      {"sales", "ventas"},
	"sale_lines": {"sale_lines", "detalle_ventas", "detalle"},
}

// pickSheet prefers a sheet named after the table; otherwise the first sheet
// carries the data, which is the common single-sheet case.
func pickSheet(table string, sheets []string) string {
	for _, s := range sheets {
		name := strings.ToLower(strings.TrimSpace(s))
		for _, want := range sheetNames[table] {
			if name == want {
				return s
			}
		}
	}
	return sheets[0]
}

// cell returns the trimmed value of a resolved column in a row, or "" when
// the column was not resolved or the row is short.
func cell(row []string, columns map[string]int, canonical string) string {
	idx, ok := columns[canonical]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseIntCell(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	// Integer ids sometimes surface as "12.0" from raw numeric cells.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}

func parseFloatCell(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// dateLayouts are tried in order for date cells stored as text.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	time.RFC3339,
}

func parseDateCell(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	// Excel serial date from a raw numeric cell.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
