package loader

import (
	"strings"

	apperrors "retailcli/internal/errors"
)

// columnSpec declares how one canonical column is located in a workbook
// header. Aliases are matched exactly (case-sensitive, whitespace-trimmed).
// FallbackTokens drive the last-resort substring search; a search that hits
// more than one header is rejected as ambiguous instead of taking the first
// hit.
type columnSpec struct {
	canonical      string
	aliases        []string
	fallbackTokens []string
	required       bool
}

// Table schemas. Aliases cover the English names used by this tool and the
// Spanish headers of the upstream spreadsheets.
var (
	customerColumns = []columnSpec{
		{canonical: "id", aliases: []string{"customer_id", "id_cliente", "id"}, required: true},
		{canonical: "name", aliases: []string{"customer_name", "nombre_cliente"}, fallbackTokens: []string{"name", "nombre"}},
		{canonical: "email", aliases: []string{"email", "correo"}},
		{canonical: "city", aliases: []string{"city", "ciudad"}},
		{canonical: "signup_date", aliases: []string{"signup_date", "fecha_alta"}},
	}

	productColumns = []columnSpec{
		{canonical: "id", aliases: []string{"product_id", "id_producto", "id"}, required: true},
		{canonical: "name", aliases: []string{"product_name", "nombre_producto"}, fallbackTokens: []string{"name", "nombre"}},
		{canonical: "category", aliases: []string{"category", "categoria"}},
		{canonical: "unit_price", aliases: []string{"unit_price", "precio_unitario"}, fallbackTokens: []string{"price", "precio"}},
	}

	saleColumns = []columnSpec{
		{canonical: "id", aliases: []string{"sale_id", "id_venta", "id"}, required: true},
		{canonical: "date", aliases: []string{"date", "fecha"}, fallbackTokens: []string{"date", "fecha"}, required: true},
		{canonical: "customer_id", aliases: []string{"customer_id", "id_cliente"}},
		{canonical: "payment_method", aliases: []string{"payment_method", "medio_pago"}},
	}

	saleLineColumns = []columnSpec{
		{canonical: "sale_id", aliases: []string{"sale_id", "id_venta"}, required: true},
		{canonical: "product_id", aliases: []string{"product_id", "id_producto"}, required: true},
		{canonical: "quantity", aliases: []string{"quantity", "cantidad"}, required: true},
		{canonical: "unit_price", aliases: []string{"unit_price", "precio_unitario"}, fallbackTokens: []string{"price", "precio"}},
		{canonical: "amount", aliases: []string{"amount", "importe"}},
	}
)

// resolveColumns maps canonical column names to header indices for one table.
// Resolution order per column: exact alias match on the trimmed header, then
// the substring-token fallback. A required column that resolves to nothing is
// a fatal schema error, as is a fallback that matches more than one header.
func resolveColumns(table string, header []string, specs []columnSpec) (map[string]int, error) {
	trimmed := make([]string, len(header))
	for i, h := range header {
		trimmed[i] = strings.TrimSpace(h)
	}

	columns := make(map[string]int, len(specs))
	for _, spec := range specs {
		idx, err := resolveColumn(table, trimmed, spec)
		if err != nil {
			return nil, err
		}
		if idx >= 0 {
			columns[spec.canonical] = idx
		}
	}
	return columns, nil
}

func resolveColumn(table string, header []string, spec columnSpec) (int, error) {
	for _, alias := range spec.aliases {
		for i, h := range header {
			if h == alias {
				return i, nil
			}
		}
	}

	if len(spec.fallbackTokens) > 0 {
		candidates := []int{}
		for i, h := range header {
			lower := strings.ToLower(h)
			for _, token := range spec.fallbackTokens {
				if strings.Contains(lower, token) {
					candidates = append(candidates, i)
					break
				}
			}
		}
		switch len(candidates) {
		case 1:
			return candidates[0], nil
		case 0:
			// fall through to the required check
		default:
			return -1, apperrors.NewSchemaError(table, spec.canonical,
				"matched more than one candidate column; rename the columns to disambiguate")
		}
	}

	if spec.required {
		return -1, apperrors.NewSchemaError(table, spec.canonical, "not found under any accepted name")
	}
	return -1, nil
}
