package report

import (
	"sort"
	"time"

	"retailcli/internal/config"
	"retailcli/internal/forecast"
	"retailcli/internal/pipeline"
)

const monthLayout = "2006-01"

// Counters mirrors the merge accounting for the summary artifact.
type Counters struct {
	Retained          int `json:"retained"`
	DroppedNoDate     int `json:"dropped_no_date"`
	OrphanLines       int `json:"orphan_lines"`
	SalesWithoutLines int `json:"sales_without_lines"`
	AmountMismatches  int `json:"amount_mismatches"`
}

// KPI holds the headline figures of the analyzed period.
type KPI struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalQuantity     int64   `json:"total_quantity"`
	DistinctProducts  int     `json:"distinct_products"`
	DistinctCustomers int     `json:"distinct_customers"`
	Months            int     `json:"months"`
	FirstMonth        string  `json:"first_month"`
	LastMonth         string  `json:"last_month"`
}

// DropAlert flags a product whose last-month quantity fell sharply below its
// peak in the preceding months.
type DropAlert struct {
	ProductID    int     `json:"product_id"`
	ProductName  string  `json:"product_name,omitempty"`
	PeakQuantity int64   `json:"peak_quantity"`
	LastQuantity int64   `json:"last_quantity"`
	DropPercent  float64 `json:"drop_percent"`
}

// Summary is the run summary artifact written next to the rankings.
type Summary struct {
	GeneratedAt       time.Time            `json:"generated_at"`
	Mode              string               `json:"mode"`
	Counters          Counters             `json:"counters"`
	KPI               KPI                  `json:"kpi"`
	Evaluation        *forecast.Evaluation `json:"evaluation,omitempty"`
	PredictionSkipped string               `json:"prediction_skipped,omitempty"`
	DropAlerts        []DropAlert          `json:"drop_alerts"`
}

// BuildSummary condenses a pipeline result into the summary artifact.
func BuildSummary(result *pipeline.Result, cfg config.PipelineConfig) *Summary {
	summary := &Summary{
		GeneratedAt: time.Now().UTC(),
		Mode:        cfg.Mode,
		Counters: Counters{
			Retained:          result.Merge.Retained,
			DroppedNoDate:     result.Merge.DroppedNoDate,
			OrphanLines:       result.Merge.OrphanLines,
			SalesWithoutLines: result.Merge.SalesWithoutLines,
			AmountMismatches:  result.Merge.AmountMismatches,
		},
		KPI:        buildKPI(result),
		DropAlerts: DropAlerts(result, cfg.DropAlertPercent),
	}

	if result.Outcome != nil {
		eval := result.Outcome.Evaluation
		summary.Evaluation = &eval
	}
	if result.PredictionSkipped != nil {
		summary.PredictionSkipped = result.PredictionSkipped.Error()
	}
	return summary
}

func buildKPI(result *pipeline.Result) KPI {
	kpi := KPI{
		DistinctProducts: len(result.Matrix.ProductIDs),
		Months:           len(result.Matrix.Months),
		TotalQuantity:    result.Matrix.Total(),
		FirstMonth:       result.Matrix.Months[0].Format(monthLayout),
		LastMonth:        result.Matrix.Months[len(result.Matrix.Months)-1].Format(monthLayout),
	}

	customers := make(map[int]struct{})
	for _, r := range result.Merge.Records {
		kpi.TotalRevenue += r.Amount
		customers[r.CustomerID] = struct{}{}
	}
	kpi.DistinctCustomers = len(customers)
	return kpi
}

// DropAlerts compares every product's last-month quantity against its peak in
// the preceding months and flags declines of at least threshold percent.
// Alerts are ordered by severity, ties by ascending product id. Products that
// never sold before the last month cannot decline and are skipped.
func DropAlerts(result *pipeline.Result, threshold float64) []DropAlert {
	matrix := result.Matrix
	n := len(matrix.Months)
	if n < 2 {
		return nil
	}

	names := make(map[int]string, len(result.Tables.Products))
	for _, p := range result.Tables.Products {
		names[p.ID] = p.Name
	}

	var alerts []DropAlert
	for _, id := range matrix.ProductIDs {
		var peak int64
		for col := 0; col < n-1; col++ {
			if q := matrix.Quantity(id, col); q > peak {
				peak = q
			}
		}
		if peak == 0 {
			continue
		}

		last := matrix.Quantity(id, n-1)
		drop := float64(peak-last) / float64(peak) * 100
		if drop >= threshold {
			alerts = append(alerts, DropAlert{
				ProductID:    id,
				ProductName:  names[id],
				PeakQuantity: peak,
				LastQuantity: last,
				DropPercent:  drop,
			})
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].DropPercent != alerts[j].DropPercent {
			return alerts[i].DropPercent > alerts[j].DropPercent
		}
		return alerts[i].ProductID < alerts[j].ProductID
	})
	return alerts
}
