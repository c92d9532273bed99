package counting

import (
	"sort"

	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
)

// ItemVariance is the per-product outcome of a finalized session.
type ItemVariance struct {
	ProductID     id.ID          `json:"productId"`
	ExpectedQty   types.Quantity `json:"expectedQty"`
	ActualQty     types.Quantity `json:"actualQty"`
	Variance      types.Quantity `json:"variance"`
	UnitCost      types.Money    `json:"unitCost"`
	VarianceValue types.Money    `json:"varianceValue"`
}

// VarianceReport is the session-level variance summary.
type VarianceReport struct {
	SessionID id.ID          `json:"sessionId"`
	Items     []ItemVariance `json:"items"`

	// Totals are computed over products with ExpectedQty > 0 only, so
	// products with no par baseline do not distort the percentage.
	TotalExpectedValue types.Money `json:"totalExpectedValue"`
	TotalVarianceValue types.Money `json:"totalVarianceValue"`
	VariancePercent    types.Money `json:"variancePercent"`
}

// Aggregate computes the authoritative variance for a session.
//
// It is a pure function of the session's count items and the supplied catalog
// data. Products are taken from the union of everything counted and everything
// with a positive par level, so an uncounted product with a par still shows a
// shortage. Output ordering is by product id, making re-runs reproduce
// identical reports.
func Aggregate(session *CountSession, parLevels map[id.ID]types.Quantity, unitCosts map[id.ID]types.Money) *VarianceReport {
	actual := make(map[id.ID]types.Quantity)
	for i := range session.Areas {
		for j := range session.Areas[i].Items {
			item := &session.Areas[i].Items[j]
			actual[item.ProductID] += item.TotalQuantity
		}
	}

	productSet := make(map[id.ID]struct{}, len(actual))
	for productID := range actual {
		productSet[productID] = struct{}{}
	}
	for productID, par := range parLevels {
		if par > 0 {
			productSet[productID] = struct{}{}
		}
	}

	productIDs := make([]id.ID, 0, len(productSet))
	for productID := range productSet {
		productIDs = append(productIDs, productID)
	}
	sort.Slice(productIDs, func(i, j int) bool {
		return productIDs[i].String() < productIDs[j].String()
	})

	report := &VarianceReport{
		SessionID:          session.ID,
		Items:              make([]ItemVariance, 0, len(productIDs)),
		TotalExpectedValue: types.ZeroMoney(),
		TotalVarianceValue: types.ZeroMoney(),
		VariancePercent:    types.ZeroMoney(),
	}

	for _, productID := range productIDs {
		expected := parLevels[productID]
		if expected < 0 {
			expected = 0
		}
		actualQty := actual[productID]
		variance := actualQty - expected

		cost, hasCost := unitCosts[productID]
		if !hasCost {
			cost = types.ZeroMoney()
		}
		varianceValue := variance.Decimal().Mul(cost)

		report.Items = append(report.Items, ItemVariance{
			ProductID:     productID,
			ExpectedQty:   expected,
			ActualQty:     actualQty,
			Variance:      variance,
			UnitCost:      cost,
			VarianceValue: varianceValue,
		})

		if expected > 0 {
			report.TotalExpectedValue = report.TotalExpectedValue.Add(expected.Decimal().Mul(cost))
			report.TotalVarianceValue = report.TotalVarianceValue.Add(varianceValue.Abs())
		}
	}

	if report.TotalExpectedValue.IsPositive() {
		report.VariancePercent = report.TotalVarianceValue.
			Div(report.TotalExpectedValue).
			Mul(types.NewMoney(100))
	}

	return report
}

// CountedValue returns the cost-weighted value of everything counted in the
// session, used for the session's TotalValue figure.
func (r *VarianceReport) CountedValue() types.Money {
	total := types.ZeroMoney()
	for i := range r.Items {
		total = total.Add(r.Items[i].ActualQty.Decimal().Mul(r.Items[i].UnitCost))
	}
	return total
}
