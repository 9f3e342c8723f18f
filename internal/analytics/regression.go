package analytics

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"clientpulse/pkg/contracts/domain"
)

// minRegressionRows is the fewest joined rows a fit is attempted on.
const minRegressionRows = 2

var regressionFeatures = []string{
	domain.FeatureCampaignCost,
	domain.FeatureReach,
	domain.FeatureConversionRate,
}

// FitImpactModel regresses total spend on campaign cost, reach and
// conversion rate over transactions joined to their campaign. Transactions
// without a matching campaign are excluded and counted. The fit includes an
// intercept and uses the minimum-norm least squares solution, so collinear
// or constant features still give a deterministic answer.
func FitImpactModel(txs []domain.Transaction, campaigns []domain.Campaign) (domain.RegressionReport, error) {
	defs := indexCampaigns(campaigns)

	var xs [][]float64
	var ys []float64
	for _, tx := range txs {
		c, ok := defs[tx.CampaignName]
		if !ok {
			continue
		}
		xs = append(xs, []float64{c.Cost, c.Reach, c.ConversionRate})
		ys = append(ys, tx.TotalSpend)
	}

	report := domain.RegressionReport{
		RowsUsed:     len(xs),
		RowsExcluded: len(txs) - len(xs),
	}
	if len(xs) < minRegressionRows {
		return report, nil
	}

	n, d := len(xs), len(regressionFeatures)
	x := mat.NewDense(n, d, nil)
	for i, row := range xs {
		x.SetRow(i, row)
	}

	xMeans := make([]float64, d)
	for j := range xMeans {
		xMeans[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}
	yMean := stat.Mean(ys, nil)

	xc := mat.NewDense(n, d, nil)
	xc.Apply(func(_, j int, v float64) float64 { return v - xMeans[j] }, x)
	yc := mat.NewDense(n, 1, nil)
	for i, v := range ys {
		yc.Set(i, 0, v-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return report, fmt.Errorf("%w: least squares", ErrDecomposition)
	}

	coef := make([]float64, d)
	rcond := math.Nextafter(1, 2) - 1
	if rank := svd.Rank(rcond * float64(max(n, d))); rank > 0 {
		var beta mat.Dense
		svd.SolveTo(&beta, yc, rank)
		for j := range coef {
			coef[j] = beta.At(j, 0)
		}
	}

	intercept := yMean
	for j, b := range coef {
		intercept -= b * xMeans[j]
	}

	predictions := make([]float64, n)
	for i, row := range xs {
		predictions[i] = intercept
		for j, v := range row {
			predictions[i] += coef[j] * v
		}
	}

	report.Available = true
	report.Intercept = intercept
	report.RSquared = rSquared(predictions, ys)
	report.Coefficients = make([]domain.RegressionCoefficient, d)
	for j, name := range regressionFeatures {
		report.Coefficients[j] = domain.RegressionCoefficient{Feature: name, Coefficient: coef[j]}
	}
	slices.SortStableFunc(report.Coefficients, func(a, b domain.RegressionCoefficient) int {
		switch {
		case a.Coefficient > b.Coefficient:
			return -1
		case a.Coefficient < b.Coefficient:
			return 1
		default:
			return 0
		}
	})
	return report, nil
}

// rSquared is the coefficient of determination, defined as 0 when the
// target is constant.
func rSquared(predictions, ys []float64) float64 {
	if stat.PopVariance(ys, nil) == 0 {
		return 0
	}
	return finite(stat.RSquaredFrom(predictions, ys, nil))
}
