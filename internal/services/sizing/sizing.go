// Package sizing converts account risk into a position size.
package sizing

import (
	"fmt"
	"strings"

	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/services/normalizer"

	"github.com/shopspring/decimal"
)

// DefaultRiskPercent applies when the request leaves risk unset.
const DefaultRiskPercent = 1.0

// crossPipValue is the approximate USD value of one pip on a standard lot of a non-USD pair.
var crossPipValue = decimal.NewFromInt(10)

var hundred = decimal.NewFromInt(100)

// CalculatePositionSize sizes a trade. Invalid inputs set Error instead of failing.
func CalculatePositionSize(req models.PositionSizeRequest) models.PositionSizeResult {
	res := models.PositionSizeResult{Instrument: strings.ToUpper(req.Instrument)}

	var missing []string
	if req.AccountSize <= 0 {
		missing = append(missing, "account size")
	}
	if req.EntryPrice <= 0 {
		missing = append(missing, "entry price")
	}
	if req.StopLoss <= 0 {
		missing = append(missing, "stop loss")
	}
	if len(missing) > 0 {
		res.Error = "missing " + strings.Join(missing, ", ")
		res.Formula = "lots = (account × risk%) / (stop distance × value per unit)"
		return res
	}

	riskPct := req.RiskPercent
	if riskPct <= 0 {
		riskPct = DefaultRiskPercent
	}

	account := decimal.NewFromFloat(req.AccountSize)
	entry := decimal.NewFromFloat(req.EntryPrice)
	stop := decimal.NewFromFloat(req.StopLoss)

	risk := account.Mul(decimal.NewFromFloat(riskPct)).Div(hundred)
	distance := entry.Sub(stop).Abs()
	res.RiskAmount = risk.Round(2).InexactFloat64()
	res.StopDistance = distance.InexactFloat64()
	if distance.IsZero() {
		res.Error = "entry and stop loss are equal"
		res.Formula = "stop distance = |entry − stop| must be > 0"
		return res
	}

	if res.Instrument == "" {
		units := risk.Div(distance)
		res.PositionSize = units.Truncate(4).InexactFloat64()
		res.LotSize = res.PositionSize
		res.Unit = "units"
		res.Formula = fmt.Sprintf("units = %s / %s", risk.StringFixed(2), distance.String())
		return res
	}

	spec := normalizer.GetInstrumentSpecs(res.Instrument)
	pip := decimal.NewFromFloat(spec.PipSize)
	lot := decimal.NewFromFloat(spec.StandardLot)
	pips := distance.Div(pip)
	res.StopPips = pips.Round(1).InexactFloat64()

	switch spec.Type {
	case models.InstrumentForex:
		pipValue, note := forexPipValue(spec, pip, lot, entry)
		lots := risk.Div(pips.Mul(pipValue))
		res.PipValue = pipValue.Round(2).InexactFloat64()
		res.LotSize = lots.Round(2).InexactFloat64()
		res.PositionSize = lots.Round(2).Mul(lot).InexactFloat64()
		res.Unit = "lots"
		res.Formula = fmt.Sprintf("lots = %s / (%s pips × $%s per pip)%s",
			risk.StringFixed(2), pips.Round(1).String(), pipValue.StringFixed(2), note)

	case models.InstrumentPreciousMetal, models.InstrumentEnergy:
		lots := risk.Div(distance.Mul(lot))
		res.PipValue = pip.Mul(lot).Round(2).InexactFloat64()
		res.LotSize = lots.Round(2).InexactFloat64()
		res.PositionSize = lots.Round(2).Mul(lot).InexactFloat64()
		res.Unit = "lots"
		res.Formula = fmt.Sprintf("lots = %s / (%s × %s contract)",
			risk.StringFixed(2), distance.String(), lot.String())

	case models.InstrumentStock:
		shares := risk.Div(distance).Floor()
		res.PipValue = pip.InexactFloat64()
		res.PositionSize = shares.InexactFloat64()
		res.LotSize = res.PositionSize
		res.Unit = "shares"
		res.Formula = fmt.Sprintf("shares = floor(%s / %s)", risk.StringFixed(2), distance.String())

	default:
		units := risk.Div(distance)
		res.PipValue = pip.InexactFloat64()
		res.PositionSize = units.Truncate(4).InexactFloat64()
		res.LotSize = res.PositionSize
		res.Unit = "units"
		res.Formula = fmt.Sprintf("units = %s / %s", risk.StringFixed(2), distance.String())
	}
	return res
}

// forexPipValue returns the USD value of one pip on one standard lot.
func forexPipValue(spec models.InstrumentSpec, pip, lot, entry decimal.Decimal) (decimal.Decimal, string) {
	switch {
	case spec.Quote == "USD":
		return pip.Mul(lot), ""
	case spec.Base == "USD":
		return pip.Mul(lot).Div(entry), ""
	default:
		return crossPipValue, " (approx. $10/pip for cross pairs)"
	}
}

// Summary renders a result as one line.
func Summary(r models.PositionSizeResult) string {
	if !r.OK() {
		return "Position size unavailable: " + r.Error + "."
	}
	return fmt.Sprintf("Risk $%.2f over %s → %s %s (%s)",
		r.RiskAmount, decimal.NewFromFloat(r.StopDistance).String(),
		decimal.NewFromFloat(r.LotSize).String(), r.Unit, r.Formula)
}
