package pricing

import "math"

const secondsPerDay = 86400

// Profit is the market outcome of enhancing one item and selling it.
type Profit struct {
	SellPrice            float64 `json:"sell_price"`
	MarketFee            float64 `json:"market_fee"`
	TotalCost            float64 `json:"total_cost"`
	Profit               float64 `json:"profit"` // before fee
	ProfitAfterFee       float64 `json:"profit_after_fee"`
	ROI                  float64 `json:"roi"` // percent of total cost
	ROIAfterFee          float64 `json:"roi_after_fee"`
	Days                 float64 `json:"days"`
	ProfitPerDay         float64 `json:"profit_per_day"`
	ProfitPerDayAfterFee float64 `json:"profit_per_day_after_fee"`
	XPPerDay             float64 `json:"xp_per_day"`
}

// applyFee computes the market fee and the seller's net on a sale.
func applyFee(sell, feeRate float64) (fee float64, net float64) {
	if feeRate <= 0 {
		return 0, sell
	}
	fee = sell * feeRate
	return fee, sell - fee
}

// ComputeProfit turns a plan's cost, duration and XP into profit figures.
// Per-day rates are 0 when seconds is not positive.
func ComputeProfit(sellPrice, totalCost, seconds, xp, feeRate float64) Profit {
	fee, net := applyFee(sellPrice, feeRate)
	p := Profit{
		SellPrice: sellPrice,
		MarketFee: fee,
		TotalCost: totalCost,
		Profit:    sellPrice - totalCost,
	}
	p.ProfitAfterFee = net - totalCost
	if totalCost > 0 {
		p.ROI = p.Profit / totalCost * 100
		p.ROIAfterFee = p.ProfitAfterFee / totalCost * 100
	}
	if seconds > 0 && !math.IsInf(seconds, 0) {
		p.Days = seconds / secondsPerDay
		p.ProfitPerDay = p.Profit / p.Days
		p.ProfitPerDayAfterFee = p.ProfitAfterFee / p.Days
		p.XPPerDay = xp / p.Days
	}
	return p
}
