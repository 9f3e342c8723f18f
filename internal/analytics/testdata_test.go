package analytics

import (
	"fmt"

	"clientpulse/pkg/contracts/domain"
)

// scenarioTransactions is the three-customer, two-campaign example dataset.
func scenarioTransactions() []domain.Transaction {
	return []domain.Transaction{
		{CustomerID: "1", PurchaseFrequency: 20, TotalSpend: 6000, DaysSinceLastPurchase: 5, CampaignName: "A", PurchaseValue: 100},
		{CustomerID: "2", PurchaseFrequency: 1, TotalSpend: 200, DaysSinceLastPurchase: 300, CampaignName: "A", PurchaseValue: 50},
		{CustomerID: "3", PurchaseFrequency: 5, TotalSpend: 2000, DaysSinceLastPurchase: 60, CampaignName: "B", PurchaseValue: 75},
	}
}

func scenarioCampaigns() []domain.Campaign {
	return []domain.Campaign{
		{Name: "A", Cost: 1000, Reach: 500, ConversionRate: 0.1},
		{Name: "B", Cost: 500, Reach: 200, ConversionRate: 0.2},
	}
}

// groupedTransactions builds three well separated customer groups of size
// perGroup: loyal big spenders, lapsed low spenders and a middle band.
func groupedTransactions(perGroup int) []domain.Transaction {
	var txs []domain.Transaction
	id := 1
	add := func(freq, spend, days float64, campaign string) {
		txs = append(txs, domain.Transaction{
			CustomerID:            fmt.Sprint(id),
			PurchaseFrequency:     freq,
			TotalSpend:            spend,
			DaysSinceLastPurchase: days,
			CampaignName:          campaign,
			PurchaseValue:         spend / 10,
		})
		id++
	}
	for i := 0; i < perGroup; i++ {
		f := float64(i)
		add(20+f, 9000+100*f, 10+f, "Summer")
		add(2+f*0.1, 400+10*f, 320+f, "Winter")
		add(8+f*0.2, 2500+20*f, 120+f, "Spring")
	}
	return txs
}

func groupedCampaigns() []domain.Campaign {
	return []domain.Campaign{
		{Name: "Spring", Cost: 2000, Reach: 4000, ConversionRate: 0.05},
		{Name: "Summer", Cost: 5000, Reach: 9000, ConversionRate: 0.12},
		{Name: "Winter", Cost: 800, Reach: 1500, ConversionRate: 0.02},
	}
}
