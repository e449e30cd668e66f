package analytics

import (
	"sort"

	"salesintel/pkg/contracts/domain"
)

// ConcentrationTopN is the number of customers listed in a concentration
// summary.
const ConcentrationTopN = 5

// CustomerConcentration sums order amounts per customer and summarises how
// concentrated the order book is.
func CustomerConcentration(orders []domain.Order) domain.Concentration {
	totals := make(map[string]float64)
	for _, o := range orders {
		totals[o.CustomerName] += o.AmountBase
	}
	return ConcentrationOf(totals)
}

// ConcentrationOf summarises per-name totals: the top five shares, the
// combined share of the top three, the top share and the
// Herfindahl-Hirschman index on a 0-10000 scale. A zero grand total gives
// zero percentages.
func ConcentrationOf(totals map[string]float64) domain.Concentration {
	shares := sortedShares(totals)

	var grand float64
	for _, s := range shares {
		grand += s.Total
	}

	c := domain.Concentration{GrandTotal: grand, CustomerCount: len(shares)}
	for i := range shares {
		shares[i].Percent = percent(shares[i].Total, grand)
		c.HHI += shares[i].Percent * shares[i].Percent
	}

	for i, s := range shares {
		if i < 3 {
			c.Top3Percent += s.Percent
		}
		if i < ConcentrationTopN {
			c.Top = append(c.Top, s)
		}
	}
	if len(shares) > 0 {
		c.Top1Percent = shares[0].Percent
	}
	return c
}

func sortedShares(totals map[string]float64) []domain.Share {
	shares := make([]domain.Share, 0, len(totals))
	for name, total := range totals {
		shares = append(shares, domain.Share{Name: name, Total: total})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Total != shares[j].Total {
			return shares[i].Total > shares[j].Total
		}
		return shares[i].Name < shares[j].Name
	})
	return shares
}

// percent returns part as a percentage of total, or 0 when total is 0.
func percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}
