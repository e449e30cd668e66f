package analytics

import "salesintel/pkg/contracts/domain"

// WeekOverWeek compares two order book snapshots by order id. New and
// unchanged orders come from current, closed orders from previous. Counts
// are order rows, so an id repeated in a snapshot counts once per row.
func WeekOverWeek(current, previous []domain.Order) domain.WeekOverWeek {
	currentIDs := idSet(current)
	previousIDs := idSet(previous)

	var w domain.WeekOverWeek
	for _, o := range current {
		if _, seen := previousIDs[o.OrderID]; seen {
			addOrder(&w.Unchanged, o)
		} else {
			addOrder(&w.New, o)
		}
	}
	for _, o := range previous {
		if _, open := currentIDs[o.OrderID]; !open {
			addOrder(&w.Closed, o)
		}
	}

	w.NetCount = w.New.Count - w.Closed.Count
	w.NetAmount = w.New.Total - w.Closed.Total
	return w
}

func addOrder(s *domain.OrderSet, o domain.Order) {
	s.Count++
	s.Total += o.AmountBase
	s.Orders = append(s.Orders, o)
}

func idSet(orders []domain.Order) map[string]struct{} {
	ids := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		ids[o.OrderID] = struct{}{}
	}
	return ids
}
