package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/economics"
)

const dateLayout = "2006-01-02"

// maxProjectionDays bounds projections so the day count always fits an int.
const maxProjectionDays = 100 * 366

// StockoutDate projects the day a record runs out: today + ceil(days of supply),
// truncated to the calendar day in now's location. Nil when the record is not selling down
// or would last longer than a century.
func StockoutDate(rec domain.InventoryRecord, now time.Time) *time.Time {
	dos := economics.DaysOfSupply(rec)
	if dos.IsInfinite() || float64(dos) > maxProjectionDays {
		return nil
	}

	days := int(math.Ceil(float64(dos)))
	date := startOfDay(now).AddDate(0, 0, days)
	return &date
}

// Calendar groups live records by projected stockout day, limited to horizonDays from now.
// Days are ascending; SKUs within a day keep input order.
func Calendar(records []domain.InventoryRecord, now time.Time, horizonDays int) []domain.StockoutDay {
	limit := startOfDay(now).AddDate(0, 0, horizonDays)

	var (
		days  []domain.StockoutDay
		index = make(map[string]int)
	)
	for _, rec := range records {
		if rec.Deleted {
			continue
		}
		if dos := economics.DaysOfSupply(rec); float64(dos) > float64(horizonDays) {
			continue
		}
		date := StockoutDate(rec, now)
		if date == nil || date.After(limit) {
			continue
		}

		key := date.Format(dateLayout)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, domain.StockoutDay{Date: key})
		}
		days[i].SKUs = append(days[i].SKUs, rec.SKU)
	}

	// ISO dates sort lexically
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
