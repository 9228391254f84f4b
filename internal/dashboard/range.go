package dashboard

import (
	"strings"
	"time"

	"github.com/fekuna/stockinator-service/internal/apperror"
)

const (
	RangeToday  = "today"
	RangeWeek   = "week"
	RangeMonth  = "month"
	RangeYear   = "year"
	RangeCustom = "custom"
)

// Bucket sizes double as postgres date_trunc fields.
const (
	BucketHour  = "hour"
	BucketDay   = "day"
	BucketMonth = "month"
)

const (
	periodLayout   = "2006-01-02"
	periodSep      = ".."
	maxCustomDays  = 366
	maxDailyBucket = 31
)

// Window is a resolved dashboard range: [From, To) in the dashboard's
// location, with the bucket size of its time series.
type Window struct {
	Range  string
	Period string
	From   time.Time
	To     time.Time
	Bucket string
}

// ParseRange resolves a range name relative to now. Custom ranges take a
// period "YYYY-MM-DD..YYYY-MM-DD" with both days included.
func ParseRange(rng, period string, now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	tomorrow := today.AddDate(0, 0, 1)

	w := Window{Range: strings.ToLower(strings.TrimSpace(rng))}
	switch w.Range {
	case "", RangeToday:
		w.Range = RangeToday
		w.From, w.To, w.Bucket = today, tomorrow, BucketHour
	case RangeWeek:
		w.From, w.To, w.Bucket = today.AddDate(0, 0, -6), tomorrow, BucketDay
	case RangeMonth:
		w.From, w.To, w.Bucket = today.AddDate(0, 0, -29), tomorrow, BucketDay
	case RangeYear:
		thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		w.From, w.To, w.Bucket = thisMonth.AddDate(0, -11, 0), thisMonth.AddDate(0, 1, 0), BucketMonth
	case RangeCustom:
		from, to, err := parsePeriod(period, loc)
		if err != nil {
			return Window{}, err
		}
		w.Period = period
		w.From, w.To = from, to
		w.Bucket = BucketDay
		if days := int(to.Sub(from).Hours() / 24); days > maxDailyBucket {
			w.Bucket = BucketMonth
		}
	default:
		return Window{}, apperror.ErrInvalidRange
	}
	return w, nil
}

func parsePeriod(period string, loc *time.Location) (time.Time, time.Time, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(period), periodSep)
	if !ok {
		return time.Time{}, time.Time{}, apperror.ErrInvalidRange
	}
	from, err := time.ParseInLocation(periodLayout, start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperror.ErrInvalidRange.Wrap(err)
	}
	last, err := time.ParseInLocation(periodLayout, end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperror.ErrInvalidRange.Wrap(err)
	}
	if last.Before(from) {
		return time.Time{}, time.Time{}, apperror.ErrInvalidRange
	}
	to := last.AddDate(0, 0, 1)
	if to.Sub(from) > maxCustomDays*24*time.Hour {
		return time.Time{}, time.Time{}, apperror.ErrInvalidRange
	}
	return from, to, nil
}

// Key is the cache key of a window's result for a business.
func (w Window) Key(businessID string) string {
	key := KeyPrefix(businessID) + w.Range
	if w.Period != "" {
		key += ":" + w.Period
	}
	return key
}

// KeyPrefix matches every cached dashboard of a business.
func KeyPrefix(businessID string) string {
	return "dashboard:" + businessID + ":"
}

// Starts lists the start of every bucket in the window, oldest first.
func (w Window) Starts() []time.Time {
	var out []time.Time
	cur := w.From
	if w.Bucket == BucketMonth {
		cur = time.Date(cur.Year(), cur.Month(), 1, 0, 0, 0, 0, cur.Location())
	}
	for cur.Before(w.To) {
		out = append(out, cur)
		cur = w.step(cur)
	}
	return out
}

func (w Window) step(t time.Time) time.Time {
	switch w.Bucket {
	case BucketHour:
		return t.Add(time.Hour)
	case BucketMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}
