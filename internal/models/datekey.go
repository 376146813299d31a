package models

import "time"

// JST is Asia/Tokyo. Falls back to a fixed +09:00 zone when tzdata is missing;
// Japan has no DST so both are equivalent.
var JST = loadJST()

func loadJST() *time.Location {
	if loc, err := time.LoadLocation("Asia/Tokyo"); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*60*60)
}

const dateKeyLayout = "2006-01-02"

// DateKey buckets a timestamp into its JST calendar day.
func DateKey(t time.Time) string {
	return t.In(JST).Format(dateKeyLayout)
}

// MonthKey formats the JST calendar month, YYYY-MM.
func MonthKey(t time.Time) string {
	return t.In(JST).Format("2006-01")
}

// ParseDateKey parses YYYY-MM-DD as midnight JST.
func ParseDateKey(key string) (time.Time, error) {
	return time.ParseInLocation(dateKeyLayout, key, JST)
}

// LastNDateKeys returns the n JST date keys ending at now (inclusive), oldest first.
func LastNDateKeys(now time.Time, n int) []string {
	day := startOfDay(now)
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, day.AddDate(0, 0, -i).Format(dateKeyLayout))
	}
	return keys
}

// DateKeysBetween returns every JST date key in [from, to], both inclusive.
func DateKeysBetween(from, to time.Time) []string {
	var keys []string
	end := startOfDay(to)
	for d := startOfDay(from); !d.After(end); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(dateKeyLayout))
	}
	return keys
}

func startOfDay(t time.Time) time.Time {
	t = t.In(JST)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, JST)
}

// MonthRange returns the first and last JST day of the month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	t = t.In(JST)
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, JST)
	return first, first.AddDate(0, 1, -1)
}

// PreviousMonth returns the first JST day of the month before t.
func PreviousMonth(t time.Time) time.Time {
	first, _ := MonthRange(t)
	return first.AddDate(0, -1, 0)
}

// PreviousISOWeek returns Monday..Sunday (JST) of the week before the one containing t.
func PreviousISOWeek(t time.Time) (time.Time, time.Time) {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // days since Monday
	monday := day.AddDate(0, 0, -offset-7)
	return monday, monday.AddDate(0, 0, 6)
}
