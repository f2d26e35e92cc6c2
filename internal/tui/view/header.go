package view

import (
	"strconv"
	"time"
)

// HeaderLabels builds column labels for the week starting at weekStart and
// marks today's column. days are the weekday names in display order.
func HeaderLabels(weekStart, today time.Time, days []string) ([]string, map[int]bool) {
	labels := make([]string, 0, len(days)+1)
	todayCols := make(map[int]bool)

	yearSuffix := weekStart.Year() % 100
	monthLabel := weekStart.Format("Jan") + " " + strconv.Itoa(yearSuffix/10) + strconv.Itoa(yearSuffix%10)
	labels = append(labels, monthLabel)

	for i, day := range days {
		dayDate := weekStart.AddDate(0, 0, i)
		label := shortDay(day) + " " + strconv.Itoa(dayDate.Day())
		if sameDay(dayDate, today) {
			label = "*" + label + "*"
			todayCols[i+1] = true
		}
		labels = append(labels, label)
	}

	return labels, todayCols
}

func shortDay(day string) string {
	if len(day) <= 3 {
		return day
	}
	return day[:3]
}

func sameDay(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}
