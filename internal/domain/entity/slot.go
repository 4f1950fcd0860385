package entity

import (
	"fmt"
	"regexp"
)

// Working day boundaries for the bookable slot grid.
const (
	slotGridStartHour = 9
	slotGridEndHour   = 17
	slotStepMinutes   = 30
)

var timeLabelPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// WorkingHourSlots returns the fixed ordered grid of bookable time
// labels for any calendar day: 09:00 through 17:00 inclusive, in
// 30-minute steps.
func WorkingHourSlots() []string {
	var slots []string
	for h := slotGridStartHour; h <= slotGridEndHour; h++ {
		for m := 0; m < 60; m += slotStepMinutes {
			if h == slotGridEndHour && m > 0 {
				break
			}
			slots = append(slots, fmt.Sprintf("%02d:%02d", h, m))
		}
	}
	return slots
}

// IsValidTimeLabel reports whether s is a valid HH:MM time-of-day label.
func IsValidTimeLabel(s string) bool {
	return timeLabelPattern.MatchString(s)
}
