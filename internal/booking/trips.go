package booking

import (
	"fmt"
	"strings"
)

// SkippedTrain records why a train was passed over during selection.
type SkippedTrain struct {
	Label  string
	Reason string
}

// Selection is the outcome of SelectTrip. Trip is nil when no train qualifies.
type Selection struct {
	Trip    *Trip
	Skipped []SkippedTrain
}

// SelectTrip returns the first train, in the given order, offering at least
// needed seats of seatClass. It does not look for a better match later on.
func SelectTrip(trains []Train, seatClass string, needed int) Selection {
	var sel Selection
	for _, t := range trains {
		if t.SeatClasses == nil {
			sel.Skipped = append(sel.Skipped, SkippedTrain{Label: t.Label, Reason: "no seat class table"})
			continue
		}
		for _, sc := range t.SeatClasses {
			if !strings.EqualFold(strings.TrimSpace(sc.Name), strings.TrimSpace(seatClass)) {
				continue
			}
			if sc.Available >= needed {
				sel.Trip = &Trip{
					TripID:          sc.TripID,
					TripRouteID:     sc.TripRouteID,
					Label:           t.Label,
					BoardingPointID: t.BoardingPointID,
					SeatClass:       sc.Name,
					Available:       sc.Available,
				}
				return sel
			}
			sel.Skipped = append(sel.Skipped, SkippedTrain{
				Label:  t.Label,
				Reason: fmt.Sprintf("not enough seats (found %d, need %d)", sc.Available, needed),
			})
		}
	}
	return sel
}
