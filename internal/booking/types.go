package booking

import (
	"strings"

	"github.com/danpilch/railpal/internal/api/railway"
)

type Availability int

const (
	Unavailable Availability = iota
	Available
)

// SeatCell is one seat of a layout as reported by the API.
type SeatCell struct {
	TicketID     railway.ID
	SeatNumber   string // "<coach>-<number>"
	Availability Availability
}

// Coach is a labelled grid of seats in row-major order.
type Coach struct {
	Label string
	Rows  [][]SeatCell
}

// SeatLayout is the coaches of a trip in API order.
type SeatLayout []Coach

// Criteria are the user's seat preferences. Empty sets match anything.
type Criteria struct {
	Coaches     []string
	SeatNumbers []string
	Needed      int
}

// Candidate is a seat chosen for reservation.
type Candidate struct {
	TicketID   railway.ID
	SeatNumber string
	Coach      string
}

// SeatClass is the availability of one seat class on a train.
type SeatClass struct {
	Name        string
	TripID      railway.ID
	TripRouteID railway.ID
	Available   int
}

// Train is a search result with its per-class availability table. A nil
// table means the API sent none.
type Train struct {
	Label           string
	BoardingPointID railway.ID
	SeatClasses     []SeatClass
}

// Trip is the train and seat class selected for booking.
type Trip struct {
	TripID          railway.ID
	TripRouteID     railway.ID
	Label           string
	BoardingPointID railway.ID
	SeatClass       string
	Available       int
}

// Passenger is one traveller on the booking.
type Passenger struct {
	Name   string
	Type   string
	Gender string
}

// LayoutFromAPI converts the API seat grid, dropping empty cells.
func LayoutFromAPI(coaches []railway.Coach) SeatLayout {
	layout := make(SeatLayout, 0, len(coaches))
	for _, c := range coaches {
		coach := Coach{Label: strings.TrimSpace(c.FloorName)}
		for _, row := range c.Layout {
			cells := make([]SeatCell, 0, len(row))
			for _, seat := range row {
				if seat == nil {
					continue
				}
				cell := SeatCell{
					TicketID:     seat.TicketID,
					SeatNumber:   strings.TrimSpace(seat.SeatNumber),
					Availability: Unavailable,
				}
				if seat.SeatAvailability {
					cell.Availability = Available
				}
				cells = append(cells, cell)
			}
			coach.Rows = append(coach.Rows, cells)
		}
		layout = append(layout, coach)
	}
	return layout
}

// TrainsFromAPI converts search results.
func TrainsFromAPI(trains []railway.Train) []Train {
	out := make([]Train, 0, len(trains))
	for _, t := range trains {
		train := Train{Label: t.TripNumber}
		if train.Label == "" {
			train.Label = t.TrainModel
		}
		if len(t.BoardingPoints) > 0 {
			train.BoardingPointID = t.BoardingPoints[0].TripPointID
		}
		if t.SeatTypes != nil {
			train.SeatClasses = make([]SeatClass, 0, len(t.SeatTypes))
			for _, st := range t.SeatTypes {
				train.SeatClasses = append(train.SeatClasses, SeatClass{
					Name:        st.Type,
					TripID:      st.TripID,
					TripRouteID: st.TripRouteID,
					Available:   int(st.SeatCounts.Online),
				})
			}
		}
		out = append(out, train)
	}
	return out
}

// FilterTrains keeps the trains whose label exactly matches one of names,
// ignoring case and surrounding space. No names keeps every train.
func FilterTrains(trains []Train, names []string) []Train {
	if len(names) == 0 {
		return trains
	}
	want := normalizedSet(names)
	var out []Train
	for _, t := range trains {
		if _, ok := want[normalize(t.Label)]; ok {
			out = append(out, t)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalizedSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = normalize(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
