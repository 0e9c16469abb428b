package booking

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"

	"github.com/danpilch/railpal/internal/api/railway"
)

func seat(id, number string, avail Availability) SeatCell {
	return SeatCell{TicketID: railway.NumberID(id), SeatNumber: number, Availability: avail}
}

func scenarioLayout() SeatLayout {
	return SeatLayout{
		{Label: "CHA", Rows: [][]SeatCell{{
			seat("1", "CHA-1", Unavailable),
			seat("2", "CHA-2", Available),
		}}},
		{Label: "JA", Rows: [][]SeatCell{{
			seat("5", "JA-5", Available),
		}}},
	}
}

func seatNumbersOf(c []Candidate) []string {
	if len(c) == 0 {
		return nil
	}
	return seatNumbers(c)
}

func TestMatchSeatsScenarios(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{name: "first available in scan order", criteria: Criteria{Needed: 1}, want: []string{"CHA-2"}},
		{name: "preferred coach", criteria: Criteria{Coaches: []string{"JA"}, Needed: 1}, want: []string{"JA-5"}},
		{name: "preferred coach ignores case", criteria: Criteria{Coaches: []string{" ja "}, Needed: 1}, want: []string{"JA-5"}},
		{name: "preferred seat unavailable", criteria: Criteria{SeatNumbers: []string{"1"}, Needed: 1}, want: nil},
		{name: "accumulates across coaches", criteria: Criteria{Needed: 2}, want: []string{"CHA-2", "JA-5"}},
		{name: "partial result on shortfall", criteria: Criteria{Needed: 5}, want: []string{"CHA-2", "JA-5"}},
		{name: "unknown coach", criteria: Criteria{Coaches: []string{"KA"}, Needed: 1}, want: nil},
		{name: "zero needed", criteria: Criteria{Needed: 0}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seatNumbersOf(MatchSeats(scenarioLayout(), tt.criteria))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMatchSeatsEmptyLayout(t *testing.T) {
	if got := MatchSeats(nil, Criteria{Needed: 3}); len(got) != 0 {
		t.Fatalf("expected no seats, got %v", got)
	}
}

func TestMatchSeatsCarriesTicketAndCoach(t *testing.T) {
	got := MatchSeats(scenarioLayout(), Criteria{Coaches: []string{"JA"}, Needed: 1})
	if len(got) != 1 {
		t.Fatalf("expected one seat, got %v", got)
	}
	if got[0].TicketID != railway.NumberID("5") || got[0].Coach != "JA" {
		t.Fatalf("unexpected candidate %+v", got[0])
	}
}

func TestMatchSeatsSeatNumberFormats(t *testing.T) {
	layout := SeatLayout{{Label: "KA", Rows: [][]SeatCell{{
		seat("1", "5", Available),
		seat("2", "KA-", Available),
		seat("3", "KA-05", Available),
		seat("4", "KA-5A", Available),
		seat("5", "", Available),
	}}}}

	tests := []struct {
		name    string
		numbers []string
		want    []string
	}{
		{name: "no preference accepts malformed", numbers: nil, want: []string{"5", "KA-", "KA-05", "KA-5A"}},
		{name: "missing separator never matches a preference", numbers: []string{"5"}, want: nil},
		{name: "leading zero is a distinct token", numbers: []string{"05"}, want: []string{"KA-05"}},
		{name: "alphanumeric suffix", numbers: []string{"5A"}, want: []string{"KA-5A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seatNumbersOf(MatchSeats(layout, Criteria{SeatNumbers: tt.numbers, Needed: 10}))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMatchSeatsStopsAtNeeded(t *testing.T) {
	layout := SeatLayout{{Label: "CHA", Rows: [][]SeatCell{
		{seat("1", "CHA-1", Available), seat("2", "CHA-2", Available)},
		{seat("3", "CHA-3", Available), seat("4", "CHA-4", Available)},
	}}}

	got := seatNumbersOf(MatchSeats(layout, Criteria{Needed: 3}))
	want := []string{"CHA-1", "CHA-2", "CHA-3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func randomLayout(r *rand.Rand) SeatLayout {
	labels := []string{"CHA", "CHHA", "JA", "JHA", "KA"}
	var layout SeatLayout
	id := 0
	for _, label := range labels[:1+r.IntN(len(labels))] {
		coach := Coach{Label: label}
		for row := 0; row < r.IntN(5); row++ {
			var cells []SeatCell
			for col := 0; col < r.IntN(5); col++ {
				id++
				avail := Unavailable
				if r.IntN(2) == 0 {
					avail = Available
				}
				cells = append(cells, seat(fmt.Sprint(id), fmt.Sprintf("%s-%d", label, 1+r.IntN(20)), avail))
			}
			coach.Rows = append(coach.Rows, cells)
		}
		layout = append(layout, coach)
	}
	return layout
}

func TestMatchSeatsProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 500; i++ {
		layout := randomLayout(r)
		criteria := Criteria{Needed: 1 + r.IntN(6)}
		if r.IntN(2) == 0 {
			criteria.Coaches = []string{"cha", "JA"}
		}
		if r.IntN(2) == 0 {
			criteria.SeatNumbers = []string{"1", "2", "3", "10"}
		}

		got := MatchSeats(layout, criteria)
		if len(got) > criteria.Needed {
			t.Fatalf("case %d: %d seats exceed needed %d", i, len(got), criteria.Needed)
		}

		available := map[railway.ID]bool{}
		for _, c := range layout {
			for _, row := range c.Rows {
				for _, s := range row {
					available[s.TicketID] = s.Availability == Available
				}
			}
		}
		for _, c := range got {
			if !available[c.TicketID] {
				t.Fatalf("case %d: returned unavailable seat %s", i, c.SeatNumber)
			}
			if criteria.Coaches != nil && c.Coach != "CHA" && c.Coach != "JA" {
				t.Fatalf("case %d: seat %s from unpreferred coach %s", i, c.SeatNumber, c.Coach)
			}
			if criteria.SeatNumbers != nil {
				suffix := c.SeatNumber[strings.LastIndex(c.SeatNumber, "-")+1:]
				if suffix != "1" && suffix != "2" && suffix != "3" && suffix != "10" {
					t.Fatalf("case %d: seat %s suffix not preferred", i, c.SeatNumber)
				}
			}
		}

		if again := MatchSeats(layout, criteria); !reflect.DeepEqual(got, again) {
			t.Fatalf("case %d: results differ between calls: %v vs %v", i, got, again)
		}
	}
}

func TestLayoutFromAPIDropsEmptyCells(t *testing.T) {
	coaches := []railway.Coach{{
		FloorName: " CHA ",
		Layout: []railway.Row{
			{{TicketID: railway.NumberID("1"), SeatNumber: "CHA-1", SeatAvailability: true}, nil},
			nil,
		},
	}}

	layout := LayoutFromAPI(coaches)
	if len(layout) != 1 || layout[0].Label != "CHA" {
		t.Fatalf("unexpected layout %+v", layout)
	}
	if len(layout[0].Rows) != 2 || len(layout[0].Rows[0]) != 1 || len(layout[0].Rows[1]) != 0 {
		t.Fatalf("unexpected rows %+v", layout[0].Rows)
	}
	if layout[0].Rows[0][0].Availability != Available {
		t.Fatal("expected available seat")
	}
}
