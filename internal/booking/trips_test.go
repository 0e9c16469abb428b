package booking

import (
	"testing"

	"github.com/danpilch/railpal/internal/api/railway"
)

func train(label string, classes ...SeatClass) Train {
	return Train{Label: label, BoardingPointID: railway.NumberID("9"), SeatClasses: classes}
}

func class(name, tripID string, available int) SeatClass {
	return SeatClass{Name: name, TripID: railway.NumberID(tripID), TripRouteID: railway.NumberID(tripID + "0"), Available: available}
}

func TestSelectTripFirstMatchWins(t *testing.T) {
	trains := []Train{
		train("A", class("SNIGDHA", "1", 50)),
		train("B", class("S_CHAIR", "2", 3)),
		train("C", class("S_CHAIR", "3", 40)),
	}

	sel := SelectTrip(trains, "s_chair", 2)
	if sel.Trip == nil {
		t.Fatal("expected a trip")
	}
	if sel.Trip.Label != "B" || sel.Trip.TripID != railway.NumberID("2") {
		t.Fatalf("expected train B, got %+v", sel.Trip)
	}
	if sel.Trip.TripRouteID != railway.NumberID("20") || sel.Trip.BoardingPointID != railway.NumberID("9") {
		t.Fatalf("unexpected ids %+v", sel.Trip)
	}
	if sel.Trip.SeatClass != "S_CHAIR" {
		t.Fatalf("expected class as reported by the API, got %q", sel.Trip.SeatClass)
	}
}

func TestSelectTripSkipsInsufficientAndMissingTables(t *testing.T) {
	trains := []Train{
		{Label: "NO TABLE"},
		train("SHORT", class("S_CHAIR", "1", 1)),
		train("OK", class("AC_S", "2", 9), class("S_CHAIR", "3", 4)),
	}

	sel := SelectTrip(trains, "S_CHAIR", 4)
	if sel.Trip == nil || sel.Trip.Label != "OK" {
		t.Fatalf("expected train OK, got %+v", sel.Trip)
	}
	if len(sel.Skipped) != 2 {
		t.Fatalf("expected 2 skipped trains, got %+v", sel.Skipped)
	}
	if sel.Skipped[0].Label != "NO TABLE" || sel.Skipped[1].Label != "SHORT" {
		t.Fatalf("unexpected skip order %+v", sel.Skipped)
	}
}

func TestSelectTripNotFound(t *testing.T) {
	trains := []Train{
		train("A", class("S_CHAIR", "1", 1)),
		train("B", class("AC_B", "2", 10)),
	}

	if sel := SelectTrip(trains, "S_CHAIR", 2); sel.Trip != nil {
		t.Fatalf("expected no trip, got %+v", sel.Trip)
	}
	if sel := SelectTrip(nil, "S_CHAIR", 1); sel.Trip != nil {
		t.Fatalf("expected no trip for empty input, got %+v", sel.Trip)
	}
}

func TestSelectTripNeverReturnsInsufficientCount(t *testing.T) {
	trains := []Train{
		train("A", class("S_CHAIR", "1", 0), class("S_CHAIR", "2", 2)),
		train("B", class("S_CHAIR", "3", 5)),
	}
	for needed := 1; needed <= 6; needed++ {
		sel := SelectTrip(trains, "S_CHAIR", needed)
		if sel.Trip != nil && sel.Trip.Available < needed {
			t.Fatalf("needed %d: got trip with %d seats", needed, sel.Trip.Available)
		}
	}
}

func TestTrainsFromAPI(t *testing.T) {
	in := []railway.Train{
		{
			TripNumber: "PADMA EXPRESS (759)",
			SeatTypes: railway.SeatTypeList{{
				Type: "S_CHAIR", TripID: railway.NumberID("1"), TripRouteID: railway.NumberID("2"),
				SeatCounts: railway.SeatCounts{Online: 7},
			}},
			BoardingPoints: []railway.BoardingPoint{{TripPointID: railway.NumberID("3")}, {TripPointID: railway.NumberID("4")}},
		},
		{TrainModel: "759"},
	}

	out := TrainsFromAPI(in)
	if out[0].Label != "PADMA EXPRESS (759)" || out[0].BoardingPointID != railway.NumberID("3") {
		t.Fatalf("unexpected train %+v", out[0])
	}
	if out[0].SeatClasses[0].Available != 7 {
		t.Fatalf("expected online count, got %+v", out[0].SeatClasses[0])
	}
	if out[1].Label != "759" || out[1].SeatClasses != nil {
		t.Fatalf("expected label from train model and no table, got %+v", out[1])
	}
}

func TestFilterTrainsExactMatch(t *testing.T) {
	trains := []Train{{Label: "PADMA EXPRESS (759)"}, {Label: "SILK CITY EXPRESS (753)"}, {Label: "PADMA"}}

	got := FilterTrains(trains, []string{" padma express (759) ", "DHUMKETU"})
	if len(got) != 1 || got[0].Label != "PADMA EXPRESS (759)" {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if got := FilterTrains(trains, nil); len(got) != 3 {
		t.Fatalf("expected no filtering without names, got %+v", got)
	}
}
