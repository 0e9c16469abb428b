package booking

import "strings"

const seatNumberSeparator = "-"

// MatchSeats scans the layout in order (coach, then row, then seat) and
// returns up to criteria.Needed available seats that satisfy the preferences.
// A short result is not an error here; the caller decides what a shortfall
// means.
func MatchSeats(layout SeatLayout, criteria Criteria) []Candidate {
	if criteria.Needed <= 0 || len(layout) == 0 {
		return nil
	}

	coaches := normalizedSet(criteria.Coaches)
	numbers := make(map[string]struct{}, len(criteria.SeatNumbers))
	for _, n := range criteria.SeatNumbers {
		if n = strings.TrimSpace(n); n != "" {
			numbers[n] = struct{}{}
		}
	}

	out := make([]Candidate, 0, criteria.Needed)
	for _, coach := range layout {
		if len(coaches) > 0 {
			if _, ok := coaches[normalize(coach.Label)]; !ok {
				continue
			}
		}
		for _, row := range coach.Rows {
			for _, seat := range row {
				if !seatMatches(seat, numbers) {
					continue
				}
				out = append(out, Candidate{
					TicketID:   seat.TicketID,
					SeatNumber: seat.SeatNumber,
					Coach:      coach.Label,
				})
				if len(out) == criteria.Needed {
					return out
				}
			}
		}
	}
	return out
}

func seatMatches(seat SeatCell, numbers map[string]struct{}) bool {
	if seat.Availability != Available || seat.SeatNumber == "" {
		return false
	}
	if len(numbers) == 0 {
		return true
	}
	suffix, ok := seatSuffix(seat.SeatNumber)
	if !ok {
		return false
	}
	_, ok = numbers[suffix]
	return ok
}

// seatSuffix returns the number part of "<coach>-<number>". It reports false
// when the separator is missing or nothing follows it.
func seatSuffix(seatNumber string) (string, bool) {
	i := strings.LastIndex(seatNumber, seatNumberSeparator)
	if i < 0 || i == len(seatNumber)-1 {
		return "", false
	}
	return seatNumber[i+len(seatNumberSeparator):], true
}
