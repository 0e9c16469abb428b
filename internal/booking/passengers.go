package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/danpilch/railpal/internal/api/railway"
)

const (
	PassengerAdult = "Adult"
	PassengerChild = "Child"
	GenderMale     = "male"
	GenderFemale   = "female"
)

func askPassenger(ctx context.Context, p Prompter, n int) (Passenger, error) {
	name, err := p.Ask(ctx, fmt.Sprintf("  - Passenger %d Name: ", n))
	if err != nil {
		return Passenger{}, err
	}
	kind, err := p.Ask(ctx, fmt.Sprintf("  - Passenger %d Type (Adult/Child): ", n))
	if err != nil {
		return Passenger{}, err
	}
	gender, err := p.Ask(ctx, fmt.Sprintf("  - Passenger %d Gender (Male/Female): ", n))
	if err != nil {
		return Passenger{}, err
	}
	return Passenger{
		Name:   strings.TrimSpace(name),
		Type:   passengerType(kind),
		Gender: passengerGender(gender),
	}, nil
}

// passengerType defaults blank answers to Adult and canonicalises known values.
func passengerType(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "", strings.EqualFold(s, PassengerAdult):
		return PassengerAdult
	case strings.EqualFold(s, PassengerChild):
		return PassengerChild
	default:
		return s
	}
}

func passengerGender(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return GenderMale
	}
	return s
}

// confirmRequest builds the confirmation payload. Identity document fields
// are not collected and are sent as nulls or empty strings, one per passenger.
func (t *Transaction) confirmRequest() railway.ConfirmRequest {
	n := len(t.session.passengers)
	req := railway.ConfirmRequest{
		PassengerDetailsRequest:   t.passengerRequest(),
		OTP:                       t.session.otp,
		BoardingPointID:           t.session.trip.BoardingPointID,
		Email:                     t.session.user.Email,
		Mobile:                    t.session.user.Mobile,
		SeatClass:                 t.opts.SeatClass,
		FromCity:                  t.opts.FromCity,
		ToCity:                    t.opts.ToCity,
		DateOfJourney:             t.opts.DateOfJourney,
		IsBkashOnline:             true,
		SelectedMobileTransaction: 1,
		DateOfBirth:               nulls(n),
		FirstName:                 nulls(n),
		LastName:                  nulls(n),
		MiddleName:                nulls(n),
		Nationality:               nulls(n),
		Page:                      make([]string, n),
		PPassport:                 make([]string, n),
		PassportExpiryDate:        nulls(n),
		PassportNo:                nulls(n),
		PassportType:              nulls(n),
		VisaExpireDate:            nulls(n),
		VisaIssueDate:             nulls(n),
		VisaIssuePlace:            nulls(n),
		VisaNo:                    nulls(n),
		VisaType:                  nulls(n),
	}
	for _, p := range t.session.passengers {
		req.PassengerNames = append(req.PassengerNames, p.Name)
		req.PassengerTypes = append(req.PassengerTypes, p.Type)
		req.Genders = append(req.Genders, p.Gender)
	}
	return req
}

func nulls(n int) []*string {
	return make([]*string, n)
}
