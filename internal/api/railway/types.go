package railway

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID is an opaque identifier issued by the booking API. The API mixes numeric
// and string identifiers, so ID remembers which form it arrived in and sends
// it back the same way.
type ID struct {
	value   string
	numeric bool
}

// NumberID returns an ID that encodes as a JSON number.
func NumberID(v string) ID { return ID{value: v, numeric: true} }

// StringID returns an ID that encodes as a JSON string.
func StringID(v string) ID { return ID{value: v} }

func (id ID) String() string { return id.value }

func (id ID) IsZero() bool { return id.value == "" }

func (id ID) MarshalJSON() ([]byte, error) {
	if id.value == "" {
		return []byte("null"), nil
	}
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*id = ID{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*id = NumberID(n.String())
	}
	return nil
}

// Flag is a loosely typed boolean: true, 1 and "1" are set, anything else is not.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", "1", `"1"`:
		*f = true
	default:
		*f = false
	}
	return nil
}

// Count is a seat count that may arrive as a number or a numeric string.
// Values that are not whole numbers in range decode as zero.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*c = 0
		return nil
	}
	*c = Count(n)
	return nil
}

// envelope is the common {"data": ...} wrapper of every API response.
type envelope[T any] struct {
	Data T `json:"data"`
}

// SignInRequest is the body of POST /auth/sign-in.
type SignInRequest struct {
	MobileNumber string `json:"mobile_number"`
	Password     string `json:"password"`
}

type signInData struct {
	Token string `json:"token"`
}

// SearchQuery holds the query parameters of GET /bookings/search-trips-v2.
type SearchQuery struct {
	FromCity      string
	ToCity        string
	DateOfJourney string
	SeatClass     string
}

type searchData struct {
	Trains []Train `json:"trains"`
}

// Train is a single search result.
type Train struct {
	TripNumber     string          `json:"trip_number"`
	TrainModel     string          `json:"train_model"`
	SeatTypes      SeatTypeList    `json:"seat_types"`
	BoardingPoints []BoardingPoint `json:"boarding_points"`
}

// SeatTypeList is the per-class availability table of a train. A table that
// is not a JSON array decodes as nil.
type SeatTypeList []SeatType

func (l *SeatTypeList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*l = nil
		return nil
	}
	var types []SeatType
	if err := json.Unmarshal(data, &types); err != nil {
		return err
	}
	*l = types
	return nil
}

// SeatType is the availability of one seat class on a train.
type SeatType struct {
	Type        string     `json:"type"`
	TripID      ID         `json:"trip_id"`
	TripRouteID ID         `json:"trip_route_id"`
	SeatCounts  SeatCounts `json:"seat_counts"`
}

type SeatCounts struct {
	Online  Count `json:"online"`
	Offline Count `json:"offline"`
}

type BoardingPoint struct {
	TripPointID  ID     `json:"trip_point_id"`
	LocationName string `json:"location_name"`
}

type seatLayoutData struct {
	SeatLayout []Coach `json:"seatLayout"`
}

// Coach is one coach (floor) of a seat layout.
type Coach struct {
	FloorName string `json:"floor_name"`
	Layout    []Row  `json:"layout"`
}

// Row is one row of seats. Rows that are not JSON arrays decode as empty and
// empty cells decode as nil.
type Row []*Seat

func (r *Row) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*r = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	row := make(Row, 0, len(raw))
	for _, cell := range raw {
		cell = bytes.TrimSpace(cell)
		if len(cell) == 0 || cell[0] != '{' {
			row = append(row, nil)
			continue
		}
		var seat Seat
		if err := json.Unmarshal(cell, &seat); err != nil {
			return err
		}
		row = append(row, &seat)
	}
	*r = row
	return nil
}

// Seat is a single cell of the layout grid.
type Seat struct {
	TicketID         ID     `json:"ticket_id"`
	SeatNumber       string `json:"seat_number"`
	SeatAvailability Flag   `json:"seat_availability"`
}

// SeatRequest is the body of the reserve-seat and release-seat calls.
type SeatRequest struct {
	TicketID ID `json:"ticket_id"`
	RouteID  ID `json:"route_id"`
}

type seatData struct {
	Error any `json:"error"`
}

// PassengerDetailsRequest triggers the OTP for the reserved tickets.
type PassengerDetailsRequest struct {
	TripID      ID   `json:"trip_id"`
	TripRouteID ID   `json:"trip_route_id"`
	TicketIDs   []ID `json:"ticket_ids"`
}

type passengerDetailsData struct {
	Success Flag   `json:"success"`
	Msg     string `json:"msg"`
}

// VerifyOTPRequest is the passenger-details payload plus the code the user entered.
type VerifyOTPRequest struct {
	PassengerDetailsRequest
	OTP string `json:"otp"`
}

// User is the account holder returned by a successful OTP verification.
type User struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

type verifyOTPData struct {
	Success Flag  `json:"success"`
	User    *User `json:"user"`
}

// ConfirmRequest is the body of PATCH /bookings/confirm. Per-passenger fields
// are parallel arrays indexed by passenger.
type ConfirmRequest struct {
	PassengerDetailsRequest
	OTP                       string    `json:"otp"`
	BoardingPointID           ID        `json:"boarding_point_id"`
	PassengerNames            []string  `json:"pname"`
	PassengerTypes            []string  `json:"passengerType"`
	Genders                   []string  `json:"gender"`
	Email                     string    `json:"pemail"`
	Mobile                    string    `json:"pmobile"`
	ContactPerson             int       `json:"contactperson"`
	EnableSMSAlert            int       `json:"enable_sms_alert"`
	SeatClass                 string    `json:"seat_class"`
	FromCity                  string    `json:"from_city"`
	ToCity                    string    `json:"to_city"`
	DateOfJourney             string    `json:"date_of_journey"`
	IsBkashOnline             bool      `json:"is_bkash_online"`
	SelectedMobileTransaction int       `json:"selected_mobile_transaction"`
	DateOfBirth               []*string `json:"date_of_birth"`
	FirstName                 []*string `json:"first_name"`
	LastName                  []*string `json:"last_name"`
	MiddleName                []*string `json:"middle_name"`
	Nationality               []*string `json:"nationality"`
	Page                      []string  `json:"page"`
	PPassport                 []string  `json:"ppassport"`
	PassportExpiryDate        []*string `json:"passport_expiry_date"`
	PassportNo                []*string `json:"passport_no"`
	PassportType              []*string `json:"passport_type"`
	VisaExpireDate            []*string `json:"visa_expire_date"`
	VisaIssueDate             []*string `json:"visa_issue_date"`
	VisaIssuePlace            []*string `json:"visa_issue_place"`
	VisaNo                    []*string `json:"visa_no"`
	VisaType                  []*string `json:"visa_type"`
}

type confirmData struct {
	RedirectURL string `json:"redirectUrl"`
}

// truthy reports whether a decoded JSON value would count as set.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
