package railway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL  = "https://railspaapi.shohoz.com/v1.0/web"
	DefaultDeviceID = "4004028937"
	DefaultReferer  = "https://eticket.railway.gov.bd/"
	DefaultTimeout  = 20 * time.Second

	pathSignIn           = "/auth/sign-in"
	pathSearchTrips      = "/bookings/search-trips-v2"
	pathSeatLayout       = "/bookings/seat-layout"
	pathReserveSeat      = "/bookings/reserve-seat"
	pathReleaseSeat      = "/bookings/release-seat"
	pathPassengerDetails = "/bookings/passenger-details"
	pathVerifyOTP        = "/bookings/verify-otp"
	pathConfirm          = "/bookings/confirm"

	maxBodyBytes = 4 << 20
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL  string
	DeviceID string
	Referer  string
	Timeout  time.Duration
}

// Client is a railway booking API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	deviceID   string
	referer    string
}

// NewClient creates a new booking API client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.DeviceID == "" {
		opts.DeviceID = DefaultDeviceID
	}
	if opts.Referer == "" {
		opts.Referer = DefaultReferer
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		deviceID:   opts.DeviceID,
		referer:    opts.Referer,
	}
}

// SignIn exchanges credentials for a bearer token.
func (c *Client) SignIn(ctx context.Context, mobile, password string) (string, error) {
	var out envelope[signInData]
	body := SignInRequest{MobileNumber: mobile, Password: password}
	raw, err := c.do(ctx, http.MethodPost, pathSignIn, "", nil, body, &out)
	if err != nil {
		return "", err
	}
	if out.Data.Token == "" {
		return "", c.missing(http.MethodPost, pathSignIn, raw, "token")
	}
	return out.Data.Token, nil
}

// SearchTrips lists the trains running on a route and date.
func (c *Client) SearchTrips(ctx context.Context, token string, q SearchQuery) ([]Train, error) {
	params := url.Values{}
	params.Set("from_city", q.FromCity)
	params.Set("to_city", q.ToCity)
	params.Set("date_of_journey", q.DateOfJourney)
	params.Set("seat_class", q.SeatClass)

	var out envelope[searchData]
	if _, err := c.do(ctx, http.MethodGet, pathSearchTrips, token, params, nil, &out); err != nil {
		return nil, err
	}
	return out.Data.Trains, nil
}

// SeatLayout retrieves the seat grid of a trip.
func (c *Client) SeatLayout(ctx context.Context, token string, tripID, tripRouteID ID) ([]Coach, error) {
	params := url.Values{}
	params.Set("trip_id", tripID.String())
	params.Set("trip_route_id", tripRouteID.String())

	var out envelope[seatLayoutData]
	if _, err := c.do(ctx, http.MethodGet, pathSeatLayout, token, params, nil, &out); err != nil {
		return nil, err
	}
	return out.Data.SeatLayout, nil
}

// ReserveSeat holds one ticket for the signed-in user.
func (c *Client) ReserveSeat(ctx context.Context, token string, ticketID, routeID ID) error {
	return c.patchSeat(ctx, pathReserveSeat, token, ticketID, routeID)
}

// ReleaseSeat gives back a ticket previously held by ReserveSeat.
func (c *Client) ReleaseSeat(ctx context.Context, token string, ticketID, routeID ID) error {
	return c.patchSeat(ctx, pathReleaseSeat, token, ticketID, routeID)
}

func (c *Client) patchSeat(ctx context.Context, path, token string, ticketID, routeID ID) error {
	var out envelope[seatData]
	body := SeatRequest{TicketID: ticketID, RouteID: routeID}
	raw, err := c.do(ctx, http.MethodPatch, path, token, nil, body, &out)
	if err != nil {
		return err
	}
	if truthy(out.Data.Error) {
		return &APIError{Method: http.MethodPatch, Path: path, StatusCode: http.StatusOK, Body: raw, Err: ErrRejected}
	}
	return nil
}

// PassengerDetails submits the reserved tickets, which makes the API send an
// OTP to the account's phone. It returns the server's message.
func (c *Client) PassengerDetails(ctx context.Context, token string, req PassengerDetailsRequest) (string, error) {
	var out envelope[passengerDetailsData]
	raw, err := c.do(ctx, http.MethodPost, pathPassengerDetails, token, nil, req, &out)
	if err != nil {
		return "", err
	}
	if !out.Data.Success {
		return "", &APIError{Method: http.MethodPost, Path: pathPassengerDetails, StatusCode: http.StatusOK, Body: raw, Err: ErrRejected}
	}
	return out.Data.Msg, nil
}

// VerifyOTP checks the code the user received and returns the account holder.
func (c *Client) VerifyOTP(ctx context.Context, token string, req VerifyOTPRequest) (*User, error) {
	var out envelope[verifyOTPData]
	raw, err := c.do(ctx, http.MethodPost, pathVerifyOTP, token, nil, req, &out)
	if err != nil {
		return nil, err
	}
	if !out.Data.Success {
		return nil, &APIError{Method: http.MethodPost, Path: pathVerifyOTP, StatusCode: http.StatusOK, Body: raw, Err: ErrRejected}
	}
	if out.Data.User == nil {
		return nil, c.missing(http.MethodPost, pathVerifyOTP, raw, "user")
	}
	return out.Data.User, nil
}

// Confirm finalises the booking and returns the payment redirect URL.
func (c *Client) Confirm(ctx context.Context, token string, req ConfirmRequest) (string, error) {
	var out envelope[confirmData]
	raw, err := c.do(ctx, http.MethodPatch, pathConfirm, token, nil, req, &out)
	if err != nil {
		return "", err
	}
	if out.Data.RedirectURL == "" {
		return "", c.missing(http.MethodPatch, pathConfirm, raw, "redirectUrl")
	}
	return out.Data.RedirectURL, nil
}

func (c *Client) missing(method, path string, body []byte, field string) error {
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: http.StatusOK,
		Body:       body,
		Err:        fmt.Errorf("%w: %s", ErrMissingData, field),
	}
}

// do executes a request and decodes a 2xx JSON body into out. The raw body is
// returned so callers can attach it to errors.
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body, out any) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       raw,
			Err:        fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode),
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, &APIError{
				Method:     method,
				Path:       path,
				StatusCode: resp.StatusCode,
				Body:       raw,
				Err:        fmt.Errorf("%w: %v", ErrMalformed, err),
			}
		}
	}

	return raw, nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Device-Id", c.deviceID)
	req.Header.Set("Referer", c.referer)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
