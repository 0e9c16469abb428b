package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/danpilch/railpal/internal/api/railway"
)

// MaxOTPAttempts bounds how many codes the user may enter.
const MaxOTPAttempts = 3

var otpPattern = regexp.MustCompile(`^\d{4,6}$`)

var errInvalidOTPFormat = errors.New("OTP must be 4 to 6 digits")

// Gateway is the remote booking API.
type Gateway interface {
	SignIn(ctx context.Context, mobile, password string) (string, error)
	SearchTrips(ctx context.Context, token string, q railway.SearchQuery) ([]railway.Train, error)
	SeatLayout(ctx context.Context, token string, tripID, tripRouteID railway.ID) ([]railway.Coach, error)
	ReserveSeat(ctx context.Context, token string, ticketID, routeID railway.ID) error
	ReleaseSeat(ctx context.Context, token string, ticketID, routeID railway.ID) error
	PassengerDetails(ctx context.Context, token string, req railway.PassengerDetailsRequest) (string, error)
	VerifyOTP(ctx context.Context, token string, req railway.VerifyOTPRequest) (*railway.User, error)
	Confirm(ctx context.Context, token string, req railway.ConfirmRequest) (string, error)
}

// Prompter is the interactive terminal.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
	Confirm(ctx context.Context, question string) (bool, error)
	Printf(format string, args ...any)
}

// Opener hands the payment URL to the user's browser.
type Opener interface {
	Open(url string) error
}

// Options is the fixed input of one booking run.
type Options struct {
	Mobile        string
	Password      string
	FromCity      string
	ToCity        string
	DateOfJourney string
	SeatClass     string
	Seats         int

	TrainNames           []string
	PreferredCoaches     []string
	PreferredSeatNumbers []string

	// SkipGoAhead starts without asking for the initial confirmation.
	SkipGoAhead bool
}

func (o Options) criteria() Criteria {
	return Criteria{Coaches: o.PreferredCoaches, SeatNumbers: o.PreferredSeatNumbers, Needed: o.Seats}
}

// session is the in-memory state accumulated by a run.
type session struct {
	token       string
	trip        *Trip
	seats       []Candidate
	otp         string
	user        *railway.User
	passengers  []Passenger
	redirectURL string
}

// Result summarises a run, successful or not.
type Result struct {
	State       State
	Trip        *Trip
	Seats       []Candidate
	Passengers  []Passenger
	RedirectURL string
	// Rollback holds the release outcomes when reserved seats were given back.
	Rollback RollbackReport
}

// Transaction drives a single booking from sign-in to payment hand-off and
// releases reserved seats if any later step fails.
type Transaction struct {
	gw     Gateway
	prompt Prompter
	opener Opener
	opts   Options
	logger logrus.FieldLogger

	state   State
	session session
	comp    *Compensator
}

func NewTransaction(gw Gateway, prompt Prompter, opener Opener, opts Options, logger logrus.FieldLogger) *Transaction {
	t := &Transaction{
		gw:     gw,
		prompt: prompt,
		opener: opener,
		opts:   opts,
		logger: logger,
		state:  StateNew,
	}
	t.comp = NewCompensator(t.release, logger)
	return t
}

// State returns the current state of the transaction.
func (t *Transaction) State() State {
	return t.state
}

// Run executes the booking. On failure the returned error is the one that
// aborted the run; seats reserved before it are released first and their
// outcomes are in Result.Rollback.
func (t *Transaction) Run(ctx context.Context) (*Result, error) {
	if t.state != StateNew {
		return nil, IllegalTransitionError{From: t.state, To: StateAuthenticated}
	}

	err := t.execute(ctx)
	res := &Result{
		Trip:        t.session.trip,
		Seats:       t.session.seats,
		Passengers:  t.session.passengers,
		RedirectURL: t.session.redirectURL,
	}
	if err != nil {
		res.Rollback = t.abort(ctx, err)
	}
	res.State = t.state
	return res, err
}

type step struct {
	to  State
	run func(context.Context) error
}

func (t *Transaction) execute(ctx context.Context) error {
	if err := t.goAhead(ctx); err != nil {
		return err
	}

	steps := []step{
		{StateAuthenticated, t.signIn},
		{StateTripSelected, t.selectTrip},
		{StateSeatsMatched, t.matchSeats},
		{StateSeatsReserved, t.reserveSeats},
		{StateOTPTriggered, t.triggerOTP},
		{StateOTPVerified, t.verifyOTP},
		{StateDetailsCollected, t.collectDetails},
		{StateConfirmed, t.confirm},
		{StatePaymentHandedOff, t.handOff},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return t.fail(KindCancelled, err, "interrupted")
		}
		if err := s.run(ctx); err != nil {
			return err
		}
		if err := t.advance(s.to); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transaction) advance(to State) error {
	if !canTransition(t.state, to) {
		return IllegalTransitionError{From: t.state, To: to}
	}
	t.logger.WithFields(logrus.Fields{"from": t.state, "to": to}).Debug("state transition")
	t.state = to
	return nil
}

// abort moves to StateAborted and releases whatever was reserved. Release
// requests run on a context that outlives cancellation of ctx.
func (t *Transaction) abort(ctx context.Context, cause error) RollbackReport {
	from := t.state
	t.state = StateAborted

	fields := logrus.Fields{"state": from, "error": cause}
	var bErr *Error
	if errors.As(cause, &bErr) {
		fields["kind"] = bErr.Kind
	}
	t.logger.WithFields(fields).Warn("booking aborted")

	if t.comp.Len() == 0 {
		return nil
	}
	t.logger.WithField("seats", t.comp.Len()).Warn("releasing reserved seats")
	return t.comp.Rollback(context.WithoutCancel(ctx))
}

func (t *Transaction) release(ctx context.Context, ticketID railway.ID) error {
	return t.gw.ReleaseSeat(ctx, t.session.token, ticketID, t.session.trip.TripRouteID)
}

func (t *Transaction) goAhead(ctx context.Context) error {
	if t.opts.SkipGoAhead {
		return nil
	}
	t.prompt.Printf("Booking %d x %s seat(s) %s -> %s on %s\n",
		t.opts.Seats, t.opts.SeatClass, t.opts.FromCity, t.opts.ToCity, t.opts.DateOfJourney)
	ok, err := t.prompt.Confirm(ctx, "Start booking? (yes/no): ")
	if err != nil {
		return t.promptFailed(ctx, err, "reading confirmation")
	}
	if !ok {
		return t.cancelled("booking not started")
	}
	return nil
}

func (t *Transaction) signIn(ctx context.Context) error {
	t.logger.Info("signing in")
	token, err := t.gw.SignIn(ctx, t.opts.Mobile, t.opts.Password)
	if err != nil {
		return t.fail(KindAuthentication, err, "sign-in failed")
	}
	if token == "" {
		return t.fail(KindAuthentication, nil, "sign-in failed (no token)")
	}
	t.session.token = token
	t.logger.Info("signed in")
	return nil
}

func (t *Transaction) selectTrip(ctx context.Context) error {
	t.logger.WithFields(logrus.Fields{
		"from": t.opts.FromCity,
		"to":   t.opts.ToCity,
		"date": t.opts.DateOfJourney,
	}).Info("searching trips")

	found, err := t.gw.SearchTrips(ctx, t.session.token, railway.SearchQuery{
		FromCity:      t.opts.FromCity,
		ToCity:        t.opts.ToCity,
		DateOfJourney: t.opts.DateOfJourney,
		SeatClass:     t.opts.SeatClass,
	})
	if err != nil {
		return t.fail(KindRemote, err, "search failed")
	}
	if len(found) == 0 {
		return t.fail(KindDiscovery, nil, "no trains found for this route")
	}

	trains := TrainsFromAPI(found)
	if len(t.opts.TrainNames) > 0 {
		trains = FilterTrains(trains, t.opts.TrainNames)
		if len(trains) == 0 {
			return t.fail(KindDiscovery, nil, "the specified train name(s) %q were not found (exact match required)",
				strings.Join(t.opts.TrainNames, ", "))
		}
	}

	sel := SelectTrip(trains, t.opts.SeatClass, t.opts.Seats)
	for _, s := range sel.Skipped {
		t.logger.WithFields(logrus.Fields{"train": s.Label, "reason": s.Reason}).Info("skipping train")
	}
	if sel.Trip == nil {
		return t.fail(KindDiscovery, nil, "no train found with at least %d available seats of class %q",
			t.opts.Seats, t.opts.SeatClass)
	}

	t.session.trip = sel.Trip
	t.logger.WithFields(logrus.Fields{
		"train":     sel.Trip.Label,
		"available": sel.Trip.Available,
	}).Info("selected trip")
	return nil
}

func (t *Transaction) matchSeats(ctx context.Context) error {
	criteria := t.opts.criteria()
	t.logger.WithFields(logrus.Fields{
		"needed":       criteria.Needed,
		"coaches":      criteria.Coaches,
		"seat_numbers": criteria.SeatNumbers,
	}).Info("fetching seat layout")

	coaches, err := t.gw.SeatLayout(ctx, t.session.token, t.session.trip.TripID, t.session.trip.TripRouteID)
	if err != nil {
		return t.fail(KindRemote, err, "seat-layout failed")
	}

	seats := MatchSeats(LayoutFromAPI(coaches), criteria)
	if len(seats) < criteria.Needed {
		return t.fail(KindShortfall, nil, "could not find enough seats matching your preferences: found %d, needed %d",
			len(seats), criteria.Needed)
	}

	t.session.seats = seats
	t.logger.WithField("seats", seatNumbers(seats)).Info("found seats")
	return nil
}

// reserveSeats reserves every matched seat concurrently and waits for all of
// them before recording the successes.
func (t *Transaction) reserveSeats(ctx context.Context) error {
	t.logger.WithField("count", len(t.session.seats)).Info("reserving seats")

	results := make([]error, len(t.session.seats))
	var g errgroup.Group
	for i, seat := range t.session.seats {
		g.Go(func() error {
			results[i] = t.gw.ReserveSeat(ctx, t.session.token, seat.TicketID, t.session.trip.TripRouteID)
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for i, err := range results {
		seat := t.session.seats[i]
		if err != nil {
			t.logger.WithFields(logrus.Fields{
				"ticket_id": seat.TicketID.String(),
				"seat":      seat.SeatNumber,
				"error":     err,
			}).Error("reserve-seat failed")
			failures = append(failures, fmt.Errorf("seat %s: %w", seat.SeatNumber, err))
			continue
		}
		t.comp.Record(seat.TicketID)
	}

	if reserved := t.comp.Len(); reserved < t.opts.Seats {
		return t.fail(KindShortfall, errors.Join(failures...), "reserved %d of %d seats", reserved, t.opts.Seats)
	}
	t.logger.WithField("count", t.comp.Len()).Info("reserved seats")
	return nil
}

func (t *Transaction) passengerRequest() railway.PassengerDetailsRequest {
	return railway.PassengerDetailsRequest{
		TripID:      t.session.trip.TripID,
		TripRouteID: t.session.trip.TripRouteID,
		TicketIDs:   t.comp.Reserved(),
	}
}

func (t *Transaction) triggerOTP(ctx context.Context) error {
	t.logger.Info("triggering OTP")
	msg, err := t.gw.PassengerDetails(ctx, t.session.token, t.passengerRequest())
	if err != nil {
		return t.fail(KindRemote, err, "passenger-details request failed")
	}
	t.logger.WithField("message", msg).Info("OTP sent")
	return nil
}

type otpOutcome int

const (
	otpVerified otpOutcome = iota
	otpRetry
	otpFatal
)

// verifyOTP moves from OTP_TRIGGERED to OTP_VERIFIED in at most
// MaxOTPAttempts attempts. A badly formatted or rejected code costs one
// attempt; any other failure aborts at once.
func (t *Transaction) verifyOTP(ctx context.Context) error {
	var last error
	for attempt := 1; attempt <= MaxOTPAttempts; attempt++ {
		outcome, err := t.attemptOTP(ctx, attempt)
		switch outcome {
		case otpVerified:
			return nil
		case otpFatal:
			return err
		}
		last = err
		left := MaxOTPAttempts - attempt
		t.logger.WithFields(logrus.Fields{"attempt": attempt, "left": left, "error": err}).Warn("OTP not accepted")
		if left > 0 {
			t.prompt.Printf("OTP not accepted (%v). %d attempt(s) left.\n", err, left)
		}
	}
	return t.fail(KindOTP, last, "OTP verification failed after %d attempts", MaxOTPAttempts)
}

func (t *Transaction) attemptOTP(ctx context.Context, attempt int) (otpOutcome, error) {
	code, err := t.prompt.Ask(ctx, "Please enter the OTP you received: ")
	if err != nil {
		return otpFatal, t.promptFailed(ctx, err, "reading OTP")
	}
	code = strings.TrimSpace(code)
	if !otpPattern.MatchString(code) {
		return otpRetry, errInvalidOTPFormat
	}

	t.logger.WithField("attempt", attempt).Info("verifying OTP")
	user, err := t.gw.VerifyOTP(ctx, t.session.token, railway.VerifyOTPRequest{
		PassengerDetailsRequest: t.passengerRequest(),
		OTP:                     code,
	})
	if err != nil {
		if railway.IsRejected(err) || railway.IsTimeout(err) {
			return otpRetry, err
		}
		return otpFatal, t.fail(KindRemote, err, "OTP verification request failed")
	}

	t.session.otp = code
	t.session.user = user
	t.logger.WithField("user", user.Name).Info("OTP verified")
	return otpVerified, nil
}

func (t *Transaction) collectDetails(ctx context.Context) error {
	passengers := []Passenger{{Name: t.session.user.Name, Type: PassengerAdult, Gender: GenderMale}}
	if extra := t.opts.Seats - 1; extra > 0 {
		t.prompt.Printf("Please enter details for the other %d passenger(s).\n", extra)
	}
	for i := 2; i <= t.opts.Seats; i++ {
		p, err := askPassenger(ctx, t.prompt, i)
		if err != nil {
			return t.promptFailed(ctx, err, "reading passenger %d", i)
		}
		passengers = append(passengers, p)
	}
	t.session.passengers = passengers
	return nil
}

func (t *Transaction) confirm(ctx context.Context) error {
	t.printReview()
	ok, err := t.prompt.Confirm(ctx, "Proceed to payment? (yes/no): ")
	if err != nil {
		return t.promptFailed(ctx, err, "reading confirmation")
	}
	if !ok {
		return t.cancelled("booking cancelled by user")
	}

	t.logger.Info("confirming booking")
	url, err := t.gw.Confirm(ctx, t.session.token, t.confirmRequest())
	if err != nil {
		if errors.Is(err, railway.ErrMissingData) {
			return t.fail(KindRemote, err, "could not get payment URL from confirmation response")
		}
		return t.fail(KindRemote, err, "confirm booking failed")
	}
	t.session.redirectURL = url
	t.logger.Info("booking confirmed")
	return nil
}

func (t *Transaction) handOff(_ context.Context) error {
	url := t.session.redirectURL
	t.logger.WithField("url", url).Info("opening payment link in browser")
	if err := t.opener.Open(url); err != nil {
		t.logger.WithFields(logrus.Fields{"url": url, "error": err}).Warn("could not open browser automatically")
	}
	t.prompt.Printf("Please complete payment in your browser: %s\n", url)
	return nil
}

func (t *Transaction) printReview() {
	trip := t.session.trip
	t.prompt.Printf("\n===== PLEASE REVIEW YOUR BOOKING DETAILS =====\n")
	t.prompt.Printf("Train:          %s\n", trip.Label)
	t.prompt.Printf("From:           %s\n", t.opts.FromCity)
	t.prompt.Printf("To:             %s\n", t.opts.ToCity)
	t.prompt.Printf("Date:           %s\n", t.opts.DateOfJourney)
	t.prompt.Printf("Class:          %s\n", t.opts.SeatClass)
	t.prompt.Printf("Total Seats:    %d\n", len(t.session.seats))
	t.prompt.Printf("Seat Numbers:   %s\n", strings.Join(seatNumbers(t.session.seats), ", "))
	t.prompt.Printf("\nPassengers:\n")
	for _, p := range t.session.passengers {
		t.prompt.Printf("  - %s (%s, %s)\n", p.Name, p.Type, p.Gender)
	}
}

func seatNumbers(seats []Candidate) []string {
	out := make([]string, len(seats))
	for i, s := range seats {
		out[i] = s.SeatNumber
	}
	return out
}
