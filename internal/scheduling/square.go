package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"fortuneone-chat-backend/internal/types"
)

const squareVersion = "2024-01-18"

// SquareProvider implements Provider against the Square Bookings API. The
// booking operations still return placeholder data; the authorized client
// is real and VerifyLocation exercises it.
//
// TODO: replace the placeholder slot/booking data with
// POST /v2/bookings/availability/search and POST /v2/bookings.
type SquareProvider struct {
	httpClient *http.Client
	baseAPI    string
	locationID string
}

func NewSquareProvider(accessToken, locationID string) *SquareProvider {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := oauth2.NewClient(context.Background(), ts)
	client.Timeout = 20 * time.Second
	return &SquareProvider{
		httpClient: client,
		baseAPI:    "https://connect.squareup.com",
		locationID: locationID,
	}
}

func (p *SquareProvider) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseAPI+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Square-Version", squareVersion)
	req.Header.Set("Accept", "application/json")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("square api %s failed: %s", path, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// VerifyLocation checks that the configured credentials can read the
// configured location. Called once at startup; a failure is logged, not
// fatal.
func (p *SquareProvider) VerifyLocation(ctx context.Context) error {
	var out struct {
		Location struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"location"`
	}
	if err := p.getJSON(ctx, "/v2/locations/"+p.locationID, &out); err != nil {
		return err
	}
	log.Info().
		Str("component", "scheduling").
		Str("location_id", out.Location.ID).
		Str("location_name", out.Location.Name).
		Msg("square location verified")
	return nil
}

func (p *SquareProvider) CheckAvailability(ctx context.Context, intent *types.IntentResult, cfg *types.BusinessConfig) ([]types.Slot, error) {
	log.Info().
		Str("component", "scheduling").
		Str("service", intent.ServiceName).
		Str("date", intent.PreferredDate).
		Msg("checking availability")

	return []types.Slot{
		{Time: "10:00 AM", Bookable: true},
		{Time: "11:00 AM", Bookable: true},
		{Time: "2:00 PM", Bookable: true},
		{Time: "3:00 PM", Bookable: false},
		{Time: "4:00 PM", Bookable: true},
	}, nil
}

func (p *SquareProvider) BookAppointment(ctx context.Context, intent *types.IntentResult, cfg *types.BusinessConfig) (*types.BookingConfirmation, error) {
	log.Info().
		Str("component", "scheduling").
		Str("service", intent.ServiceName).
		Str("time_range", intent.PreferredTimeRange).
		Msg("booking appointment")

	bookingTime := intent.PreferredTimeRange
	if bookingTime == "" {
		bookingTime = "2:00 PM"
	}
	serviceName := intent.ServiceName
	if serviceName == "" {
		serviceName = "Thai Massage"
	}
	return &types.BookingConfirmation{
		BookingID:   "BK-" + uuid.NewString(),
		Time:        bookingTime,
		ServiceName: serviceName,
	}, nil
}
