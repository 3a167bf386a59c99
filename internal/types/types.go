package types

// IntentType classifies what the user is trying to do, as extracted from the
// model's reply.
type IntentType string

const (
	IntentBookAppointment IntentType = "BOOK_APPOINTMENT"
	IntentAskAvailability IntentType = "ASK_AVAILABILITY"
	IntentAskPrice        IntentType = "ASK_PRICE"
	IntentAskPromotion    IntentType = "ASK_PROMOTION"
	IntentSmallTalk       IntentType = "SMALL_TALK"
	IntentOther           IntentType = "OTHER"
)

// IntentResult is the structured intent the model appends to its free-text
// reply. All fields except Intent are optional and come from untrusted model
// output; absence must not be silently defaulted by consumers.
type IntentResult struct {
	Intent             IntentType `json:"intent"`
	ServiceName        string     `json:"service_name,omitempty"`
	DurationMinutes    int        `json:"duration_minutes,omitempty"`
	PreferredDate      string     `json:"preferred_date,omitempty"`
	PreferredTimeRange string     `json:"preferred_time_range,omitempty"`
	Branch             string     `json:"branch,omitempty"`
	Language           string     `json:"language,omitempty"`
}

// ClientTextInput is the inbound websocket message. business_id and
// session_id are bound to the connection, not repeated per message.
type ClientTextInput struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

const (
	MessageTypeTextInput  = "text_input"
	MessageTypeTextOutput = "text_output"
)

// Slot is one bookable (or not) time slot returned by the scheduling
// provider.
type Slot struct {
	Time     string `json:"time"`
	Bookable bool   `json:"bookable"`
}

// BookingConfirmation echoes a confirmed booking back to the client.
type BookingConfirmation struct {
	BookingID   string `json:"booking_id"`
	Time        string `json:"time"`
	ServiceName string `json:"service_name"`
}

// ServerTextOutput is the outbound websocket message. Every error reaching
// the client rides inside one of these; the transport is never failed to
// signal an application error.
type ServerTextOutput struct {
	Type                string               `json:"type"`
	Content             string               `json:"content"`
	Language            string               `json:"language"`
	IntentResult        *IntentResult        `json:"intent_result,omitempty"`
	Slots               []Slot               `json:"slots,omitempty"`
	BookingConfirmation *BookingConfirmation `json:"booking_confirmation,omitempty"`
	Error               string               `json:"error,omitempty"`
}

// Error tags carried in ServerTextOutput.Error.
const (
	ErrBusinessNotFound  = "BUSINESS_NOT_FOUND"
	ErrProcessing        = "PROCESSING_ERROR"
	ErrRateLimitExceeded = "rate_limit_exceeded"
)

// BusinessService is one bookable service offered by a business.
type BusinessService struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Promotion is a currently running promotion a business advertises.
type Promotion struct {
	Name    string `json:"name" yaml:"name"`
	Details string `json:"details" yaml:"details"`
}

// BusinessConfig is the static per-business configuration. It is loaded
// once, cached, and treated as an immutable value for the duration of a
// turn.
type BusinessConfig struct {
	BusinessID        string             `json:"business_id" yaml:"business_id"`
	Name              string             `json:"name" yaml:"name"`
	LanguageDefault   string             `json:"language_default" yaml:"language_default"`
	LanguageSupported []string           `json:"language_supported" yaml:"language_supported"`
	Location          string             `json:"location" yaml:"location"`
	Address           string             `json:"address" yaml:"address"`
	Phone             string             `json:"phone" yaml:"phone"`
	OpeningHours      string             `json:"opening_hours" yaml:"opening_hours"`
	BasePrice         map[string]float64 `json:"base_price" yaml:"base_price"`
	Services          []BusinessService  `json:"services" yaml:"services"`
	BookingLink       string             `json:"booking_link,omitempty" yaml:"booking_link"`
	Promotions        []Promotion        `json:"promotions,omitempty" yaml:"promotions"`
}
