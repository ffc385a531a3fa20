package catalog

import (
	"errors"
	"fmt"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion resolves national numbers when no country prefix is
// given.
const DefaultPhoneRegion = "US"

// BookingRequest asks for an expert consultation about a plant.
type BookingRequest struct {
	PlantID int    `json:"plant_id" form:"plant_id"`
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Phone   string `json:"phone" form:"phone"`
}

func (b BookingRequest) Type() string { return "catalog.book_consultation" }

// Validate checks the request before it reaches the booking log. Phone is
// optional but must parse when given.
func (b BookingRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&b,
			validation.Field(&b.Name,
				validation.Required.Error("please provide your name"),
				validation.Length(1, 200),
			),
			validation.Field(&b.Email,
				validation.Required.Error("please provide your email"),
				is.Email,
			),
			validation.Field(&b.Phone, validation.By(validPhone)),
		)
	}, "invalid consultation request")
}

func validPhone(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}

// Booking is a confirmed consultation request.
type Booking struct {
	ID        string    `json:"id"`
	PlantID   int       `json:"plant_id"`
	PlantName string    `json:"plant_name"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Confirmation is the message shown to the customer.
func (b Booking) Confirmation() string {
	return fmt.Sprintf(
		"Consultation booked successfully for %s! An expert will contact you at %s.",
		b.PlantName, b.Email,
	)
}

// Bookings is the in-memory consultation log.
type Bookings struct {
	catalog *Catalog

	mu    sync.Mutex
	items []Booking
}

// NewBookings creates a booking log over the given catalog.
func NewBookings(c *Catalog) *Bookings {
	return &Bookings{catalog: c}
}

// Book validates the request and records the consultation.
func (b *Bookings) Book(req BookingRequest) (*Booking, error) {
	if verr := req.Validate(); verr != nil {
		return nil, verr
	}

	plant, err := b.catalog.Get(req.PlantID)
	if err != nil {
		return nil, err
	}

	if !plant.InStock() {
		return nil, goerrors.New(plant.Name+" is sold out", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	}

	booking := Booking{
		ID:        uuid.NewString(),
		PlantID:   plant.ID,
		PlantName: plant.Name,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}

	b.mu.Lock()
	b.items = append(b.items, booking)
	b.mu.Unlock()

	return &booking, nil
}

// List returns the recorded bookings, oldest first.
func (b *Bookings) List() []Booking {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Booking, len(b.items))
	copy(out, b.items)
	return out
}
