// Package settings holds the typed, versioned site settings consumed by the
// order core. Unknown or missing fields fall back to named defaults and the
// result is validated before use.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the schema version written by Marshal.
const CurrentVersion = 1

// Named defaults, one per field.
var (
	DefaultEnableCash       = true
	DefaultMaxCashAmount    = decimal.NewFromInt(100)
	DefaultMaxCashItems     = 10
	DefaultEnableStripe     = true
	DefaultAutoArchiveHours = 48
	DefaultDeliveryBaseFee  = decimal.NewFromInt(5)
	DefaultDeliveryFeePerKm = decimal.NewFromInt(1)
	DefaultMaxDistanceKm    = 10.0
	DefaultOpenTime         = "08:00"
	DefaultCloseTime        = "17:00"
	DefaultTimezone         = "UTC"
)

var ErrUnsupportedVersion = errors.New("unsupported settings version")

type PaymentConfig struct {
	EnableCash    bool            `json:"enableCash"`
	MaxCashAmount decimal.Decimal `json:"maxCashAmount" validate:"gte=0"`
	MaxCashItems  int             `json:"maxCashItems" validate:"gte=0"`
	EnableStripe  bool            `json:"enableStripe"`
}

type ArchiveSettings struct {
	AutoArchiveHours int `json:"autoArchiveHours" validate:"min=1,max=8760"`
}

type DeliveryConfig struct {
	Enabled       bool            `json:"enabled"`
	BaseFee       decimal.Decimal `json:"baseFee" validate:"gte=0"`
	FeePerKm      decimal.Decimal `json:"feePerKm" validate:"gte=0"`
	MaxDistanceKm float64         `json:"maxDistanceKm" validate:"gt=0"`
	CafeLat       float64         `json:"cafeLat" validate:"gte=-90,lte=90"`
	CafeLng       float64         `json:"cafeLng" validate:"gte=-180,lte=180"`
}

type DayHours struct {
	IsOpen bool   `json:"isOpen"`
	Start  string `json:"start" validate:"omitempty,datetime=15:04"`
	End    string `json:"end" validate:"omitempty,datetime=15:04"`
}

type OpeningHours struct {
	Enabled   bool     `json:"enabled"`
	Monday    DayHours `json:"monday"`
	Tuesday   DayHours `json:"tuesday"`
	Wednesday DayHours `json:"wednesday"`
	Thursday  DayHours `json:"thursday"`
	Friday    DayHours `json:"friday"`
	Saturday  DayHours `json:"saturday"`
	Sunday    DayHours `json:"sunday"`
}

// Day returns the hours configured for the given weekday.
func (h OpeningHours) Day(d time.Weekday) DayHours {
	switch d {
	case time.Monday:
		return h.Monday
	case time.Tuesday:
		return h.Tuesday
	case time.Wednesday:
		return h.Wednesday
	case time.Thursday:
		return h.Thursday
	case time.Friday:
		return h.Friday
	case time.Saturday:
		return h.Saturday
	default:
		return h.Sunday
	}
}

// Schema is the whole settings document.
type Schema struct {
	Version      int             `json:"version" validate:"min=1"`
	Payment      PaymentConfig   `json:"paymentConfig"`
	Archive      ArchiveSettings `json:"archiveSettings"`
	Delivery     DeliveryConfig  `json:"deliveryConfig"`
	OpeningHours OpeningHours    `json:"openingHours"`
	Timezone     string          `json:"timezone" validate:"required"`
}

func defaultDay() DayHours {
	return DayHours{IsOpen: true, Start: DefaultOpenTime, End: DefaultCloseTime}
}

// Defaults returns a schema with every field at its named default.
func Defaults() Schema {
	return Schema{
		Version: CurrentVersion,
		Payment: PaymentConfig{
			EnableCash:    DefaultEnableCash,
			MaxCashAmount: DefaultMaxCashAmount,
			MaxCashItems:  DefaultMaxCashItems,
			EnableStripe:  DefaultEnableStripe,
		},
		Archive: ArchiveSettings{AutoArchiveHours: DefaultAutoArchiveHours},
		Delivery: DeliveryConfig{
			BaseFee:       DefaultDeliveryBaseFee,
			FeePerKm:      DefaultDeliveryFeePerKm,
			MaxDistanceKm: DefaultMaxDistanceKm,
		},
		OpeningHours: OpeningHours{
			Monday:    defaultDay(),
			Tuesday:   defaultDay(),
			Wednesday: defaultDay(),
			Thursday:  defaultDay(),
			Friday:    defaultDay(),
			Saturday:  defaultDay(),
			Sunday:    defaultDay(),
		},
		Timezone: DefaultTimezone,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// decimalはfloatとして数値タグを効かせる
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Parse decodes a stored settings document. Fields missing from data keep
// their defaults; documents without a version are treated as version 1.
func Parse(data []byte) (Schema, error) {
	s := Defaults()
	if len(strings.TrimSpace(string(data))) > 0 {
		s.Version = 0
		if err := json.Unmarshal(data, &s); err != nil {
			return Schema{}, fmt.Errorf("settings: decode: %w", err)
		}
		if s.Version == 0 {
			s.Version = CurrentVersion
		}
	}
	if s.Version > CurrentVersion {
		return Schema{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// ParseYAML reads the bootstrap settings file. It goes through the same JSON
// decoding path so both formats share defaults and validation.
func ParseYAML(data []byte) (Schema, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Schema{}, fmt.Errorf("settings: decode yaml: %w", err)
	}
	if raw == nil {
		return Parse(nil)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return Schema{}, fmt.Errorf("settings: re-encode yaml: %w", err)
	}
	return Parse(b)
}

// Marshal encodes the schema at the current version.
func (s Schema) Marshal() ([]byte, error) {
	s.Version = CurrentVersion
	return json.Marshal(s)
}

// Validate checks field ranges and that the timezone can be loaded.
func (s Schema) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("settings: invalid %s (%s)", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("settings: %w", err)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("settings: invalid timezone %q", s.Timezone)
	}
	return nil
}

// Location returns the restaurant's time zone, falling back to UTC.
func (s Schema) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
