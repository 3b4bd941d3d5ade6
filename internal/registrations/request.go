package registrations

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/kingscode/bootcamp-api/internal/courses"
	"github.com/kingscode/bootcamp-api/internal/models"
)

// ErrMissingFields is returned when a required registration field is empty.
var ErrMissingFields = errors.New("missing required fields")

var emailPattern = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Bounds keep the QR payload well inside go-qrcode's capacity, so a stored record always gets its code.
const (
	maxNameLength  = 100
	maxEmailLength = 254
)

// ValidationError reports a field that is present but unacceptable.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RegisterRequest is the body for POST /api/register.
type RegisterRequest struct {
	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth"`
	Course      string `json:"course"`
	HasLaptop   *bool  `json:"hasLaptop"`
}

// Normalize trims every text field and lowercases the email.
func (req *RegisterRequest) Normalize() {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.MiddleName = strings.TrimSpace(req.MiddleName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DateOfBirth = strings.TrimSpace(req.DateOfBirth)
	req.Course = strings.TrimSpace(req.Course)
}

// Validate returns ErrMissingFields when a required field is empty or hasLaptop is null or absent,
// and a *ValidationError when a field does not satisfy its format.
func (req *RegisterRequest) Validate() error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.FirstName, validation.Required),
		validation.Field(&req.LastName, validation.Required),
		validation.Field(&req.Email, validation.Required),
		validation.Field(&req.DateOfBirth, validation.Required),
		validation.Field(&req.Course, validation.Required),
		validation.Field(&req.HasLaptop, validation.NotNil),
	)
	if err != nil {
		return ErrMissingFields
	}

	if err := validation.ValidateStruct(req,
		validation.Field(&req.FirstName, validation.RuneLength(0, maxNameLength)),
		validation.Field(&req.MiddleName, validation.RuneLength(0, maxNameLength)),
		validation.Field(&req.LastName, validation.RuneLength(0, maxNameLength)),
	); err != nil {
		return &ValidationError{Message: "Names must be at most 100 characters."}
	}
	if err := validation.Validate(req.Email,
		validation.Length(0, maxEmailLength).Error("Please fill a valid email address."),
		validation.Match(emailPattern).Error("Please fill a valid email address."),
	); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if !courses.Valid(req.Course) {
		return &ValidationError{Message: "Please select a valid course."}
	}
	if _, err := parseDate(req.DateOfBirth); err != nil {
		return &ValidationError{Message: "Please provide a valid date of birth."}
	}
	return nil
}

// Registration normalizes and validates the request and converts it into a new record.
func (req *RegisterRequest) Registration() (models.Registration, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return models.Registration{}, err
	}
	dob, _ := parseDate(req.DateOfBirth)
	return models.Registration{
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		Email:       req.Email,
		DateOfBirth: dob,
		Course:      req.Course,
		HasLaptop:   *req.HasLaptop,
		Status:      models.StatusConfirmed,
	}, nil
}

// FullName joins first, optional middle and last name with single spaces.
func FullName(first, middle, last string) string {
	return strings.Join(strings.Fields(first+" "+middle+" "+last), " ")
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
