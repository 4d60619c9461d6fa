package ems

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Mode selects which fields a form must carry.
type Mode int

const (
	// ModeCreate validates every field, including username, password and role.
	ModeCreate Mode = iota
	// ModeEdit skips username and password, which are not re-entered on edit.
	ModeEdit
)

// PasswordSpecials is the set of characters that satisfies the special-character
// requirement of a password.
const PasswordSpecials = `!@#$%^&*(),.?":{}|<>`

var (
	usernamePattern = regexp.MustCompile(`^[0-9]{5}$`)
	phonePattern    = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Options are the server-supplied choices for enumerated fields.
// A nil list disables the membership check for that field.
type Options struct {
	Departments  []string
	Designations []string
}

// profileForm holds the fields required in both modes.
type profileForm struct {
	Name        string `json:"name" validate:"required"`
	Department  string `json:"department" validate:"required"`
	Designation string `json:"designation" validate:"required"`
	Email       string `json:"email" validate:"required,ems_email"`
	Phone       string `json:"phone" validate:"required,ems_phone"`
	StartDate   string `json:"sdate" validate:"required,ems_date,ems_not_future"`
}

// accountForm adds the creation-only fields.
type accountForm struct {
	Username string `json:"username" validate:"required,ems_username"`
	Password string `json:"password" validate:"required,ems_password"`
	Role     string `json:"role" validate:"required,oneof=Admin Employee"`
	profileForm
}

// Validator checks employee forms before they are submitted.
type Validator struct {
	validate *validator.Validate
	clock    Clock
}

// NewValidator builds a Validator. Dates are judged against clock.
func NewValidator(clock Clock) *Validator {
	if clock == nil {
		clock = RealClock{}
	}
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled()), clock: clock}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	register := map[string]validator.Func{
		"ems_username": func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		},
		"ems_password": func(fl validator.FieldLevel) bool {
			return len(passwordProblems(fl.Field().String())) == 0
		},
		"ems_phone": func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		},
		"ems_email": func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		},
		"ems_date": func(fl validator.FieldLevel) bool {
			_, err := Date(fl.Field().String()).Time(v.clock.Now().Location())
			return err == nil
		},
		"ems_not_future": func(fl validator.FieldLevel) bool {
			now := v.clock.Now()
			d, err := Date(fl.Field().String()).Time(now.Location())
			if err != nil {
				return true
			}
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			return !d.After(today)
		},
	}
	for tag, fn := range register {
		if err := v.validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("registering %s: %v", tag, err))
		}
	}
	return v
}

// Validate returns field -> message for every problem in e. An empty map
// means the form may be submitted.
func (v *Validator) Validate(e Employee, mode Mode, opts Options) map[string]string {
	profile := profileForm{
		Name:        e.Name,
		Department:  e.Department,
		Designation: e.Designation,
		Email:       e.Email,
		Phone:       string(e.Phone),
		StartDate:   string(e.StartDate),
	}

	var err error
	if mode == ModeCreate {
		err = v.validate.Struct(accountForm{
			Username:    e.Username,
			Password:    e.Password,
			Role:        string(e.Role),
			profileForm: profile,
		})
	} else {
		err = v.validate.Struct(profile)
	}

	problems := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			problems[fe.Field()] = message(fe)
		}
	} else if err != nil {
		problems["form"] = err.Error()
	}

	checkChoice(problems, ColumnDepartment, e.Department, opts.Departments)
	checkChoice(problems, ColumnDesignation, e.Designation, opts.Designations)
	return problems
}

func checkChoice(problems map[string]string, c Column, value string, choices []string) {
	if choices == nil || value == "" {
		return
	}
	if _, done := problems[string(c)]; done {
		return
	}
	if !slices.Contains(choices, value) {
		problems[string(c)] = fmt.Sprintf("%s must be one of: %s", c.Label(), strings.Join(choices, ", "))
	}
}

func message(fe validator.FieldError) string {
	label := Column(fe.Field()).Label()
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "ems_username":
		return "Username must be exactly 5 digits"
	case "ems_password":
		return "Password needs " + strings.Join(passwordProblems(fe.Value().(string)), ", ")
	case "ems_phone":
		return "Phone must be exactly 10 digits"
	case "ems_email":
		return "Email must look like name@domain.tld"
	case "ems_date":
		return "Start date must be a date in YYYY-MM-DD format"
	case "ems_not_future":
		return "Start date cannot be in the future"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(strings.Fields(fe.Param()), ", "))
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// passwordProblems lists the unmet strength requirements of p.
func passwordProblems(p string) []string {
	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}

	var missing []string
	if len([]rune(p)) < 8 {
		missing = append(missing, "at least 8 characters")
	}
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if !digit {
		missing = append(missing, "a digit")
	}
	if !special {
		missing = append(missing, "one of "+PasswordSpecials)
	}
	return missing
}
