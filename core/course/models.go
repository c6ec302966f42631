package course

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/fotoescola/core"
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

type Course struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	Title         string          `json:"title"`
	Summary       string          `json:"summary"`
	Level         Level           `json:"level"`
	Price         decimal.Decimal `json:"price"`
	DurationHours int             `json:"duration_hours"`
	IsPublished   bool            `json:"is_published"`
	CreatedAt     time.Time       `json:"created_at"` // UTC
	UpdatedAt     time.Time       `json:"updated_at"` // UTC
}

// ClassSession is one scheduled class of a course.
type ClassSession struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"course_id"`
	Instructor string    `json:"instructor"`
	Location   string    `json:"location"`
	StartsAt   time.Time `json:"starts_at"` // UTC
	EndsAt     time.Time `json:"ends_at"`   // UTC
	Seats      int       `json:"seats"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

type NewCourse struct {
	Title         string          `json:"title" validate:"required,notblank,max=200"`
	Summary       string          `json:"summary" validate:"max=2000"`
	Level         Level           `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	Price         decimal.Decimal `json:"price"`
	DurationHours int             `json:"duration_hours" validate:"min=1"`
	IsPublished   bool            `json:"is_published"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Summary = core.CleanString(nc.Summary)
	nc.Level = Level(core.CleanString(string(nc.Level), true /* lower */))

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return validatePrice(nc.Price)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title         string           `json:"title" validate:"max=200"`
	Summary       *string          `json:"summary" validate:"omitempty,max=2000"`
	Level         Level            `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price         *decimal.Decimal `json:"price"`
	DurationHours *int             `json:"duration_hours" validate:"omitempty,min=1"`
	IsPublished   *bool            `json:"is_published"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Title = core.CleanString(uc.Title)
	uc.Level = Level(core.CleanString(string(uc.Level), true /* lower */))
	if uc.Summary != nil {
		s := core.CleanString(*uc.Summary)
		uc.Summary = &s
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.Price != nil {
		return validatePrice(*uc.Price)
	}
	return nil
}

// apply returns c updated with the set fields of uc.
func (uc UpdateCourse) apply(c Course) Course {
	if uc.Title != "" {
		c.Title = uc.Title
	}
	if uc.Summary != nil {
		c.Summary = *uc.Summary
	}
	if uc.Level != "" {
		c.Level = uc.Level
	}
	if uc.Price != nil {
		c.Price = uc.Price.Round(2)
	}
	if uc.DurationHours != nil {
		c.DurationHours = *uc.DurationHours
	}
	if uc.IsPublished != nil {
		c.IsPublished = *uc.IsPublished
	}
	return c
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "price", Error: errNegativePrice})
	}
	if price.GreaterThan(core.MaxMoney) {
		return core.NewValidationError(nil, core.FieldError{Field: "price", Error: errPriceTooLarge})
	}
	return nil
}

type NewClass struct {
	Instructor string    `json:"instructor" validate:"required,notblank,max=255"`
	Location   string    `json:"location" validate:"required,notblank,max=255"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	EndsAt     time.Time `json:"ends_at" validate:"required"`
	Seats      int       `json:"seats" validate:"min=1"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Instructor = core.CleanString(nc.Instructor)
	nc.Location = core.CleanString(nc.Location)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	if !nc.EndsAt.After(nc.StartsAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "ends_at", Error: errEndsBeforeStart})
	}
	return nil
}

type QueryFilter struct {
	Search    string  `query:"search"`
	Levels    []Level `query:"level"`
	Published *bool   `query:"published"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Match applies AND on the set fields of qf. Search matches Title or Summary.
func (qf QueryFilter) Match(c Course) bool {
	if qf.Search != "" && !core.ContainsFold(c.Title, qf.Search) && !core.ContainsFold(c.Summary, qf.Search) {
		return false
	}
	if len(qf.Levels) > 0 {
		var found bool
		for _, l := range qf.Levels {
			if c.Level == l {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if qf.Published != nil && c.IsPublished != *qf.Published {
		return false
	}
	return true
}

type ClassFilter struct {
	CourseID string         `query:"course"`
	From     core.QueryTime `query:"from"`
	To       core.QueryTime `query:"to"`
}

// Match keeps the classes of CourseID starting within [From, To].
func (cf ClassFilter) Match(cls ClassSession) bool {
	if cf.CourseID != "" && cls.CourseID != cf.CourseID {
		return false
	}
	if !cf.From.IsZero() && cls.StartsAt.Before(cf.From.UTC()) {
		return false
	}
	if !cf.To.IsZero() && cls.StartsAt.After(cf.To.UTC()) {
		return false
	}
	return true
}
