package course

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core"
)

var (
	// errors
	ErrNotFound      = errors.New("curso não encontrado")
	ErrClassNotFound = errors.New("turma não encontrada")

	errNegativePrice   = "o preço não pode ser negativo"
	errPriceTooLarge   = "o preço deve ser no máximo " + core.FormatBRL(core.MaxMoney)
	errEndsBeforeStart = "o término deve ser posterior ao início"

	nowFunc = time.Now // mockable

	// OrderingFields are the fields courses can be ordered by.
	OrderingFields = []string{"title", "price", "level", "duration_hours", "created_at", "updated_at"}
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		CourseSlugExists(ctx context.Context, slug string) (bool, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		GetCourseBySlug(ctx context.Context, slug string) (Course, error)
		// UpdateCourse replaces every field of the stored course but ID, Slug and CreatedAt.
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		// DeleteCourse deletes the course and its classes.
		DeleteCourse(ctx context.Context, id string) error
		QueryCourses(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error)

		CreateClass(ctx context.Context, cls ClassSession) (ClassSession, error)
		DeleteClass(ctx context.Context, id string) error
		// QueryClasses returns matching classes ordered by StartsAt.
		QueryClasses(ctx context.Context, filter ClassFilter) ([]ClassSession, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a course with a unique slug made from its title.
func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	slug, err := core.UniqueSlug(core.Slugify(nc.Title), func(s string) (bool, error) {
		return svc.repo.CourseSlugExists(ctx, s)
	})
	if err != nil {
		return Course{}, pkgerrors.Wrap(err, "making slug")
	}

	now := nowFunc().UTC()
	c := Course{
		ID:            uuid.New().String(),
		Slug:          slug,
		Title:         nc.Title,
		Summary:       nc.Summary,
		Level:         nc.Level,
		Price:         nc.Price.Round(2),
		DurationHours: nc.DurationHours,
		IsPublished:   nc.IsPublished,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	c, err = svc.repo.CreateCourse(ctx, c)
	return c, pkgerrors.Wrap(err, "creating course")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Course, error) {
	return svc.repo.GetCourseBySlug(ctx, core.CleanString(slug, true /* lower */))
}

// GetPublishedBySlug hides unpublished courses behind ErrNotFound.
func (svc *Service) GetPublishedBySlug(ctx context.Context, slug string) (Course, error) {
	c, err := svc.GetBySlug(ctx, slug)
	if err != nil {
		return Course{}, err
	}
	if !c.IsPublished {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	filter.Clean()
	return svc.repo.QueryCourses(ctx, filter, core.FilterOrdering(ordering, OrderingFields...))
}

func (svc *Service) QueryPublished(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	published := true
	filter.Published = &published
	return svc.Query(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	c = uc.apply(c)
	c.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

// ScheduleClass adds a class to course courseID.
func (svc *Service) ScheduleClass(ctx context.Context, courseID string, nc NewClass) (ClassSession, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return ClassSession{}, err
	}
	cls := ClassSession{
		ID:         uuid.New().String(),
		CourseID:   courseID,
		Instructor: nc.Instructor,
		Location:   nc.Location,
		StartsAt:   nc.StartsAt.UTC(),
		EndsAt:     nc.EndsAt.UTC(),
		Seats:      nc.Seats,
		CreatedAt:  nowFunc().UTC(),
	}
	cls, err := svc.repo.CreateClass(ctx, cls)
	return cls, pkgerrors.Wrap(err, "creating class")
}

func (svc *Service) DeleteClass(ctx context.Context, id string) error {
	return svc.repo.DeleteClass(ctx, id)
}

func (svc *Service) QueryClasses(ctx context.Context, filter ClassFilter) ([]ClassSession, error) {
	return svc.repo.QueryClasses(ctx, filter)
}

// UpcomingClasses returns the classes of published courses that have not started yet.
func (svc *Service) UpcomingClasses(ctx context.Context, courseID string) ([]ClassSession, error) {
	classes, err := svc.repo.QueryClasses(ctx, ClassFilter{CourseID: courseID, From: core.NewQueryTime(nowFunc())})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying classes")
	}

	courses, err := svc.QueryPublished(ctx, QueryFilter{}, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying published courses")
	}
	published := make(map[string]struct{}, len(courses))
	for _, c := range courses {
		published[c.ID] = struct{}{}
	}

	upcoming := make([]ClassSession, 0, len(classes))
	for _, cls := range classes {
		if _, ok := published[cls.CourseID]; ok {
			upcoming = append(upcoming, cls)
		}
	}
	return upcoming, nil
}
