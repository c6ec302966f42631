package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/course"
)

const (
	courseTable = "course"
	classTable  = "class_session"
)

var (
	courseColumns = []string{"id", "slug", "title", "summary", "level", "price", "duration_hours", "is_published", "created_at", "updated_at"}
	classColumns  = []string{"id", "course_id", "instructor", "location", "starts_at", "ends_at", "seats", "created_at"}
)

type courseRow struct {
	ID            string          `db:"id"`
	Slug          string          `db:"slug"`
	Title         string          `db:"title"`
	Summary       string          `db:"summary"`
	Level         string          `db:"level"`
	Price         decimal.Decimal `db:"price"`
	DurationHours int             `db:"duration_hours"`
	IsPublished   bool            `db:"is_published"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:            r.ID,
		Slug:          r.Slug,
		Title:         r.Title,
		Summary:       r.Summary,
		Level:         course.Level(r.Level),
		Price:         r.Price,
		DurationHours: r.DurationHours,
		IsPublished:   r.IsPublished,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type classRow struct {
	ID         string    `db:"id"`
	CourseID   string    `db:"course_id"`
	Instructor string    `db:"instructor"`
	Location   string    `db:"location"`
	StartsAt   time.Time `db:"starts_at"`
	EndsAt     time.Time `db:"ends_at"`
	Seats      int       `db:"seats"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r classRow) toClass() course.ClassSession {
	return course.ClassSession{
		ID:         r.ID,
		CourseID:   r.CourseID,
		Instructor: r.Instructor,
		Location:   r.Location,
		StartsAt:   r.StartsAt.UTC(),
		EndsAt:     r.EndsAt.UTC(),
		Seats:      r.Seats,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	query := psql.Insert(courseTable).Columns(courseColumns...).Values(
		c.ID, c.Slug, c.Title, c.Summary, string(c.Level), c.Price, c.DurationHours, c.IsPublished, c.CreatedAt, c.UpdatedAt,
	)
	if err := exec(ctx, repo.db, query, nil); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) CourseSlugExists(ctx context.Context, slug string) (bool, error) {
	var found bool
	query := psql.Select("true").From(courseTable).Where(sq.Eq{"slug": slug})
	err := get(ctx, repo.db, &found, query, course.ErrNotFound)
	if err == course.ErrNotFound {
		return false, nil
	}
	return found, err
}

func (repo *courseRepository) getBy(ctx context.Context, where sq.Eq) (course.Course, error) {
	var row courseRow
	query := psql.Select(courseColumns...).From(courseTable).Where(where)
	if err := get(ctx, repo.db, &row, query, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if !validUUID(id) {
		return course.Course{}, course.ErrNotFound
	}
	return repo.getBy(ctx, sq.Eq{"id": id})
}

func (repo *courseRepository) GetCourseBySlug(ctx context.Context, slug string) (course.Course, error) {
	return repo.getBy(ctx, sq.Eq{"slug": slug})
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if !validUUID(c.ID) {
		return course.Course{}, course.ErrNotFound
	}
	query := psql.Update(courseTable).SetMap(map[string]interface{}{
		"title":          c.Title,
		"summary":        c.Summary,
		"level":          string(c.Level),
		"price":          c.Price,
		"duration_hours": c.DurationHours,
		"is_published":   c.IsPublished,
		"updated_at":     c.UpdatedAt,
	}).Where(sq.Eq{"id": c.ID})
	if err := exec(ctx, repo.db, query, course.ErrNotFound); err != nil {
		if err == course.ErrNotFound {
			return course.Course{}, err
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return repo.GetCourse(ctx, c.ID)
}

// DeleteCourse relies on ON DELETE CASCADE for the classes.
func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if !validUUID(id) {
		return course.ErrNotFound
	}
	err := exec(ctx, repo.db, psql.Delete(courseTable).Where(sq.Eq{"id": id}), course.ErrNotFound)
	if err != nil && err != course.ErrNotFound {
		return errors.Wrap(err, "deleting course")
	}
	return err
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	query := psql.Select(courseColumns...).From(courseTable).OrderBy(orderBy(ordering, "created_at DESC")...)
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where(sq.Or{sq.ILike{"title": pattern}, sq.ILike{"summary": pattern}})
	}
	if len(filter.Levels) > 0 {
		levels := make([]string, 0, len(filter.Levels))
		for _, l := range filter.Levels {
			levels = append(levels, string(l))
		}
		query = query.Where(sq.Eq{"level": levels})
	}
	if filter.Published != nil {
		query = query.Where(sq.Eq{"is_published": *filter.Published})
	}

	var rows []courseRow
	if err := selectAll(ctx, repo.db, &rows, query); err != nil {
		return nil, err
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) CreateClass(ctx context.Context, cls course.ClassSession) (course.ClassSession, error) {
	if _, err := repo.GetCourse(ctx, cls.CourseID); err != nil {
		return course.ClassSession{}, err
	}
	query := psql.Insert(classTable).Columns(classColumns...).Values(
		cls.ID, cls.CourseID, cls.Instructor, cls.Location, cls.StartsAt, cls.EndsAt, cls.Seats, cls.CreatedAt,
	)
	if err := exec(ctx, repo.db, query, nil); err != nil {
		return course.ClassSession{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo *courseRepository) DeleteClass(ctx context.Context, id string) error {
	if !validUUID(id) {
		return course.ErrClassNotFound
	}
	err := exec(ctx, repo.db, psql.Delete(classTable).Where(sq.Eq{"id": id}), course.ErrClassNotFound)
	if err != nil && err != course.ErrClassNotFound {
		return errors.Wrap(err, "deleting class")
	}
	return err
}

func (repo *courseRepository) QueryClasses(ctx context.Context, filter course.ClassFilter) ([]course.ClassSession, error) {
	query := psql.Select(classColumns...).From(classTable).OrderBy("starts_at ASC")
	if filter.CourseID != "" {
		if !validUUID(filter.CourseID) {
			return []course.ClassSession{}, nil
		}
		query = query.Where(sq.Eq{"course_id": filter.CourseID})
	}
	if !filter.From.IsZero() {
		query = query.Where(sq.GtOrEq{"starts_at": filter.From.UTC()})
	}
	if !filter.To.IsZero() {
		query = query.Where(sq.LtOrEq{"starts_at": filter.To.UTC()})
	}

	var rows []classRow
	if err := selectAll(ctx, repo.db, &rows, query); err != nil {
		return nil, err
	}
	classes := make([]course.ClassSession, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.toClass())
	}
	return classes, nil
}
