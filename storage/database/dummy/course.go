package dummydb

import (
	"context"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/course"
)

type courseRepository struct {
	db *DB
	t  *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db, t: db.course}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if err := repo.db.wait(ctx); err != nil {
		return course.Course{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	row := c
	repo.t.table[c.ID] = &row
	return c, nil
}

func (repo *courseRepository) CourseSlugExists(ctx context.Context, slug string) (bool, error) {
	if err := repo.db.wait(ctx); err != nil {
		return false, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	for _, c := range repo.t.table {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if err := repo.db.wait(ctx); err != nil {
		return course.Course{}, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	if c, ok := repo.t.table[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) GetCourseBySlug(ctx context.Context, slug string) (course.Course, error) {
	if err := repo.db.wait(ctx); err != nil {
		return course.Course{}, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	for _, c := range repo.t.table {
		if c.Slug == slug {
			return *c, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if err := repo.db.wait(ctx); err != nil {
		return course.Course{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	orig, ok := repo.t.table[c.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	c.Slug = orig.Slug
	c.CreatedAt = orig.CreatedAt
	*orig = c
	return c, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	if _, ok := repo.t.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.t.table, id)
	for clsID, cls := range repo.t.classes {
		if cls.CourseID == id {
			delete(repo.t.classes, clsID)
		}
	}
	return nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.t.table {
		if filter.Match(*c) {
			courses = append(courses, *c)
		}
	}
	sortBy(courses, ordering, core.DBOrdering{Field: "created_at"}, func(i, j int, field string) int {
		a, b := courses[i], courses[j]
		switch field {
		case "title":
			return compareStrings(a.Title, b.Title)
		case "price":
			return compareDecimals(a.Price, b.Price)
		case "level":
			return compareStrings(string(a.Level), string(b.Level))
		case "duration_hours":
			return compareInts(a.DurationHours, b.DurationHours)
		case "created_at":
			return compareTimes(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			return compareTimes(a.UpdatedAt, b.UpdatedAt)
		}
		return 0
	})
	return courses, nil
}

func (repo *courseRepository) CreateClass(ctx context.Context, cls course.ClassSession) (course.ClassSession, error) {
	if err := repo.db.wait(ctx); err != nil {
		return course.ClassSession{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	if _, ok := repo.t.table[cls.CourseID]; !ok {
		return course.ClassSession{}, course.ErrNotFound
	}
	row := cls
	repo.t.classes[cls.ID] = &row
	return cls, nil
}

func (repo *courseRepository) DeleteClass(ctx context.Context, id string) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	if _, ok := repo.t.classes[id]; !ok {
		return course.ErrClassNotFound
	}
	delete(repo.t.classes, id)
	return nil
}

func (repo *courseRepository) QueryClasses(ctx context.Context, filter course.ClassFilter) ([]course.ClassSession, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	classes := make([]course.ClassSession, 0)
	for _, cls := range repo.t.classes {
		if filter.Match(*cls) {
			classes = append(classes, *cls)
		}
	}
	sortBy(classes, nil, core.DBOrdering{Field: "starts_at", Ascending: true}, func(i, j int, _ string) int {
		return compareTimes(classes[i].StartsAt, classes[j].StartsAt)
	})
	return classes, nil
}
