package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core/course"
)

type courseApi struct {
	svc      *course.Service
	validate *validator.Validate
}

// CourseDetail is a published course with its upcoming classes.
type CourseDetail struct {
	course.Course
	Classes []course.ClassSession `json:"classes"`
}

func registerCourseAPI(public, admin *echo.Group, svc *course.Service, validate *validator.Validate) {
	api := courseApi{svc: svc, validate: validate}

	public.GET("/courses", api.queryPublished)
	public.GET("/courses/:slug", api.retrievePublished)
	public.GET("/classes", api.upcomingClasses)

	admin.GET("/courses", api.query)
	admin.POST("/courses", api.create)
	admin.GET("/courses/:id", api.retrieve)
	admin.PUT("/courses/:id", api.update)
	admin.DELETE("/courses/:id", api.destroy)
	admin.GET("/courses/:id/classes", api.classes)
	admin.POST("/courses/:id/classes", api.scheduleClass)
	admin.DELETE("/classes/:id", api.destroyClass)
}

func (api *courseApi) queryPublished(ctx echo.Context) error {
	var filter course.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	courses, err := api.svc.QueryPublished(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying published courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrievePublished(ctx echo.Context) error {
	c, err := api.svc.GetPublishedBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "getting course by slug")
	}
	classes, err := api.svc.UpcomingClasses(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "getting upcoming classes")
	}
	return ctx.JSON(http.StatusOK, CourseDetail{Course: c, Classes: classes})
}

func (api *courseApi) upcomingClasses(ctx echo.Context) error {
	classes, err := api.svc.UpcomingClasses(ctx.Request().Context(), ctx.QueryParam("course"))
	if err != nil {
		return errors.Wrap(err, "getting upcoming classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *courseApi) query(ctx echo.Context) error {
	var filter course.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	courses, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) classes(ctx echo.Context) error {
	var filter course.ClassFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.ClassSession{})
	}
	filter.CourseID = ctx.Param("id")

	classes, err := api.svc.QueryClasses(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *courseApi) scheduleClass(ctx echo.Context) error {
	var data course.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.ScheduleClass(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "scheduling class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *courseApi) destroyClass(ctx echo.Context) error {
	if err := api.svc.DeleteClass(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}
