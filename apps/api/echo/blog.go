package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core/blog"
)

type blogApi struct {
	svc      *blog.Service
	validate *validator.Validate
}

func registerBlogAPI(public, admin *echo.Group, svc *blog.Service, validate *validator.Validate) {
	api := blogApi{svc: svc, validate: validate}

	public.GET("/posts", api.queryPublished)
	public.GET("/posts/:slug", api.retrievePublished)

	admin.GET("/posts", api.query)
	admin.POST("/posts", api.create)
	admin.GET("/posts/:id", api.retrieve)
	admin.PUT("/posts/:id", api.update)
	admin.DELETE("/posts/:id", api.destroy)
}

func (api *blogApi) queryPublished(ctx echo.Context) error {
	var filter blog.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []blog.Post{})
	}
	posts, err := api.svc.QueryPublished(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying published posts")
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *blogApi) retrievePublished(ctx echo.Context) error {
	p, err := api.svc.GetPublishedBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "getting post by slug")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *blogApi) query(ctx echo.Context) error {
	var filter blog.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []blog.Post{})
	}
	posts, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *blogApi) create(ctx echo.Context) error {
	var data blog.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *blogApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *blogApi) update(ctx echo.Context) error {
	var data blog.UpdatePost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *blogApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}
