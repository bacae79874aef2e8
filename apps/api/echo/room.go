package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nkashama/bweni/core/room"
	"github.com/nkashama/bweni/core/user"
)

var roomSortFields = map[string]string{
	"roomNumber": "room_number",
	"floor":      "floor",
	"createdAt":  "created_at",
}

type roomApi struct {
	svc      room.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerRoomAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc room.Service, usrSvc user.Service, validate *validator.Validate) {
	api := roomApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	rg := g.Group("/rooms", jwt)
	rg.GET("", api.query)
	rg.GET("/layout/:floor", api.layout)
	rg.GET("/:id", api.retrieve)

	// warden-only endpoints
	rg.POST("", api.create, adminMiddleware())
	rg.PUT("/:id", api.update, adminMiddleware())
	rg.DELETE("/:id", api.destroy, adminMiddleware())
	rg.POST("/:id/assign", api.assign, adminMiddleware())
	rg.POST("/:id/remove", api.remove, adminMiddleware())
}

// Handlers

func (api *roomApi) create(ctx echo.Context) error {
	var data room.NewRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRoom")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	rm, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating room")
	}
	return ctx.JSON(http.StatusCreated, rm)
}

func (api *roomApi) query(ctx echo.Context) error {
	filter := new(room.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []room.Room{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, roomSortFields)

	rooms, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying rooms")
	}
	if rooms == nil {
		rooms = []room.Room{}
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (api *roomApi) retrieve(ctx echo.Context) error {
	rm, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting room")
	}
	return ctx.JSON(http.StatusOK, rm)
}

func (api *roomApi) layout(ctx echo.Context) error {
	floor, err := strconv.Atoi(ctx.Param("floor"))
	if err != nil || floor < 0 {
		return errHttpNotFound
	}

	layout, err := api.svc.Layout(ctx.Request().Context(), floor)
	if err != nil {
		return errors.Wrap(err, "getting floor layout")
	}
	return ctx.JSON(http.StatusOK, layout)
}

func (api *roomApi) update(ctx echo.Context) error {
	rm, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting room")
	}

	var data room.UpdateRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRoom")
	}
	if err := data.Validate(rm, api.validate, api.svc); err != nil {
		return err
	}

	rm, err = api.svc.Update(ctx.Request().Context(), rm, data)
	if err != nil {
		return errors.Wrap(err, "updating room")
	}
	return ctx.JSON(http.StatusOK, rm)
}

func (api *roomApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting room")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *roomApi) assign(ctx echo.Context) error {
	var data room.AssignRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rm, err := api.svc.Assign(ctx.Request().Context(), ctx.Param("id"), data.StudentID)
	if err != nil {
		return errors.Wrap(err, "assigning student")
	}
	return ctx.JSON(http.StatusOK, rm)
}

func (api *roomApi) remove(ctx echo.Context) error {
	var data room.AssignRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rm, err := api.svc.Remove(ctx.Request().Context(), ctx.Param("id"), data.StudentID)
	if err != nil {
		return errors.Wrap(err, "removing student")
	}
	return ctx.JSON(http.StatusOK, rm)
}
