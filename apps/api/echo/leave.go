package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nkashama/bweni/core/leave"
	"github.com/nkashama/bweni/core/user"
)

var leaveSortFields = map[string]string{
	"createdAt": "created_at",
	"startDate": "start_date",
	"status":    "status",
}

type leaveApi struct {
	svc      leave.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerLeaveAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc leave.Service, usrSvc user.Service, validate *validator.Validate) {
	api := leaveApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	lg := g.Group("/leaves", jwt)
	lg.POST("", api.create)
	lg.GET("", api.query)
	lg.GET("/:id", api.retrieve)
	lg.DELETE("/:id", api.destroy)

	// decisions are warden-only; the parent's reply is recorded here too
	lg.PUT("/:id", api.update, adminMiddleware())
}

// Handlers

func (api *leaveApi) create(ctx echo.Context) error {
	var data leave.NewLeaveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLeaveRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	lr, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating leave request")
	}
	return ctx.JSON(http.StatusCreated, lr)
}

func (api *leaveApi) query(ctx echo.Context) error {
	filter := new(leave.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []leave.LeaveRequest{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, leaveSortFields)

	// students only see their own requests
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		filter.StudentID = ctxUsr.ID
	}

	requests, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying leave requests")
	}
	if requests == nil {
		requests = []leave.LeaveRequest{}
	}
	return ctx.JSON(http.StatusOK, requests)
}

func (api *leaveApi) retrieve(ctx echo.Context) error {
	lr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting leave request")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(ctxUsr.IsAdmin() || lr.IsOwnedBy(ctxUsr)) {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, lr)
}

func (api *leaveApi) update(ctx echo.Context) error {
	lr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting leave request")
	}

	var data leave.UpdateLeaveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLeaveRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	lr, err = api.svc.Update(ctx.Request().Context(), lr, data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "updating leave request")
	}
	return ctx.JSON(http.StatusOK, lr)
}

func (api *leaveApi) destroy(ctx echo.Context) error {
	lr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting leave request")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(ctxUsr.IsAdmin() || lr.IsOwnedBy(ctxUsr)) {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), lr.ID); err != nil {
		return errors.Wrap(err, "deleting leave request")
	}
	return ctx.NoContent(http.StatusNoContent)
}
