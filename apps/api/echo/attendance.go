package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nkashama/bweni/core/attendance"
	"github.com/nkashama/bweni/core/user"
)

var attendanceSortFields = map[string]string{
	"date": "date",
}

type attendanceApi struct {
	svc      attendance.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc attendance.Service, usrSvc user.Service, validate *validator.Validate) {
	api := attendanceApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	ag := g.Group("/attendance", jwt)
	ag.GET("", api.query)

	// warden-only endpoints
	ag.POST("/check-in", api.checkIn, adminMiddleware())
	ag.POST("/check-out", api.checkOut, adminMiddleware())
	ag.POST("/:id/alert", api.alertAbsence, adminMiddleware())
}

// Handlers

func (api *attendanceApi) checkIn(ctx echo.Context) error {
	var data attendance.CheckRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	rec, err := api.svc.CheckIn(ctx.Request().Context(), data.StudentID)
	if err != nil {
		return errors.Wrap(err, "checking student in")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) checkOut(ctx echo.Context) error {
	var data attendance.CheckRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	rec, err := api.svc.CheckOut(ctx.Request().Context(), data.StudentID)
	if err != nil {
		return errors.Wrap(err, "checking student out")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Record{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, attendanceSortFields)

	// students only see their own records
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		filter.StudentID = ctxUsr.ID
	}

	records, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) alertAbsence(ctx echo.Context) error {
	rec, err := api.svc.AlertAbsence(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "sending absence alert")
	}
	return ctx.JSON(http.StatusOK, rec)
}
