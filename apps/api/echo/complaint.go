package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nkashama/bweni/core/complaint"
	"github.com/nkashama/bweni/core/user"
)

var complaintSortFields = map[string]string{
	"createdAt": "created_at",
	"status":    "status",
	"type":      "type",
}

type complaintApi struct {
	svc      complaint.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerComplaintAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc complaint.Service, usrSvc user.Service, validate *validator.Validate) {
	api := complaintApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	cg := g.Group("/complaints", jwt)
	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
	cg.POST("/:id/vote", api.vote)
}

// Handlers

func (api *complaintApi) create(ctx echo.Context) error {
	var data complaint.NewComplaint
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComplaint")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	compl, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating complaint")
	}
	return ctx.JSON(http.StatusCreated, compl)
}

func (api *complaintApi) query(ctx echo.Context) error {
	filter := new(complaint.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []complaint.Complaint{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, complaintSortFields)

	complaints, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying complaints")
	}
	if complaints == nil {
		complaints = []complaint.Complaint{}
	}
	return ctx.JSON(http.StatusOK, complaints)
}

func (api *complaintApi) retrieve(ctx echo.Context) error {
	compl, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting complaint")
	}
	return ctx.JSON(http.StatusOK, compl)
}

func (api *complaintApi) update(ctx echo.Context) error {
	compl, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting complaint")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data complaint.UpdateComplaint
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateComplaint")
	}

	// students may only edit their own complaint
	if !(ctxUsr.IsAdmin() || compl.IsOwnedBy(ctxUsr)) {
		return errHttpForbidden
	}

	if err := data.Validate(compl, api.validate); err != nil {
		return err
	}

	compl, err = api.svc.Update(ctx.Request().Context(), compl, data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "updating complaint")
	}
	return ctx.JSON(http.StatusOK, compl)
}

func (api *complaintApi) destroy(ctx echo.Context) error {
	compl, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting complaint")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(ctxUsr.IsAdmin() || compl.IsOwnedBy(ctxUsr)) {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), compl.ID); err != nil {
		return errors.Wrap(err, "deleting complaint")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *complaintApi) vote(ctx echo.Context) error {
	var data complaint.VoteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VoteRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	compl, err := api.svc.Vote(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.VoteType)
	if err != nil {
		return errors.Wrap(err, "voting on complaint")
	}
	return ctx.JSON(http.StatusOK, compl)
}
