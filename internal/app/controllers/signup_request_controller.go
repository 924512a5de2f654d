package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/models/dto"
	"github.com/yigit/uniportal/internal/app/services"
	"github.com/yigit/uniportal/internal/middleware"
	"github.com/yigit/uniportal/internal/pkg/helpers"
)

// SignupRequestController exposes the signup approval workflow over HTTP
type SignupRequestController struct {
	signupService *services.SignupRequestService
}

// NewSignupRequestController creates a new SignupRequestController
func NewSignupRequestController(signupService *services.SignupRequestService) *SignupRequestController {
	return &SignupRequestController{signupService: signupService}
}

// Submit handles the public signup form
// @Summary Submit a signup request
// @Tags requests
// @Accept json
// @Produce json
// @Param request body dto.SubmitSignupRequest true "Applicant details"
// @Success 201 {object} dto.APIResponse{data=dto.SignupRequestResponse} "Signup request submitted"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 409 {object} dto.ErrorResponse "A pending request already exists"
// @Router /requests [post]
func (c *SignupRequestController) Submit(ctx *gin.Context) {
	var req dto.SubmitSignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	created, err := c.signupService.Submit(ctx.Request.Context(), req.ToModel())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.FromSignupRequest(created)))
}

// List returns the requests visible to the caller
// @Summary List signup requests
// @Description Coordinators only see their own department.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or declined"
// @Param department query int false "Department ID"
// @Param notified query bool false "Whether the applicant has been notified"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=[]dto.SignupRequestResponse} "Signup requests"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 403 {object} dto.ErrorResponse "Department outside the caller's scope"
// @Router /requests [get]
func (c *SignupRequestController) List(ctx *gin.Context) {
	filter, ok := parseFilter(ctx)
	if !ok {
		return
	}

	items, total, err := c.signupService.List(ctx.Request.Context(), middleware.GetRole(ctx), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewPagedResponse(
		dto.FromSignupRequests(items),
		helpers.NewPaginationInfo(total, filter.Page, filter.Size),
	))
}

// Get returns a single request
// @Summary Get a signup request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Signup request ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.SignupRequestResponse} "Signup request"
// @Failure 403 {object} dto.ErrorResponse "Request belongs to another department"
// @Failure 404 {object} dto.ErrorResponse "Signup request not found"
// @Router /requests/{id} [get]
func (c *SignupRequestController) Get(ctx *gin.Context) {
	id, ok := parseRequestID(ctx)
	if !ok {
		return
	}

	req, err := c.signupService.Get(ctx.Request.Context(), middleware.GetRole(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FromSignupRequest(req)))
}

// Transition approves or declines a pending request. On approval the
// response carries the one-time credential.
// @Summary Resolve a signup request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Signup request ID" Format(uuid)
// @Param request body dto.TransitionRequest true "Target status and optional note"
// @Success 200 {object} dto.APIResponse{data=dto.TransitionResponse} "Signup request resolved"
// @Failure 400 {object} dto.ErrorResponse "Invalid status or note"
// @Failure 403 {object} dto.ErrorResponse "Request belongs to another department"
// @Failure 404 {object} dto.ErrorResponse "Signup request not found"
// @Failure 409 {object} dto.ErrorResponse "Signup request already resolved"
// @Failure 503 {object} dto.ErrorResponse "Store unavailable"
// @Router /requests/{id} [patch]
func (c *SignupRequestController) Transition(ctx *gin.Context) {
	id, ok := parseRequestID(ctx)
	if !ok {
		return
	}

	var body dto.TransitionRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err).WithField("status")))
		return
	}

	identity, _ := middleware.GetIdentity(ctx)
	result, err := c.signupService.Transition(
		ctx.Request.Context(),
		middleware.GetRole(ctx),
		identity.Subject,
		id,
		models.RequestStatus(body.Status),
		body.Note,
	)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if result.Credential != nil {
		ctx.Header("Cache-Control", "no-store")
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.TransitionResponse{
		Request:    dto.FromSignupRequest(result.Request),
		Credential: dto.FromCredential(result.Credential),
	}))
}

// ResendNotification mails the outcome of a resolved request again
// @Summary Resend the outcome mail
// @Description Approved requests get a fresh temporary password by mail. The password is never returned here.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Signup request ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.ResendResponse} "Notification sent"
// @Failure 403 {object} dto.ErrorResponse "Request belongs to another department"
// @Failure 404 {object} dto.ErrorResponse "Signup request not found"
// @Failure 409 {object} dto.ErrorResponse "Signup request is still pending"
// @Failure 503 {object} dto.ErrorResponse "Mail or store unavailable"
// @Router /requests/{id}/notifications [post]
func (c *SignupRequestController) ResendNotification(ctx *gin.Context) {
	id, ok := parseRequestID(ctx)
	if !ok {
		return
	}

	role := middleware.GetRole(ctx)
	identity, _ := middleware.GetIdentity(ctx)
	if err := c.signupService.ResendNotification(ctx.Request.Context(), role, identity.Subject, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.ResendResponse{RequestID: id, NotifiedAt: time.Now().UTC()}
	if req, err := c.signupService.Get(ctx.Request.Context(), role, id); err == nil {
		resp.Status = string(req.Status)
		if req.NotifiedAt != nil {
			resp.NotifiedAt = *req.NotifiedAt
		}
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

func parseRequestID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid signup request ID").
			WithField("id").
			WithDetails("Signup request ID must be a UUID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return uuid.Nil, false
	}
	return id, true
}

func parseFilter(ctx *gin.Context) (models.SignupRequestFilter, bool) {
	var filter models.SignupRequestFilter
	filter.Page, filter.Size = helpers.ParsePaginationParams(ctx)

	invalid := func(field, details string) (models.SignupRequestFilter, bool) {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid filter").
			WithField(field).
			WithDetails(details)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return filter, false
	}

	if v := strings.TrimSpace(ctx.Query("status")); v != "" {
		status := models.RequestStatus(strings.ToLower(v))
		if !status.IsValid() {
			return invalid("status", "status must be one of: pending approved declined")
		}
		filter.Status = &status
	}
	if v := strings.TrimSpace(ctx.Query("department")); v != "" {
		dept, err := strconv.ParseInt(v, 10, 64)
		if err != nil || dept <= 0 {
			return invalid("department", "department must be a positive number")
		}
		filter.DepartmentID = &dept
	}
	if v := strings.TrimSpace(ctx.Query("notified")); v != "" {
		notified, err := strconv.ParseBool(v)
		if err != nil {
			return invalid("notified", "notified must be true or false")
		}
		filter.Notified = &notified
	}

	return filter, true
}
