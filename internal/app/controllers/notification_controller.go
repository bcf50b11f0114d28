package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/auth"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/middleware"
)

// NotificationController handles seat subscriptions and the alert inbox
type NotificationController struct {
	notificationService *services.NotificationService
	authzService        *auth.AuthorizationService
	logger              zerolog.Logger
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService *services.NotificationService, authzService *auth.AuthorizationService, logger zerolog.Logger) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		authzService:        authzService,
		logger:              logger,
	}
}

// Subscribe registers the caller for a seat-available alert
// @Summary Subscribe to seat availability
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubscribeRequest true "Course to watch"
// @Success 201 {object} dto.APIResponse{data=dto.NotificationResponse} "Subscribed"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 409 {object} dto.ErrorResponse "Already subscribed"
// @Router /notifications/subscribe [post]
func (c *NotificationController) Subscribe(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.SubscribeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	marker, err := c.notificationService.Subscribe(ctx.Request.Context(), userID, req.CourseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.NewNotificationResponse(marker), "Subscribed to seat notifications"))
}

// Unsubscribe removes the caller's active subscription. The course comes from
// the courseId query parameter or the JSON body.
// @Summary Unsubscribe from seat availability
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId query int false "Course ID"
// @Param request body dto.SubscribeRequest false "Course to stop watching"
// @Success 200 {object} dto.APIResponse "Unsubscribed"
// @Failure 404 {object} dto.ErrorResponse "No active subscription"
// @Router /notifications/subscribe [delete]
func (c *NotificationController) Unsubscribe(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var courseID int64
	if raw := strings.TrimSpace(ctx.Query("courseId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid course ID").
				WithField("courseId").
				WithDetails("courseId must be a valid number")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		courseID = id
	} else {
		var req dto.SubscribeRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(ctx, err)
			return
		}
		courseID = req.CourseID
	}

	if err := c.notificationService.Unsubscribe(ctx.Request.Context(), userID, courseID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Unsubscribed from seat notifications"))
}

// List returns the student's alerts, newest first
// @Summary List alerts
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.NotificationResponse} "Alerts retrieved"
// @Failure 403 {object} dto.ErrorResponse "Another student's alerts"
// @Router /notifications/{id} [get]
func (c *NotificationController) List(ctx *gin.Context) {
	studentID, ok := c.ownStudentID(ctx)
	if !ok {
		return
	}

	alerts, err := c.notificationService.ListForStudent(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewNotificationDetailResponses(alerts), ""))
}

// UnreadCount returns the number of unread alerts
// @Summary Unread alert count
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.UnreadCountResponse} "Count retrieved"
// @Failure 403 {object} dto.ErrorResponse "Another student's alerts"
// @Router /notifications/{id}/unread-count [get]
func (c *NotificationController) UnreadCount(ctx *gin.Context) {
	studentID, ok := c.ownStudentID(ctx)
	if !ok {
		return
	}

	count, err := c.notificationService.UnreadCount(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.UnreadCountResponse{Count: count}, ""))
}

// MarkAsRead marks one of the caller's alerts as read
// @Summary Mark alert as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse{data=dto.NotificationResponse} "Alert marked as read"
// @Failure 403 {object} dto.ErrorResponse "Another student's alert"
// @Failure 404 {object} dto.ErrorResponse "Notification not found"
// @Router /notifications/{id}/read [put]
func (c *NotificationController) MarkAsRead(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Notification")
	if !ok {
		return
	}

	if err := c.authzService.ValidateNotificationOwnership(ctx.Request.Context(), id, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	n, err := c.notificationService.MarkAsRead(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewNotificationResponse(n), ""))
}

// ownStudentID reads the student id path parameter and requires it to be the
// caller. Alerts are private to their student.
func (c *NotificationController) ownStudentID(ctx *gin.Context) (int64, bool) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return 0, false
	}
	studentID, ok := parseIDParam(ctx, "id", "Student")
	if !ok {
		return 0, false
	}
	if studentID != userID {
		middleware.HandleAPIError(ctx, auth.ErrNotOwnStudentRecord)
		return 0, false
	}
	return studentID, true
}
