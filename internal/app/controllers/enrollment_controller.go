package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/auth"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/middleware"
)

// EnrollmentController handles enrollment requests and instructor decisions
type EnrollmentController struct {
	enrollmentService *services.EnrollmentService
	authzService      *auth.AuthorizationService
	logger            zerolog.Logger
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService *services.EnrollmentService, authzService *auth.AuthorizationService, logger zerolog.Logger) *EnrollmentController {
	return &EnrollmentController{
		enrollmentService: enrollmentService,
		authzService:      authzService,
		logger:            logger,
	}
}

// CreateEnrollment files a pending request for the caller
// @Summary Request enrollment
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateEnrollmentRequest true "Course to enroll in"
// @Success 201 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Enrollment request created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 409 {object} dto.ErrorResponse "Already enrolled or request exists"
// @Router /enrollments [post]
func (c *EnrollmentController) CreateEnrollment(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateEnrollmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	enrollment, err := c.enrollmentService.CreateEnrollment(ctx.Request.Context(), userID, req.CourseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.NewEnrollmentResponse(enrollment), "Enrollment request submitted"))
}

// ListByCourse lists the requests for a course the caller teaches
// @Summary List course enrollments
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.EnrollmentResponse} "Enrollments retrieved"
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /enrollments/course/{courseId} [get]
func (c *EnrollmentController) ListByCourse(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "courseId", "Course")
	if !ok {
		return
	}

	if err := c.authzService.ValidateCourseOwnership(ctx.Request.Context(), courseID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	details, err := c.enrollmentService.ListEnrollmentsByCourse(ctx.Request.Context(), courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewEnrollmentDetailResponses(details), ""))
}

// ListByStudent lists a student's requests. Students see only their own.
// @Summary List student enrollments
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.EnrollmentResponse} "Enrollments retrieved"
// @Failure 403 {object} dto.ErrorResponse "Another student's records"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /enrollments/student/{studentId} [get]
func (c *EnrollmentController) ListByStudent(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	studentID, ok := parseIDParam(ctx, "studentId", "Student")
	if !ok {
		return
	}

	if err := c.authzService.ValidateStudentAccess(ctx.Request.Context(), studentID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	details, err := c.enrollmentService.ListEnrollmentsByStudent(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewEnrollmentDetailResponses(details), ""))
}

// Approve approves a pending request
// @Summary Approve enrollment
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Enrollment approved"
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Failure 409 {object} dto.ErrorResponse "No seats, already approved or rejected"
// @Router /enrollments/{id}/approve [post]
func (c *EnrollmentController) Approve(ctx *gin.Context) {
	c.decide(ctx, models.EnrollmentApproved, "Enrollment approved")
}

// Reject rejects a request, returning the seat if it was approved
// @Summary Reject enrollment
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Enrollment rejected"
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /enrollments/{id}/reject [post]
func (c *EnrollmentController) Reject(ctx *gin.Context) {
	c.decide(ctx, models.EnrollmentRejected, "Enrollment rejected")
}

// UpdateStatus dispatches {status} to approve or reject
// @Summary Update enrollment status
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Param request body dto.UpdateEnrollmentStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Enrollment updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Failure 409 {object} dto.ErrorResponse "Transition not allowed"
// @Router /enrollments/{id} [put]
func (c *EnrollmentController) UpdateStatus(ctx *gin.Context) {
	var req dto.UpdateEnrollmentStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}
	c.decide(ctx, models.EnrollmentStatus(req.Status), "Enrollment updated")
}

func (c *EnrollmentController) decide(ctx *gin.Context, status models.EnrollmentStatus, message string) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Enrollment")
	if !ok {
		return
	}

	if err := c.authzService.ValidateEnrollmentOwnership(ctx.Request.Context(), id, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	enrollment, err := c.enrollmentService.UpdateStatus(ctx.Request.Context(), id, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Int64("enrollmentID", id).
		Int64("instructorID", userID).
		Str("status", string(enrollment.Status)).
		Msg("Enrollment decision recorded")
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewEnrollmentResponse(enrollment), message))
}
