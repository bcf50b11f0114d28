package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/auth"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/middleware"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// CourseController handles course registry endpoints
type CourseController struct {
	courseService *services.CourseService
	authzService  *auth.AuthorizationService
	logger        zerolog.Logger
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService *services.CourseService, authzService *auth.AuthorizationService, logger zerolog.Logger) *CourseController {
	return &CourseController{
		courseService: courseService,
		authzService:  authzService,
		logger:        logger,
	}
}

// ListCourses lists courses
// @Summary List courses
// @Description Lists courses ordered by course code, optionally filtered by semester or instructor
// @Tags courses
// @Produce json
// @Param semester query string false "Semester, e.g. Fall 2025"
// @Param instructorId query int false "Instructor ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CourseResponse} "Courses retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	filter := models.CourseFilter{Semester: ctx.Query("semester")}
	if raw := strings.TrimSpace(ctx.Query("instructorId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid instructor ID").
				WithField("instructorId").
				WithDetails("instructorId must be a valid number")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		filter.InstructorID = id
	}

	courses, err := c.courseService.ListCourses(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewCourseResponses(courses), ""))
}

// GetCourse retrieves a course by ID
// @Summary Get course by ID
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse} "Course retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid course ID"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	course, err := c.courseService.GetCourse(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewCourseResponse(course), ""))
}

// ListCoursesByInstructor lists the courses an instructor teaches
// @Summary List instructor courses
// @Tags courses
// @Produce json
// @Param instructorId path int true "Instructor ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CourseResponse} "Courses retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid instructor ID"
// @Failure 404 {object} dto.ErrorResponse "Instructor not found"
// @Router /courses/instructor/{instructorId} [get]
func (c *CourseController) ListCoursesByInstructor(ctx *gin.Context) {
	instructorID, ok := parseIDParam(ctx, "instructorId", "Instructor")
	if !ok {
		return
	}

	courses, err := c.courseService.ListCoursesByInstructor(ctx.Request.Context(), instructorID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewCourseResponses(courses), ""))
}

// CreateCourse creates a course taught by the caller
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCourseRequest true "Course information"
// @Success 201 {object} dto.APIResponse{data=dto.CourseResponse} "Course created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Only instructors can create courses"
// @Failure 409 {object} dto.ErrorResponse "Course code already exists"
// @Router /courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}
	if req.InstructorID != 0 && req.InstructorID != userID {
		middleware.HandleAPIError(ctx, apperrors.NewForbiddenError("instructors can only create their own courses"))
		return
	}

	course, err := c.courseService.CreateCourse(ctx.Request.Context(), &models.Course{
		CourseCode:    req.CourseCode,
		Title:         req.Title,
		InstructorID:  userID,
		Semester:      req.Semester,
		TotalSeats:    req.TotalSeats,
		Prerequisites: req.Prerequisites,
		Description:   req.Description,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.NewCourseResponse(course), "Course created successfully"))
}

// UpdateCourse applies a partial edit to a course the caller teaches
// @Summary Update a course
// @Description Partial update. Changing totalSeats without availableSeats keeps the allocated seats.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.UpdateCourseRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse} "Course updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 409 {object} dto.ErrorResponse "Seats below allocated or duplicate code"
// @Router /courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	if err := c.authzService.ValidateCourseOwnership(ctx.Request.Context(), id, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	course, err := c.courseService.UpdateCourse(ctx.Request.Context(), id, req.ToModel())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewCourseResponse(course), "Course updated successfully"))
}

// DeleteCourse removes a course without enrollment or notification records
// @Summary Delete a course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse "Course deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 409 {object} dto.ErrorResponse "Course has enrollment or notification records"
// @Router /courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Course")
	if !ok {
		return
	}

	if err := c.authzService.ValidateCourseOwnership(ctx.Request.Context(), id, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.courseService.DeleteCourse(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Course deleted successfully"))
}
