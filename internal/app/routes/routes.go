package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/registrar/internal/app/controllers"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/middleware"
)

// RateLimits holds the limiters for the endpoints clients hit in bursts.
// Nil entries are skipped.
type RateLimits struct {
	Login     gin.HandlerFunc
	Enroll    gin.HandlerFunc
	Subscribe gin.HandlerFunc
}

func orNext(h gin.HandlerFunc) gin.HandlerFunc {
	if h == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return h
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	courseController *controllers.CourseController,
	enrollmentController *controllers.EnrollmentController,
	notificationController *controllers.NotificationController,
	healthController *controllers.HealthController,
	authMiddleware *middleware.AuthMiddleware,
	limits RateLimits,
) {
	router.NoRoute(middleware.NoRoute)

	// API version group
	v1 := router.Group("/api/v1")
	v1.GET("/health", healthController.Health)

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", orNext(limits.Login), authController.Login)
		auth.GET("/me", authMiddleware.JWTAuth(), authController.Me)
	}

	instructorOnly := authMiddleware.RoleRequired(string(models.RoleInstructor))
	studentOnly := authMiddleware.RoleRequired(string(models.RoleStudent))

	// Course catalogue is public, edits are instructor-only
	courses := v1.Group("/courses")
	{
		courses.GET("", courseController.ListCourses)
		courses.GET("/:id", courseController.GetCourse)
		courses.GET("/instructor/:instructorId", courseController.ListCoursesByInstructor)

		coursesInstructorProtected := courses.Group("")
		coursesInstructorProtected.Use(authMiddleware.JWTAuth(), instructorOnly)
		{
			coursesInstructorProtected.POST("", courseController.CreateCourse)
			coursesInstructorProtected.PUT("/:id", courseController.UpdateCourse)
			coursesInstructorProtected.DELETE("/:id", courseController.DeleteCourse)
		}
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	enrollments := authenticated.Group("/enrollments")
	{
		enrollments.POST("", studentOnly, orNext(limits.Enroll), enrollmentController.CreateEnrollment)
		enrollments.GET("/student/:studentId", enrollmentController.ListByStudent)

		enrollmentsInstructorProtected := enrollments.Group("")
		enrollmentsInstructorProtected.Use(instructorOnly)
		{
			enrollmentsInstructorProtected.GET("/course/:courseId", enrollmentController.ListByCourse)
			enrollmentsInstructorProtected.POST("/:id/approve", enrollmentController.Approve)
			enrollmentsInstructorProtected.POST("/:id/reject", enrollmentController.Reject)
			enrollmentsInstructorProtected.PUT("/:id", enrollmentController.UpdateStatus)
		}
	}

	notifications := authenticated.Group("/notifications")
	{
		notifications.POST("/subscribe", studentOnly, orNext(limits.Subscribe), notificationController.Subscribe)
		notifications.DELETE("/subscribe", studentOnly, notificationController.Unsubscribe)
		notifications.GET("/:id", notificationController.List)
		notifications.GET("/:id/unread-count", notificationController.UnreadCount)
		notifications.PUT("/:id/read", notificationController.MarkAsRead)
	}
}
