package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/uniportal/internal/app/controllers"
	"github.com/yigit/uniportal/internal/app/models/dto"
	"github.com/yigit/uniportal/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	departmentController *controllers.DepartmentController,
	signupController *controllers.SignupRequestController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewAPIResponse(gin.H{"status": "ok"}))
	})

	// Department routes (public access, used by the signup form)
	departments := v1.Group("/departments")
	{
		departments.GET("", departmentController.GetAllDepartments)
		departments.GET("/:id", departmentController.GetDepartmentByID)
		departments.POST("", authMiddleware.Authenticate(), departmentController.CreateDepartment)
	}

	requests := v1.Group("/requests")
	{
		// Public submission
		requests.POST("", signupController.Submit)

		// Review routes: administrators and department coordinators
		review := requests.Group("")
		review.Use(authMiddleware.Authenticate(), authMiddleware.RequireReviewer())
		{
			review.GET("", signupController.List)
			review.GET("/:id", signupController.Get)
			review.PATCH("/:id", signupController.Transition)
			review.POST("/:id/notifications", signupController.ResendNotification)
		}
	}
}
