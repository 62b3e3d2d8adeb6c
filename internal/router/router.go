package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"listhub_v1_202608/internal/controller"
	"listhub_v1_202608/internal/middleware"
	"listhub_v1_202608/internal/model"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Auth    *controller.AuthController
	Listing *controller.ListingController
	Upload  *controller.UploadController
	Payment *controller.PaymentController
	Region  *controller.RegionController
}

// SetupRouter 装配路由
func SetupRouter(ctrls *Controllers) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")

	// 认证（无需登录）
	auth := api.Group("/auth")
	{
		auth.POST("/login", ctrls.Auth.PasswordLogin)
		auth.POST("/otp/request", ctrls.Auth.RequestOTP)
		auth.POST("/otp/verify", ctrls.Auth.VerifyOTP)
		auth.POST("/refresh", ctrls.Auth.RefreshToken)
	}

	// 业务接口（需登录）
	authed := api.Group("")
	authed.Use(middleware.JWTAuth())
	{
		// 当前用户
		authed.GET("/auth/me", ctrls.Auth.Profile)

		// 刊登工作流
		authed.POST("/listings", ctrls.Listing.SubmitDraft)
		authed.GET("/listings", ctrls.Listing.List)
		authed.GET("/listings/:id", ctrls.Listing.GetDetail)
		authed.PATCH("/listings/:id", ctrls.Listing.UpdateDraft)
		authed.DELETE("/listings/:id", ctrls.Listing.AbandonDraft)
		authed.GET("/listings/:id/review", ctrls.Listing.GetReview)
		authed.POST("/listings/:id/publish", ctrls.Listing.Publish)

		// 图片上传
		authed.POST("/uploads", ctrls.Upload.UploadImages)

		// 支付结算
		authed.GET("/payment-plans", ctrls.Payment.ListPlans)
		authed.GET("/promo-codes/validate", ctrls.Payment.ValidatePromo)
		authed.POST("/stripe/create-payment-intent", ctrls.Payment.CreateIntent)
		authed.POST("/stripe/confirm-payment", ctrls.Payment.ConfirmPayment)
		authed.POST("/stripe/cancel-payment", ctrls.Payment.CancelPayment)
		authed.GET("/subscriptions/validity", ctrls.Payment.SubscriptionValidity)

		// 发布区域
		authed.GET("/regions", ctrls.Region.ListRegions)
		authed.GET("/regions/recent", ctrls.Region.ListRecent)
		authed.POST("/regions/recent", ctrls.Region.RecordRecent)
		authed.POST("/regions/confirm", ctrls.Region.ConfirmRegion)

		// 目录维护（管理员）
		admin := authed.Group("/admin")
		admin.Use(middleware.RequireRole(model.RoleAdmin))
		{
			admin.POST("/regions", ctrls.Region.CreateRegion)
			admin.POST("/payment-plans", ctrls.Payment.CreatePlan)
		}
	}

	return r
}
