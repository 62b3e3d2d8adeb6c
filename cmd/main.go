package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"listhub_v1_202608/internal/controller"
	"listhub_v1_202608/internal/middleware"
	"listhub_v1_202608/internal/model"
	"listhub_v1_202608/internal/repository"
	"listhub_v1_202608/internal/router"
	"listhub_v1_202608/internal/service"
	"listhub_v1_202608/internal/task"
	"listhub_v1_202608/pkg/database"
)

func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	initTasks(deps)

	// 4. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	User       repository.UserRepository
	ListingUow *repository.ListingUnitOfWork
	Listing    repository.ListingRepository
	Image      repository.ListingImageRepository
	Session    repository.WorkflowSessionRepository
	Plan       repository.PaymentPlanRepository
	Promo      repository.PromoCodeRepository
	Payment    repository.PaymentRecordRepository
	Sub        repository.SubscriptionRepository
	Region     repository.RegionRepository
}

// Services 服务集合
type Services struct {
	Auth     *service.AuthService
	Storage  service.StorageProvider
	Upload   *service.UploadService
	Workflow *service.WorkflowService
	Sub      *service.SubscriptionService
	Listing  *service.ListingService
	Payment  *service.PaymentService
	Region   *service.RegionService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	return database.InitDB(
		getEnv("DB_DRIVER", "postgres"),
		getEnv("DATABASE_DSN", "host=localhost user=listhub password=listhub dbname=listhub port=5432 sslmode=disable"),
		// User
		&model.SysUser{}, &model.OTPCode{},
		// Listing
		&model.Listing{}, &model.ListingImage{},
		// Workflow
		&model.WorkflowSession{},
		// Payment
		&model.PaymentPlan{}, &model.PromoCode{}, &model.PaymentRecord{}, &model.UserSubscription{},
		// Region
		&model.Region{}, &model.RecentRegion{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- JWT 配置 --------
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:       getEnv("JWT_SECRET", "listhub-secret-key-change-in-production"),
		AccessTokenTTL:  2 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "listhub",
	})

	// -------- 存储与网关 --------
	storage := initStorage()
	gateway := service.NewStripeGateway(service.StripeGatewayConfig{
		BaseURL:   getEnv("PAYMENT_GATEWAY_URL", "http://localhost:9090"),
		SecretKey: getEnv("PAYMENT_GATEWAY_KEY", ""),
	})

	// -------- 业务服务 --------
	services := &Services{Storage: storage}
	services.Auth = service.NewAuthService(repos.User)
	services.Upload = service.NewUploadService(storage, repos.Image)
	services.Workflow = service.NewWorkflowService(repos.Session)
	services.Sub = service.NewSubscriptionService(repos.Sub, repos.Payment, services.Workflow)
	services.Listing = service.NewListingService(repos.ListingUow, services.Upload, storage, services.Sub, services.Workflow)
	services.Payment = service.NewPaymentService(
		repos.Plan, repos.Promo, repos.Payment, repos.Sub, repos.Listing,
		services.Workflow, gateway,
	)
	services.Region = service.NewRegionService(repos.Region, repos.Listing, services.Workflow)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth:    controller.NewAuthController(services.Auth),
		Listing: controller.NewListingController(services.Listing, services.Workflow),
		Upload:  controller.NewUploadController(services.Upload),
		Payment: controller.NewPaymentController(services.Payment, services.Sub),
		Region:  controller.NewRegionController(services.Region),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       repository.NewUserRepository(db),
		ListingUow: repository.NewListingUnitOfWork(db),
		Listing:    repository.NewListingRepository(db),
		Image:      repository.NewListingImageRepository(db),
		Session:    repository.NewWorkflowSessionRepository(db),
		Plan:       repository.NewPaymentPlanRepository(db),
		Promo:      repository.NewPromoCodeRepository(db),
		Payment:    repository.NewPaymentRecordRepository(db),
		Sub:        repository.NewSubscriptionRepository(db),
		Region:     repository.NewRegionRepository(db),
	}
}

// initStorage 初始化存储
func initStorage() service.StorageProvider {
	storage, err := service.NewStorageProvider(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "s3"),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
		CDNDomain: getEnv("AWS_CDN_DOMAIN", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "listhub"),
	})
	if err != nil {
		log.Fatalf("存储初始化失败: %v", err)
	}
	return storage
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	cleanupTask := task.NewCleanupTask(
		deps.Repos.Listing,
		deps.Repos.Image,
		deps.Repos.Session,
		deps.Services.Storage,
	)
	cleanupTask.Start()

	subTask := task.NewSubscriptionTask(deps.Services.Sub, deps.Services.Auth)
	subTask.Start()

	log.Println("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
