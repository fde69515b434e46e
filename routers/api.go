package routers

import (
	"database/sql"
	"log"
	"os"
	"time"

	"expenseapi/controllers"
	"expenseapi/genai"
	"expenseapi/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
)

func Route() *gin.Engine {
	router := gin.Default()
	router.Use(CORS())
	api := controllers.NewAPI()

	api.Db = newDB(nil)
	api.Db.SetConnMaxLifetime(5 * time.Minute)
	redisHost := os.Getenv("REDIS_HOST")
	redisPort := os.Getenv("REDIS_PORT")

	api.Redis = redis.NewClient(&redis.Options{
		Addr: redisHost + ":" + redisPort,
		DB:   0,
	})

	ai, err := genai.NewClient(os.Getenv("ANTHROPIC_API_KEY"), os.Getenv("ANTHROPIC_MODEL"))
	if err != nil {
		log.Println("ai features disabled:", err)
	} else {
		api.AI = ai
	}

	router.GET("/api/health", api.Health)
	router.POST("/api/signup", api.Signup)
	router.POST("/api/login", api.Authenticate)
	router.GET("/api/check-session", middlewares.Auth(api.Redis), api.CheckSession)
	router.GET("/api/refresh-session", middlewares.Auth(api.Redis), api.RefreshSession)
	router.GET("/api/logout", middlewares.Auth(api.Redis), api.Logout)

	users := router.Group("/api/users")
	users.Use(middlewares.Auth(api.Redis))
	{
		users.GET("/me", api.GetProfile)
		users.PATCH("/me", api.UpdateProfile)
	}

	categories := router.Group("/api/categories")
	categories.Use(middlewares.Auth(api.Redis))
	{
		categories.GET("", api.ListCategories)
		categories.POST("", api.CreateCategory)
		categories.PATCH("/:id", api.UpdateCategory)
		categories.DELETE("/:id", api.DeleteCategory)
	}

	expenses := router.Group("/api/expenses")
	expenses.Use(middlewares.Auth(api.Redis))
	{
		expenses.GET("", api.GetExpenses)
		expenses.GET("/summary", api.GetExpensesTotals)
		expenses.POST("", api.CreateExpense)
		expenses.PATCH("/:id", api.UpdateExpense)
		expenses.DELETE("/:id", api.DeleteExpense)
	}

	receipts := router.Group("/api/receipts")
	receipts.Use(middlewares.Auth(api.Redis))
	{
		receipts.GET("", api.GetReceipts)
		receipts.GET("/:id", api.GetReceipt)
		receipts.POST("", api.UploadReceipt)
	}

	aiGroup := router.Group("/api/ai")
	aiGroup.Use(middlewares.Auth(api.Redis))
	{
		aiGroup.GET("/status", api.AIStatus)
		aiGroup.POST("/receipt-parse", api.ParseReceipt)
		aiGroup.POST("/receipt-parse-by-id", api.ParseReceiptById)
		aiGroup.POST("/categorize", api.CategorizeExpense)
		aiGroup.POST("/expense-from-text", api.ExpenseFromText)
		aiGroup.POST("/receipt-to-expense", api.ReceiptToExpense)
		aiGroup.GET("/recurring", api.GetRecurringExpenses)
		aiGroup.GET("/report", api.GetMonthlyReport)
		aiGroup.GET("/anomalies", api.GetAnomalies)
		aiGroup.GET("/insights", api.GetInsights)
		aiGroup.POST("/chat", api.Chat)
		aiGroup.POST("/check-duplicate", api.CheckDuplicate)
	}

	return router
}

// CORS Cross Origin Resource Sharing
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, "+
			"Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func newDB(indb *sql.DB) *sql.DB {
	if indb != nil {
		return indb
	}
	connString := os.Getenv("DB_CONNECTION_STRING")
	if connString == "" {
		log.Fatal("Please provide DB_CONNECTION_STRING environment variable")
	}

	var err error
	conn, err := sql.Open("postgres", connString)
	if err != nil {
		log.Fatalf("Cannot connect to db: %v", err)
	}

	err = conn.Ping()
	if err != nil {
		log.Fatal(err)
	}

	return conn
}
