package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"zhaiyao/internal/api"
	"zhaiyao/internal/config"
	"zhaiyao/internal/db"
	"zhaiyao/internal/ingest"
	"zhaiyao/internal/media"
	"zhaiyao/internal/oss"
	"zhaiyao/internal/repository"
	"zhaiyao/internal/stt"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Upload history: PostgreSQL when DATABASE_URL is set, in-memory
	// otherwise.
	var repo repository.UploadRepository
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: failed to initialize database: %v. Continuing with in-memory history.", err)
			repo = repository.NewMemoryRepository()
		} else {
			repo = repository.NewPostgresRepository(conn)
			log.Println("Database and repository initialized successfully")
		}
	} else {
		log.Println("DATABASE_URL not set, keeping upload history in memory only")
		repo = repository.NewMemoryRepository()
	}

	transcoder := media.NewFFmpeg(cfg.FFmpegPath)
	uploader := oss.NewClient(cfg.OSSRegion, cfg.OSSBucket, cfg.OSSAccessKeyID, cfg.OSSAccessSecret, cfg.OSSPublicBaseURL, cfg.OSSACLDisabled)
	provider := stt.NewAPIMartProvider(cfg.APIMartKey, cfg.APIMartSTTURL, cfg.APIMartModel, cfg.APIMartLanguage, cfg.APIMartPrompt)
	orchestrator := ingest.New(cfg, transcoder, uploader, provider, repo)

	r := gin.Default()
	r.Use(corsMiddleware())

	server := api.NewServer(cfg, orchestrator, repo)
	server.RegisterRoutes(r)

	log.Printf("ZhaiYao backend running on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// corsMiddleware adds CORS headers for the browser UI
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-User-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
