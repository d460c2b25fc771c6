// Package app wires the HTTP routes to the handlers
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pardeep1916P/storeit-api/app/auth"
	"pardeep1916P/storeit-api/app/file"
	"pardeep1916P/storeit-api/app/root"
	"pardeep1916P/storeit-api/app/share"
	"pardeep1916P/storeit-api/app/upload"
	"pardeep1916P/storeit-api/aws"
	"pardeep1916P/storeit-api/db"
	"pardeep1916P/storeit-api/internal"
	"pardeep1916P/storeit-api/internal/blob"
	"pardeep1916P/storeit-api/internal/cache"
	"pardeep1916P/storeit-api/internal/identity"
	"pardeep1916P/storeit-api/internal/mail"
	"pardeep1916P/storeit-api/internal/service"
	"pardeep1916P/storeit-api/internal/store"
	"pardeep1916P/storeit-api/pkg/middleware"
	"pardeep1916P/storeit-api/pkg/security"

	gincache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const statsPath = "/files/stats"

var responseCache = persist.NewMemoryStore(time.Minute)

// Options are the router settings that don't live in Deps
type Options struct {
	CORSOrigins   []string
	RateLimit     int
	MaxUploadSize int64
}

// NewRouter builds every dependency from the config and mounts the routes
func NewRouter(ctx context.Context) (*gin.Engine, error) {
	gdb, err := db.New()
	if err != nil {
		return nil, err
	}

	records, err := store.NewGorm(gdb)
	if err != nil {
		return nil, err
	}

	d := &internal.Deps{
		Store:    records,
		Services: map[string]string{"database": viper.GetString("database.driver")},
	}

	switch viper.GetString("storage.type") {
	case "s3":
		s3, err := aws.NewS3()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}
		d.Blobs = s3
	default:
		zap.L().Warn("Using in-memory blob storage, files are lost on restart")
		d.Blobs = blob.NewMemory()
	}
	d.Services["storage"] = viper.GetString("storage.type")

	signer := identity.NewSigner(viper.GetString("jwt.secret"), viper.GetString("jwt.issuer"))
	signer.AccessTTL = viper.GetDuration("jwt.access_ttl")
	signer.RefreshTTL = viper.GetDuration("jwt.refresh_ttl")

	mailer := mail.New()

	local, err := identity.NewLocal(gdb, security.New(), signer, mailer)
	if err != nil {
		return nil, err
	}
	d.Identity = local
	d.Resolver = identity.NewResolver(signer, local)
	d.Services["identity"] = "local"

	var names service.NameCache
	if viper.GetBool("redis.enabled") {
		client, err := cache.NewRedisClient(
			viper.GetString("redis.addr"),
			viper.GetString("redis.password"),
			viper.GetInt("redis.db"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis, %w", err)
		}

		names = cache.NewNames(client, viper.GetDuration("redis.name_ttl"))
		d.Services["cache"] = "redis"
	}

	d.Uploads = service.NewUploads(d.Store, d.Blobs)

	d.Files = service.NewFiles(d.Store, d.Blobs, viper.GetInt64("storage.max_usage"))
	d.Files.URLTTL = viper.GetDuration("upload.signed_url_ttl")
	d.Files.StreamTTL = viper.GetDuration("upload.stream_url_ttl")

	d.Sharing = service.NewSharing(d.Store, d.Blobs, local, names)
	d.Sharing.URLTTL = viper.GetDuration("upload.signed_url_ttl")

	d.Recovery = service.NewRecovery(d.Store, local, mailer)

	service.Cleanup(ctx, "Reset code cleanup", viper.GetDuration("cleanup.reset_codes"), d.Recovery.SweepExpired)
	service.Cleanup(ctx, "Account cleanup", viper.GetDuration("cleanup.accounts"), local.SweepUnverified)

	return Mount(d, Options{
		CORSOrigins:   viper.GetStringSlice("host.cors_origins"),
		RateLimit:     viper.GetInt("security.rate_limit"),
		MaxUploadSize: viper.GetInt64("upload.max_size"),
	}), nil
}

// Mount builds the engine for d
func Mount(d *internal.Deps, o Options) *gin.Engine {
	router := gin.New()

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(o.CORSOrigins) == 0 || o.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = o.CORSOrigins
		corsCfg.AllowCredentials = true
	}

	router.Use(
		cors.New(corsCfg),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true

	jwt := middleware.NewAuthMiddleware(d.Resolver)
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: o.RateLimit,
		Burst:             o.RateLimit * 2,
	})
	smallBody := middleware.BodySizeLimiter(1 << 20)
	uploadBody := middleware.BodySizeLimiter(max(o.MaxUploadSize*4/3+(1<<10), 1<<20))

	h := func(fn func(*gin.Context, *internal.Deps)) gin.HandlerFunc {
		return func(c *gin.Context) { fn(c, d) }
	}

	// GET /health			-> Reports that the server is alive
	router.GET("/health", h(root.Health))

	// HEAD /heartbeat		-> Used by load balancers
	router.HEAD("/heartbeat", root.Heartbeat)

	a := router.Group("/auth", rateLimiter, smallBody)
	{
		// POST /auth/signup		-> Registers a new account and mails a code
		a.POST("/signup", h(auth.Signup))

		// POST /auth/signin		-> Returns access, id and refresh tokens
		a.POST("/signin", h(auth.Signin))

		// POST /auth/confirm		-> Confirms a signup or checks a reset code
		a.POST("/confirm", h(auth.Confirm))

		// POST /auth/verify		-> Confirms a signup
		a.POST("/verify", h(auth.Verify))

		// POST /auth/forgot-password	-> Mails a password reset code
		a.POST("/forgot-password", h(auth.ForgotPassword))

		// POST /auth/verify-reset-otp	-> Checks a reset code without using it
		a.POST("/verify-reset-otp", h(auth.VerifyResetCode))

		// POST /auth/reset-password	-> Sets a new password with a reset code
		a.POST("/reset-password", h(auth.ResetPassword))

		// POST /auth/resend-otp	-> Resends a confirmation or reset code
		a.POST("/resend-otp", h(auth.ResendCode))

		// POST /auth/refresh		-> Trades a refresh token for an access token
		a.POST("/refresh", h(auth.Refresh))

		// GET /auth/me			-> Returns the caller
		a.GET("/me", jwt, h(auth.Me))
	}

	u := router.Group("/upload", jwt, uploadBody, invalidateStats)
	{
		// POST /upload			-> Single shot upload of a base64 file
		u.POST("", h(upload.Single))

		// POST /upload/init		-> Starts a chunked upload session
		u.POST("/init", h(upload.Init))

		// POST /upload/chunk		-> Stores one chunk of a session
		u.POST("/chunk", h(upload.Chunk))

		// POST /upload/complete	-> Assembles the chunks into a file
		u.POST("/complete", h(upload.Complete))
	}

	f := router.Group("/files", jwt, smallBody)
	{
		// GET /files			-> Lists, searches and sorts the caller's files
		f.GET("", h(file.List))

		// GET /files/stats		-> Storage usage per category
		f.GET("/stats", cacheFor(15), h(file.Stats))

		// GET /files/shared-with-me	-> Files other users shared with the caller
		f.GET("/shared-with-me", h(share.SharedWithMe))

		// POST /files/signed-url	-> Download URL for one of the caller's files
		f.POST("/signed-url", h(file.SignedURL))

		// DELETE /files/delete		-> Deletes the file named in the body
		f.DELETE("/delete", invalidateStats, h(file.DeleteByBody))

		// GET /files/:id		-> One of the caller's files
		f.GET("/:id", h(file.Fetch))

		// PUT /files/:id		-> Renames a file
		f.PUT("/:id", invalidateStats, h(file.Rename))

		// DELETE /files/:id		-> Deletes a file and its content
		f.DELETE("/:id", invalidateStats, h(file.Delete))

		// PUT /files/:id/rename	-> Renames a file
		f.PUT("/:id/rename", invalidateStats, h(file.Rename))

		// PUT /files/:id/share		-> Replaces the share list
		f.PUT("/:id/share", h(share.Share))

		// GET /files/:id/access	-> Details of a file shared with the caller
		f.GET("/:id/access", h(share.Access))

		// POST /files/:id/download-shared -> Download URL for a shared file
		f.POST("/:id/download-shared", h(share.DownloadShared))

		// GET /files/:id/download	-> Download URL for one of the caller's files
		f.GET("/:id/download", h(file.Download))

		// GET /files/:id/stream	-> Long lived URL for video playback
		f.GET("/:id/stream", h(file.Stream))
	}

	// POST /download		-> Download URL for one of the caller's files
	router.POST("/download", jwt, smallBody, h(file.SignedURL))

	return router
}

// cacheFor caches a response per caller and URI
func cacheFor(sec int) gin.HandlerFunc {
	return gincache.Cache(responseCache, time.Second*time.Duration(sec),
		gincache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, gincache.Strategy) {
			return true, gincache.Strategy{CacheKey: callerCacheKey(c.GetString("userID"), c.Request.RequestURI)}
		}),
	)
}

func callerCacheKey(userID, uri string) string {
	return userID + ":" + uri
}

// invalidateStats drops the caller's cached stats after a successful write
func invalidateStats(c *gin.Context) {
	c.Next()

	if c.Writer.Status() >= http.StatusBadRequest {
		return
	}

	// Nothing cached is the common case
	_ = responseCache.Delete(callerCacheKey(c.GetString("userID"), statsPath))
}
