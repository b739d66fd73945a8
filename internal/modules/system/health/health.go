package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/solsticehq/core/internal/pkg/cron"
	"github.com/solsticehq/core/internal/pkg/logging"
	pkgredis "github.com/solsticehq/core/internal/pkg/redis"
	"github.com/solsticehq/core/internal/pkg/response"
)

func RegisterRoutes(rg *gin.RouterGroup, db *mongo.Database, rc *pkgredis.Client, sched *cron.Scheduler, authMW gin.HandlerFunc) {
	rg.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	rg.GET("/uptime", func(c *gin.Context) {
		up := logging.Uptime()
		response.OK(c, gin.H{
			"uptime":   up.Milliseconds(),
			"humanize": humanizeDuration(up),
		})
	})

	rg.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		mongoOK := db.Client().Ping(ctx, readpref.Primary()) == nil
		redisOK := rc.Ping(ctx) == nil

		status := "ok"
		code := http.StatusOK
		if !mongoOK || !redisOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"mongodb": mongoOK,
			"redis":   redisOK,
		})
	})

	cronGroup := rg.Group("/health/cron", authMW)
	{
		cronGroup.GET("", func(c *gin.Context) {
			items := sched.List()
			byName := make(map[string]cron.ListItem, len(items))
			for _, item := range items {
				byName[item.Name] = item
			}
			response.OK(c, byName)
		})

		cronGroup.GET("/:name", func(c *gin.Context) {
			result, err := sched.GetTask(c.Param("name"))
			if err != nil {
				response.NotFoundMsg(c, err.Error())
				return
			}
			response.OK(c, result)
		})

		cronGroup.POST("/:name/run", func(c *gin.Context) {
			if err := sched.Run(c.Request.Context(), c.Param("name")); err != nil {
				response.NotFoundMsg(c, err.Error())
				return
			}
			response.OK(c, gin.H{"message": "job triggered"})
		})
	}
}

// humanizeDuration renders an uptime like "2d 3h 14m 9s".
func humanizeDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	d = d.Round(time.Second)

	var b strings.Builder
	if days := d / (24 * time.Hour); days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
		d -= days * 24 * time.Hour
	}
	if hours := d / time.Hour; hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
		d -= hours * time.Hour
	}
	if mins := d / time.Minute; mins > 0 {
		fmt.Fprintf(&b, "%dm ", mins)
		d -= mins * time.Minute
	}
	if secs := d / time.Second; secs > 0 {
		fmt.Fprintf(&b, "%ds", secs)
	}
	return strings.TrimSpace(b.String())
}
