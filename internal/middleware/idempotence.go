package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	pkgredis "github.com/solsticehq/core/internal/pkg/redis"
	"github.com/solsticehq/core/internal/pkg/response"
)

const (
	idempotenceHeader = "x-idempotence"
	idempotenceTTL    = 60 * time.Second
)

// Idempotence dedupes mutating requests for 60 seconds. Applied to routes
// where an accidental double submit creates real side effects, i.e. payment
// checkout. Redis trouble degrades to letting the request through.
func Idempotence(rc *pkgredis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		key := resolveIdempotenceKey(c)
		if key == "" {
			c.Next()
			return
		}

		redisKey := fmt.Sprintf("solstice:idempotence:%s", key)
		ctx := c.Request.Context()
		rdb := rc.Raw()

		if val, err := rdb.Get(ctx, redisKey).Result(); err == nil {
			msg := "An identical request already succeeded; wait 60 seconds before retrying"
			if val == "0" {
				msg = "An identical request is still being processed"
			}
			response.Conflict(c, msg)
			return
		} else if err != redis.Nil {
			c.Next()
			return
		}

		if err := rdb.Set(ctx, redisKey, "0", idempotenceTTL).Err(); err != nil {
			c.Next()
			return
		}

		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 300 {
			rdb.Set(ctx, redisKey, "1", redis.KeepTTL)
		} else {
			rdb.Del(ctx, redisKey)
		}
	}
}

// resolveIdempotenceKey prefers an explicit client-provided header and
// otherwise hashes the request identity (method, url, body, caller).
func resolveIdempotenceKey(c *gin.Context) string {
	if hdr := c.GetHeader(idempotenceHeader); hdr != "" {
		return hdr
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	token := ExtractAccessToken(c)
	if len(body) == 0 && token == "" {
		return ""
	}

	raw := c.Request.Method + "|" + c.Request.URL.String() + "|" + string(body) + "|" + c.ClientIP() + "|" + token
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
