package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxRealIPKey holds the resolved client address for rate limiting and logs.
const CtxRealIPKey = "real_ip"

// proxyHeaders are consulted in order. X-Forwarded-For may carry a chain;
// its left-most entry is the original client.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// RealIP resolves the caller's address from proxy headers, falling back to
// gin's ClientIP when none of them holds a parseable IP.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ""
		for _, h := range proxyHeaders {
			if ip = headerIP(c.GetHeader(h)); ip != "" {
				break
			}
		}
		if ip == "" {
			ip = c.ClientIP()
		}
		c.Set(CtxRealIPKey, ip)
		c.Next()
	}
}

func headerIP(v string) string {
	first, _, _ := strings.Cut(v, ",")
	if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
		return ip.String()
	}
	return ""
}
