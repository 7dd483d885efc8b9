package middleware

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// GzipConfig tunes response compression
type GzipConfig struct {
	Level int
	// Path prefixes served uncompressed
	ExcludedPaths []string
}

// DefaultGzipConfig compresses at the default level and leaves the
// Prometheus endpoint alone, since promhttp negotiates its own encoding.
func DefaultGzipConfig() GzipConfig {
	return GzipConfig{
		Level:         gzip.DefaultCompression,
		ExcludedPaths: []string{"/metrics"},
	}
}

type gzipWriter struct {
	gin.ResponseWriter
	writer *gzip.Writer
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	g.Header().Del("Content-Length")
	return g.writer.Write(data)
}

func (g *gzipWriter) WriteHeader(code int) {
	g.Header().Del("Content-Length")
	g.ResponseWriter.WriteHeader(code)
}

// Gzip compresses responses for clients that accept it. WebSocket upgrades
// pass through untouched.
func Gzip(cfg GzipConfig) gin.HandlerFunc {
	pool := sync.Pool{
		New: func() any {
			gz, err := gzip.NewWriterLevel(io.Discard, cfg.Level)
			if err != nil {
				gz = gzip.NewWriter(io.Discard)
			}
			return gz
		},
	}

	return func(c *gin.Context) {
		if !shouldCompress(c.Request, cfg.ExcludedPaths) {
			c.Next()
			return
		}

		gz := pool.Get().(*gzip.Writer)
		defer pool.Put(gz)
		gz.Reset(c.Writer)

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")
		c.Writer = &gzipWriter{ResponseWriter: c.Writer, writer: gz}
		defer func() {
			if c.Writer.Size() < 0 {
				// Nothing was written, so no gzip stream either
				c.Writer.Header().Del("Content-Encoding")
				gz.Reset(io.Discard)
			}
			_ = gz.Close()
			gz.Reset(io.Discard)
		}()

		c.Next()
	}
}

func shouldCompress(req *http.Request, excluded []string) bool {
	if !strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
		return false
	}
	if strings.EqualFold(req.Header.Get("Upgrade"), "websocket") {
		return false
	}
	for _, p := range excluded {
		if strings.HasPrefix(req.URL.Path, p) {
			return false
		}
	}
	return true
}
