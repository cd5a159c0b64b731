package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes response compression.
type BrotliConfig struct {
	Quality   int
	MinLength int
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// brotliWriter holds the whole body so the encoding decision can be made
// once the size is known. Plans are bounded by a collection scan, so the
// buffer never outgrows what the handler already held in memory.
type brotliWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	return bw.buf.Write(data)
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.buf.WriteString(s)
}

func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < brotli.BestSpeed || cfg.Quality > brotli.BestCompression {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		original := c.Writer
		bw := &brotliWriter{ResponseWriter: original}
		c.Writer = bw
		defer func() { c.Writer = original }()

		c.Next()

		if bw.buf.Len() < cfg.MinLength {
			_, _ = original.Write(bw.buf.Bytes())
			return
		}

		var compressed bytes.Buffer
		w := brotli.NewWriterLevel(&compressed, cfg.Quality)
		if _, err := w.Write(bw.buf.Bytes()); err != nil {
			_ = c.Error(err)
			_, _ = original.Write(bw.buf.Bytes())
			return
		}
		if err := w.Close(); err != nil {
			_ = c.Error(err)
			_, _ = original.Write(bw.buf.Bytes())
			return
		}

		h := original.Header()
		h.Set("Content-Encoding", "br")
		h.Set("Content-Length", strconv.Itoa(compressed.Len()))
		_, _ = original.Write(compressed.Bytes())
	}
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "br") {
			return true
		}
	}
	return false
}
