package main

import (
	"net/http"
	"strconv"

	"github.com/varlaud/dexa-extract/config"
	"github.com/varlaud/dexa-extract/logging"
)

// requestSizeMiddleware rejects requests whose declared body size exceeds the
// configured upload cap, before any bytes are read. Handlers still enforce
// the cap on the actual stream for requests without a Content-Length.
func requestSizeMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
				if length, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
					if length > cfg.MaxRequestBody {
						logging.Warn("Request body too large",
							"content_length", length,
							"max_allowed", cfg.MaxRequestBody,
							"remote_addr", r.RemoteAddr,
							"user_agent", r.UserAgent())

						http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
						return
					}
				}
			}

			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBody)
			next.ServeHTTP(w, r)
		})
	}
}
