package worker

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the worker's liveness/readiness probes on its own
// small listener, independent of the API process.
func (w *Worker) HealthHandler() http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())

	// liveness: process is up
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// readiness: flips off once shutdown starts
	r.GET("/readyz", func(c *gin.Context) {
		w.readyMu.RLock()
		ready := w.ready
		w.readyMu.RUnlock()

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	return r
}

func (w *Worker) SetReady(ready bool) {
	w.readyMu.Lock()
	w.ready = ready
	w.readyMu.Unlock()
}
