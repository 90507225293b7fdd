package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/stridelab/cadence/internal/database"
	"github.com/stridelab/cadence/internal/scheduler"
)

// SystemHandlers serves process and database health endpoints.
type SystemHandlers struct {
	db        *database.DB
	sched     *scheduler.Scheduler
	weeklyJob scheduler.Job
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(db *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		db:        db,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// SetWeeklyPlanJob registers the plan job for manual triggering.
func (h *SystemHandlers) SetWeeklyPlanJob(sched *scheduler.Scheduler, job scheduler.Job) {
	h.sched = sched
	h.weeklyJob = job
}

// HandleSystemHealth handles GET /api/v1/system/health
func (h *SystemHandlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.systemStats()

	dbStatus := "ok"
	if err := h.db.Conn().Ping(); err != nil {
		dbStatus = "unreachable"
		h.log.Error().Err(err).Msg("Database ping failed")
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"cpu_percent":    cpuPct,
			"memory_percent": memPct,
			"database":       dbStatus,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleTriggerWeeklyPlan handles POST /api/v1/system/jobs/weekly-plan
func (h *SystemHandlers) HandleTriggerWeeklyPlan(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil || h.weeklyJob == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "Weekly plan job not registered",
		})
		return
	}

	h.log.Info().Msg("Manual weekly plan generation triggered")
	if err := h.sched.RunNow(h.weeklyJob); err != nil {
		h.log.Error().Err(err).Msg("Weekly plan job failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Weekly plan generation finished",
	})
}

// systemStats samples CPU and RAM usage percentages. The CPU sample uses a
// short 100ms window so the endpoint stays fast for pollers.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
