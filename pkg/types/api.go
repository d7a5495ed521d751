package types

// ConvertRequest is the payload of POST /api/convert.
type ConvertRequest struct {
	// Positive quantity to convert.
	// example: 1
	Value float64 `json:"value" example:"1"`
	// Source unit.
	// example: meter
	From string `json:"from" example:"meter"`
	// Target unit, same category as From.
	// example: feet
	To string `json:"to" example:"feet"`
	// Execution mode: local (alias node), cpp, python or java.
	// example: local
	Mode string `json:"mode" example:"local"`
}

// ConvertResponse is returned by POST /api/convert on success.
type ConvertResponse struct {
	// Converted value.
	// example: 3.28084
	Result float64 `json:"result" example:"3.28084"`
	// Time spent computing the result, in milliseconds (2 decimals).
	// example: 0.42
	TimeTakenMS float64 `json:"time_taken_ms" example:"0.42"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: Python worker is not available
	Error string `json:"error" example:"Python worker is not available"`
	// HTTP status code.
	// example: 503
	Code int `json:"code" example:"503"`
}

// UnitsResponse is returned by GET /api/units.
type UnitsResponse struct {
	// Units per category (length, mass, temperature).
	Categories map[string][]string `json:"categories"`
	// Accepted execution modes.
	// example: ["local","cpp","python","java"]
	Modes []string `json:"modes"`
}

// WorkerStatus summarizes one supervised worker for /status.
type WorkerStatus struct {
	// Worker kind.
	// example: cpp
	Kind string `json:"kind" example:"cpp"`
	// Lifecycle state: starting, ready, crashed, stopped, disabled.
	// example: ready
	State string `json:"state" example:"ready"`
	// True once the worker printed READY.
	// example: true
	Ready bool `json:"ready" example:"true"`
	// Process ID of the live generation.
	// example: 12345
	PID int `json:"pid,omitempty" example:"12345"`
	// Number of processes launched so far.
	// example: 1
	Generation uint64 `json:"generation" example:"1"`
	// Restarts scheduled after exits or failed launches.
	// example: 0
	Restarts uint64 `json:"restarts" example:"0"`
	// In-flight correlated requests.
	// example: 0
	Pending int `json:"pending_requests" example:"0"`
	// Reason of the last exit, if any.
	LastExit string `json:"last_exit,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Supervised workers.
	Workers []WorkerStatus `json:"workers"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Successful conversions since start.
	// example: 12
	ConversionsTotal uint64 `json:"conversions_total" example:"12"`
	// Failed conversions since start.
	// example: 1
	FailuresTotal uint64 `json:"failures_total" example:"1"`
	// Last conversion error observed (if any).
	LastError string `json:"last_error,omitempty"`
}
