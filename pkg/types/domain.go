package types

import "time"

// HistoryEntry is one logged conversion.
type HistoryEntry struct {
	// Stable identifier (UUID).
	// example: 3f1c2a9e-0a7b-4a59-9d3e-1a2b3c4d5e6f
	ID string `json:"id" example:"3f1c2a9e-0a7b-4a59-9d3e-1a2b3c4d5e6f"`
	// example: 1
	InputValue float64 `json:"input_value" example:"1"`
	// example: meter
	FromUnit string `json:"from_unit" example:"meter"`
	// example: feet
	ToUnit string `json:"to_unit" example:"feet"`
	// example: 3.28084
	ConvertedValue float64 `json:"converted_value" example:"3.28084"`
	// example: local
	Mode string `json:"mode" example:"local"`
	// example: 0.42
	TimeTakenMS float64 `json:"time_taken_ms" example:"0.42"`
	// When the conversion was logged.
	Timestamp time.Time `json:"timestamp"`
}
