package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	WorkoutsReceived int   `json:"workouts_received"`
	WorkoutsInserted int   `json:"workouts_inserted"`
	SetsReceived     int   `json:"sets_received"`
	SetsInserted     int64 `json:"sets_inserted"`

	Message string `json:"message,omitempty"`
}
