package routegen

// Status is the status of the route generator service
type Status struct {
	// The number of routes that have been generated
	GeneratedRoutes int64 `json:"generated_routes"`

	// How many of them are the synthetic fallback
	FallbackRoutes int64 `json:"fallback_routes"`

	// Requests that ended in an error
	FailedRequests int64 `json:"failed_requests"`

	// Whether or not a generation is in progress
	GenerationInProgress bool  `json:"generation_in_progress"`
	ActiveGenerations    int64 `json:"active_generations"`

	// Name of the routing backend
	RoutingProvider string `json:"routing_provider"`
}
