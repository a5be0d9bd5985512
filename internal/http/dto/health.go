package dto

// HealthResponse es el envelope de /health y /health/ready.
type HealthResponse struct {
	Success bool       `json:"success"`
	Data    HealthData `json:"data"`
}

type HealthData struct {
	Status    string            `json:"status"` // healthy | unavailable
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime,omitempty"`
	Memory    *MemoryUsage      `json:"memory,omitempty"`
	ActiveKID string            `json:"active_kid,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

type MemoryUsage struct {
	Sys        string `json:"sys"`
	HeapAlloc  string `json:"heapAlloc"`
	HeapSys    string `json:"heapSys"`
	StackInuse string `json:"stackInuse"`
	Goroutines int    `json:"goroutines"`
}
