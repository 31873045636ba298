package controllers

import (
	"context"
	"time"
)

// Pinger is anything whose connectivity can be probed, the database here.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db          Pinger
	environment string
	port        string
}

func NewHealthController(db Pinger, environment, port string) *HealthController {
	return &HealthController{db: db, environment: environment, port: port}
}

type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Database    string    `json:"database"`
	Environment string    `json:"environment"`
	Port        string    `json:"port"`
}

func (h *HealthController) Check(ctx context.Context) HealthStatus {
	state := "connected"
	if h.db == nil {
		state = "disconnected"
	} else {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			state = "disconnected"
		}
	}
	return HealthStatus{
		Status:      "ok",
		Timestamp:   time.Now().UTC(),
		Database:    state,
		Environment: h.environment,
		Port:        h.port,
	}
}
