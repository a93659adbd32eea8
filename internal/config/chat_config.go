package config

import "time"

const (
	// Burst limit: a sender may post at most BurstMessageLimit-1 messages into
	// one conversation per rolling BurstWindow, measured from the
	// BurstMessageLimit-th most recent message.
	BurstMessageLimit = 10
	BurstWindow       = 60 * time.Second

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100

	// WebSocket
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 4096
	SendBufferSize = 256

	// Auth
	TokenTTL  = 72 * time.Hour
	JWTIssuer = "petnet-service"

	// Kafka topic the push-dispatch worker consumes.
	PushTopic = "push-notifications"

	// Redis channel used to relay realtime events between instances.
	RelayChannel = "realtime:events"
)
