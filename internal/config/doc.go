// Package config loads and validates relay configuration.
//
// Configuration is YAML with ${VAR} environment expansion:
//
//	server:
//	  addr: ":8080"
//	  allowed_origins: ["https://app.example.com"]
//	hub:
//	  queue_size: 256
//	  max_payload_bytes: 65536
//	rate_limit:
//	  burst: 20
//	  refill_interval: 1s
//	log:
//	  level: info
package config
