package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// headerCarrier lets OpenTelemetry propagators read and write AMQP headers,
// so a job's trace continues across the request and status queues.
type headerCarrier amqp.Table

func (h headerCarrier) Get(key string) string {
	s, _ := h[key].(string)
	return s
}

func (h headerCarrier) Set(key, value string) {
	h[key] = value
}

func (h headerCarrier) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}

// attemptFromHeaders estimates which delivery this is. Quorum queues count
// deliveries; classic queues only tell us about dead-lettering and redelivery.
func attemptFromHeaders(headers amqp.Table, redelivered bool) int {
	switch n := headers["x-delivery-count"].(type) {
	case int64:
		return int(n) + 1
	case int32:
		return int(n) + 1
	case int:
		return n + 1
	}
	if deaths, ok := headers["x-death"].([]interface{}); ok && len(deaths) > 0 {
		return len(deaths) + 1
	}
	if redelivered {
		return 2
	}
	return 1
}
