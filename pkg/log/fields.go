package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware keys)
	FieldUserID = "user_id"

	// Service
	FieldService = "service"

	// Discovery
	FieldCategory   = "category"
	FieldNamespace  = "namespace"
	FieldCacheKey   = "cache_key"
	FieldQuery      = "query"
	FieldGeneration = "generation"
	FieldStatusName = "state"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
