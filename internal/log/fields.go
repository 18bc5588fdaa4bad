package log

// Field names shared across components so records stay queryable.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"

	FieldTranscript  = "transcript"
	FieldIntent      = "intent"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldExpenseID   = "expense_id"
	FieldEventKind   = "event_kind"
	FieldBatchSize   = "batch_size"
)

// Component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentEngine  = "engine"
	ComponentStorage = "storage"
	ComponentEvents  = "events"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentCache   = "cache"
)
