package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldReferer     = "referer"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldOwnerID     = "owner_id"
	FieldExpenseID   = "expense_id"
	FieldTitle       = "title"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"

	FieldRejectedTotal = "rejected_total"
	FieldActiveClients = "active_clients"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentExpense   = "expense"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTemplate  = "template"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSummary  = "summary"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields builds structured attributes in insertion order.
type LogFields []any

func NewFields() LogFields {
	return make(LogFields, 0, 16)
}

func (f LogFields) add(k string, v any) LogFields {
	return append(f, k, v)
}

func (f LogFields) WithComponent(component string) LogFields {
	return f.add(FieldComponent, component)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID == "" {
		return f
	}
	return f.add(FieldRequestID, requestID)
}

func (f LogFields) WithClientIP(ip string) LogFields {
	return f.add(FieldClientIP, ip)
}

// WithError adds the error message; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err == nil {
		return f
	}
	return f.add(FieldError, err.Error())
}

func (f LogFields) WithOperation(op string) LogFields {
	return f.add(FieldOperation, op)
}

func (f LogFields) WithOwner(ownerID string) LogFields {
	return f.add(FieldOwnerID, ownerID)
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(id, title string, amountCents int64, category string) LogFields {
	return f.add(FieldExpenseID, id).
		add(FieldTitle, title).
		add(FieldAmountCents, amountCents).
		add(FieldCategory, category)
}

// WithRateLimit adds the limiter's counters.
func (f LogFields) WithRateLimit(rejected int64, activeClients int) LogFields {
	return f.add(FieldRejectedTotal, rejected).add(FieldActiveClients, activeClients)
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f = f.add(FieldMethod, method).add(FieldPath, path)
	if query != "" {
		f = f.add(FieldQuery, query)
	}
	if userAgent != "" {
		f = f.add(FieldUserAgent, userAgent)
	}
	if referer != "" {
		f = f.add(FieldReferer, referer)
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	return f.add(FieldStatusCode, statusCode).
		add(FieldDuration, durationMs).
		add(FieldSuccess, statusCode < 400)
}

// ToSlice returns the attributes as slog key/value pairs.
func (f LogFields) ToSlice() []any {
	return []any(f)
}
