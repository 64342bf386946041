package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldUpdateID    = "update_id"
	FieldUserID      = "user_id"
	FieldChatID      = "chat_id"
	FieldAuthor      = "author"
	FieldState       = "state"
	FieldNextState   = "next_state"
	FieldInput       = "input"
	FieldCommand     = "command"
	FieldFlow        = "flow"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldDuration    = "duration_ms"
	FieldTxID        = "transaction_id"
	FieldAmount      = "amount"
	FieldKind        = "kind"
	FieldCategory    = "category"
	FieldPeriodStart = "period_start"
	FieldPeriodEnd   = "period_end"
	FieldCount       = "count"
	FieldSheetsRef   = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentBot          = "bot"
	ComponentConversation = "conversation"
	ComponentReport       = "report"
	ComponentSession      = "session"
	ComponentStorage      = "storage"
	ComponentTelegram     = "telegram"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
	ComponentSheets       = "sheets"
	ComponentHealth       = "health"
	ComponentBackend      = "backend"
	ComponentRateLimit    = "rate_limit"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpQuery    = "query"
	OpDispatch = "dispatch"
	OpReply    = "reply"
	OpPublish  = "publish"
	OpSync     = "sync"
	OpValidate = "validate"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithUser adds the chat user identity
func (f LogFields) WithUser(userID int64, author string) LogFields {
	f[FieldUserID] = userID
	if author != "" {
		f[FieldAuthor] = author
	}
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransition adds the state before and after a conversation step
func (f LogFields) WithTransition(from, to string) LogFields {
	f[FieldState] = from
	f[FieldNextState] = to
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(id int64, amount, kind, category string) LogFields {
	if id != 0 {
		f[FieldTxID] = id
	}
	f[FieldAmount] = amount
	f[FieldKind] = kind
	f[FieldCategory] = category
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
