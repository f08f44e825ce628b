package client

import (
	"context"

	"go.uber.org/zap"
)

// Level is the severity of a notification.
type Level string

// Notification levels.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// ErrorMessageLoad is stored in State.Error after a failed list.
const ErrorMessageLoad = "Failed to load items."

// Fixed notification texts. They never carry server error details.
const (
	MessageCreated      = "Item created successfully."
	MessageUpdated      = "Item updated successfully."
	MessageDeleted      = "Item deleted successfully."
	MessageCreateFailed = "Failed to create item."
	MessageUpdateFailed = "Failed to update item."
	MessageDeleteFailed = "Failed to delete item."
)

var messages = map[Operation]map[Level]string{
	OperationList: {
		LevelError: ErrorMessageLoad,
	},
	OperationCreate: {
		LevelSuccess: MessageCreated,
		LevelError:   MessageCreateFailed,
	},
	OperationUpdate: {
		LevelSuccess: MessageUpdated,
		LevelError:   MessageUpdateFailed,
	},
	OperationDelete: {
		LevelSuccess: MessageDeleted,
		LevelError:   MessageDeleteFailed,
	},
}

// Notification is a transient user-facing message about one operation.
type Notification struct {
	Level      Level
	Operation  Operation
	Collection string
	Message    string
	// Err is the *OpError behind an error notification, nil on success.
	Err error
}

func newNotification(level Level, op Operation, collection string, err error) Notification {
	return Notification{
		Level:      level,
		Operation:  op,
		Collection: collection,
		Message:    messages[op][level],
		Err:        err,
	}
}

// Notifier observes operation outcomes. It must not block for long since it
// is called inline with the operation.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls fn.
func (fn NotifierFunc) Notify(ctx context.Context, n Notification) {
	fn(ctx, n)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Notification) {}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier writing to logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs successes at Info and failures at Error with their cause.
func (n *LogNotifier) Notify(_ context.Context, notification Notification) {
	fields := []zap.Field{
		zap.String("operation", string(notification.Operation)),
		zap.String("collection", notification.Collection),
	}

	if notification.Level == LevelError {
		n.logger.Error(notification.Message, append(fields, zap.Error(notification.Err))...)
		return
	}

	n.logger.Info(notification.Message, fields...)
}

// MultiNotifier forwards each notification to every notifier in order.
type MultiNotifier []Notifier

// Notify implements Notifier.
func (m MultiNotifier) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

var (
	_ Notifier = NotifierFunc(nil)
	_ Notifier = NopNotifier{}
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = MultiNotifier(nil)
)
