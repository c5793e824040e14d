package logger

// Logger provides structured logging keyed by pipeline component
type Logger interface {
	Info(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Debug(component, message string, fields map[string]interface{})
}

// Fields is shorthand for the field map every Logger method accepts.
type Fields = map[string]interface{}
