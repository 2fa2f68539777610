package core

// Logger is implemented by any logging backend.
// expected args: error | map[string]interface{} | user.User (the user is attached to the log entry)
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
