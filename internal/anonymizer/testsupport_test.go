package anonymizer

// noopLogger satisfies domain.Logger for tests.
type noopLogger struct{}

func (noopLogger) Info(msg string, fields ...interface{})             {}
func (noopLogger) Error(msg string, err error, fields ...interface{}) {}
func (noopLogger) Debug(msg string, fields ...interface{})            {}
func (noopLogger) Warn(msg string, fields ...interface{})             {}
