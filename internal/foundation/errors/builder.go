package errors

// ErrorBuilder assembles a ClassifiedError. Start from one of the category
// constructors below and finish with Build.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error in category with the default severity (error) and
// no retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
	}}
}

// WithCause records the underlying error; errors.Is and errors.As see through it.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

// WithContext attaches a detail that is logged with the error.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.with(key, value)
	return b
}

// Fatal marks the error as ending the command.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

// Warning marks the error as degrading an optional sink only.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	b.err.severity = SeverityWarning
	return b
}

// Retryable allows retry.Policy to try the operation again.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	b.err.retry = RetryBackoff
	return b
}

// UserAction marks errors only the user can fix (bad flags, bad files).
func (b *ErrorBuilder) UserAction() *ErrorBuilder {
	b.err.retry = RetryUserAction
	return b
}

// Build returns the error. The builder must not be reused afterwards.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	return &e
}

// ConfigError reports an unreadable or invalid settings file.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().UserAction()
}

// ValidationError reports a value that fails validation.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal().UserAction()
}

// FileSystemError reports a failed copy, delete, rename or listing.
// Packaging steps record these and move on.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// ArchiveError reports a failure creating the firmware zip.
func ArchiveError(message string) *ErrorBuilder {
	return NewError(CategoryArchive, message)
}

// BuildError summarises a packaging run with failed steps (strict mode).
func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message).Fatal()
}

// HistoryError reports a run-history database failure.
func HistoryError(message string) *ErrorBuilder {
	return NewError(CategoryHistory, message).Warning()
}

// NotifyError reports a NATS failure; these are retried.
func NotifyError(message string) *ErrorBuilder {
	return NewError(CategoryNotify, message).Warning().Retryable()
}

// GitError reports a failure reading repository state.
func GitError(message string) *ErrorBuilder {
	return NewError(CategoryGit, message).Warning()
}

// RuntimeError reports a failure of the process environment (watchers, signals).
func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).Fatal()
}

// InternalError reports a bug.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
