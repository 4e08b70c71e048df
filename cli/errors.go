package cli

// ErrorCode defines error types for CLI operations
type ErrorCode string

const (
	InvalidArguments ErrorCode = "InvalidArguments"
	InvalidConfig    ErrorCode = "InvalidConfig"
	OpenViewer       ErrorCode = "OpenViewer"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
