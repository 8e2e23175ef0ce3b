package device

// DeviceError represents instrument-related errors
type DeviceError struct {
	Kind    Kind   `json:"kind"`
	Host    string `json:"host"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *DeviceError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DeviceError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeCapture     = "CAPTURE_FAILED"
	ErrCodePush        = "PUSH_FAILED"
	ErrCodeClosed      = "CLOSED"
	ErrCodeUnsupported = "UNSUPPORTED_DEVICE"
)

// NewDeviceError creates a new device error
func NewDeviceError(kind Kind, host, code, message string, cause error) *DeviceError {
	return &DeviceError{
		Kind:    kind,
		Host:    host,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
