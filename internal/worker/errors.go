package worker

import "net/http"

// unavailableError: the worker process is missing or has not printed READY.
type unavailableError struct{ kind Kind }

func (e unavailableError) Error() string {
	return e.kind.DisplayName() + " worker is not available"
}
func (e unavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrUnavailable constructs the error returned when a worker cannot take requests.
func ErrUnavailable(k Kind) error { return unavailableError{kind: k} }

// IsUnavailable reports whether err indicates a missing or not-ready worker.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}

// timeoutError: no response arrived before the request deadline.
type timeoutError struct{ kind Kind }

func (e timeoutError) Error() string   { return e.kind.DisplayName() + " conversion timeout" }
func (e timeoutError) StatusCode() int { return http.StatusGatewayTimeout }

// IsTimeout reports whether err is a worker request timeout.
func IsTimeout(err error) bool {
	_, ok := err.(timeoutError)
	return ok
}

// protocolError: the worker answered with ERROR, an unparsable value,
// or the request line could not be delivered.
type protocolError struct {
	kind Kind
	msg  string
}

func (e protocolError) Error() string   { return e.msg }
func (e protocolError) StatusCode() int { return http.StatusBadGateway }

// IsProtocol reports whether err came from a worker reply or a failed write.
func IsProtocol(err error) bool {
	_, ok := err.(protocolError)
	return ok
}

// crashError: the process exited while the request was pending.
type crashError struct {
	kind Kind
	msg  string
}

func (e crashError) Error() string   { return e.msg }
func (e crashError) StatusCode() int { return http.StatusBadGateway }

// IsCrash reports whether err indicates the worker exited mid-request.
func IsCrash(err error) bool {
	_, ok := err.(crashError)
	return ok
}
