// Package protocol implements the newline-delimited text protocol spoken
// with conversion workers over stdin/stdout.
//
//	request:  <id> <value> <from> <to>
//	success:  <id> <result>
//	failure:  <id> ERROR <message...>
//
// A worker announces itself with a single READY line before any request.
package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

// ReadySentinel is the line a worker prints once it accepts requests.
const ReadySentinel = "READY"

const errorToken = "ERROR"

// ErrMalformedLine is returned for lines that carry no correlation id.
var ErrMalformedLine = errors.New("malformed response line")

// Request is one conversion sent to a worker.
type Request struct {
	ID    string
	Value float64
	From  string
	To    string
}

// Response is a decoded worker reply. Exactly one of Value or Err is meaningful.
type Response struct {
	ID    string
	Value float64
	Err   error
}

// RemoteError carries the message of an `<id> ERROR <message>` line.
type RemoteError struct{ Message string }

func (e *RemoteError) Error() string { return e.Message }

// InvalidResultError reports a success line whose value is not a number.
type InvalidResultError struct{ Raw string }

func (e *InvalidResultError) Error() string { return fmt.Sprintf("invalid result %q", e.Raw) }

// EncodeRequest formats req as a newline-terminated request line.
func EncodeRequest(req Request) (string, error) {
	if req.ID == "" || strings.ContainsAny(req.ID, " \n") {
		return "", fmt.Errorf("invalid correlation id %q", req.ID)
	}
	for _, u := range []string{req.From, req.To} {
		if u == "" || strings.ContainsAny(u, " \n") {
			return "", fmt.Errorf("invalid unit %q", u)
		}
	}
	return req.ID + " " + strconv.FormatFloat(req.Value, 'g', -1, 64) + " " + req.From + " " + req.To + "\n", nil
}

// DecodeResponse parses one response line (without its newline).
// Lines with fewer than two tokens yield ErrMalformedLine; every other
// line yields a Response whose Err is set for ERROR payloads and for
// values that do not parse to a finite number.
func DecodeResponse(line string) (Response, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || parts[0] == "" {
		return Response{}, ErrMalformedLine
	}
	resp := Response{ID: parts[0]}
	if parts[1] == errorToken {
		msg := ""
		if len(parts) == 3 {
			msg = parts[2]
		}
		resp.Err = &RemoteError{Message: msg}
		return resp, nil
	}
	v, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		resp.Err = &InvalidResultError{Raw: parts[1]}
		return resp, nil
	}
	resp.Value = v
	return resp, nil
}

// EncodeResponse formats a worker reply; used by workers written in Go.
func EncodeResponse(id string, value float64, err error) string {
	if err != nil {
		return id + " " + errorToken + " " + strings.ReplaceAll(err.Error(), "\n", " ") + "\n"
	}
	return id + " " + strconv.FormatFloat(value, 'g', -1, 64) + "\n"
}

// DecodeRequest parses a request line; used by workers written in Go.
func DecodeRequest(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Request{}, ErrMalformedLine
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Request{ID: fields[0]}, fmt.Errorf("invalid value %q", fields[1])
	}
	return Request{ID: fields[0], Value: v, From: fields[2], To: fields[3]}, nil
}

// IDGenerator hands out correlation ids from a single process-wide counter.
// It is safe for concurrent use.
type IDGenerator struct {
	prefix string
	n      atomic.Uint64
}

// NewIDGenerator returns a generator producing prefix1, prefix2, ...
func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{prefix: prefix}
}

// Next returns the next unused id.
func (g *IDGenerator) Next() string {
	return g.prefix + strconv.FormatUint(g.n.Add(1), 10)
}
