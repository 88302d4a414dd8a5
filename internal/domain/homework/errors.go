package homework

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind tags every recoverable failure of a poll cycle so callers can switch on
// a value instead of probing error types.
type Kind string

const (
	KindUnknown             Kind = "Unknown"
	KindResponseCode        Kind = "ResponseCodeError"
	KindDecode              Kind = "DecodeError"
	KindUnexpectedResponse  Kind = "UnexpectedResponse"
	KindEmptyResponse       Kind = "EmptyResponse"
	KindMissingHomeworksKey Kind = "MissingHomeworksKey"
	KindInvalidHomeworks    Kind = "InvalidHomeworksType"
	KindMissingHomeworkName Kind = "MissingHomeworkName"
	KindUnknownStatus       Kind = "UnknownStatus"
	KindSendMessage         Kind = "SendMessageError"
)

// Sentinels for errors.Is. Concrete errors are marked with one of these.
var (
	ErrResponseCode        = errors.New("unexpected response code")
	ErrDecode              = errors.New("response body is not valid JSON")
	ErrUnexpectedResponse  = errors.New("response is neither an object nor a list of objects")
	ErrEmptyResponse       = errors.New("response is an empty object")
	ErrMissingHomeworksKey = errors.New(`response has no "homeworks" key`)
	ErrInvalidHomeworks    = errors.New(`"homeworks" is not a list`)
	ErrMissingHomeworkName = errors.New("homework has no name")
	ErrUnknownStatus       = errors.New("homework status is unknown")
	ErrSendMessage         = errors.New("failed to send message")
)

var kinds = []struct {
	sentinel error
	kind     Kind
}{
	{ErrResponseCode, KindResponseCode},
	{ErrDecode, KindDecode},
	{ErrUnexpectedResponse, KindUnexpectedResponse},
	{ErrEmptyResponse, KindEmptyResponse},
	{ErrMissingHomeworksKey, KindMissingHomeworksKey},
	{ErrInvalidHomeworks, KindInvalidHomeworks},
	{ErrMissingHomeworkName, KindMissingHomeworkName},
	{ErrUnknownStatus, KindUnknownStatus},
	{ErrSendMessage, KindSendMessage},
}

// KindOf returns the kind of the first sentinel err matches, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindUnknown
}

// ResponseCodeError is returned by a Source when the API answers with anything
// other than 200 OK.
type ResponseCodeError struct {
	URL        string
	Headers    http.Header
	Params     url.Values
	StatusCode int
	Body       string
}

// NewResponseCodeError builds the error with the Authorization header redacted.
func NewResponseCodeError(endpoint string, headers http.Header, params url.Values, code int, body string) error {
	return errors.Mark(&ResponseCodeError{
		URL:        endpoint,
		Headers:    redactHeaders(headers),
		Params:     params,
		StatusCode: code,
		Body:       body,
	}, ErrResponseCode)
}

func (e *ResponseCodeError) Error() string {
	return fmt.Sprintf("request to %s, headers: %s, params: %s, got status code %d, body: %q",
		e.URL, formatHeaders(e.Headers), e.Params.Encode(), e.StatusCode, e.Body)
}

// NotFound reports whether the endpoint itself is missing.
func (e *ResponseCodeError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Summary is the short operator-facing line logged for this failure.
func (e *ResponseCodeError) Summary() string {
	if e.NotFound() {
		return fmt.Sprintf("Эндпоинт %s недоступен. Код ответа API: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("При обращении к эндпоинту %s получен некорректный ответ. Код ответа API: %d", e.URL, e.StatusCode)
}

// SendMessageError wraps a delivery failure of the messaging client.
type SendMessageError struct {
	ChatID string
	Cause  error
}

// NewSendMessageError wraps cause; it returns nil for a nil cause.
func NewSendMessageError(chatID string, cause error) error {
	if cause == nil {
		return nil
	}
	return errors.Mark(&SendMessageError{ChatID: chatID, Cause: cause}, ErrSendMessage)
}

func (e *SendMessageError) Error() string {
	return fmt.Sprintf("send message to chat %s: %v", e.ChatID, e.Cause)
}

func (e *SendMessageError) Unwrap() error { return e.Cause }

func redactHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out == nil {
		return http.Header{}
	}
	if v := out.Get("Authorization"); v != "" {
		scheme, _, _ := strings.Cut(v, " ")
		out.Set("Authorization", scheme+" ***")
	}
	return out
}

func formatHeaders(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(h[k], ", "))
	}
	return "{" + strings.Join(parts, "; ") + "}"
}
