// This file implements a builder for HTMX responses: HX-Trigger events,
// headers and HTML error fragments.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMXResponseBuilder accumulates status, headers, HTMX events and a body
// and writes them in one go.
type HTMXResponseBuilder struct {
	status       int
	header       http.Header
	events       map[string]any
	settleEvents map[string]any
	body         []byte
}

// NewHTMXResponse starts a 200 response.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:       http.StatusOK,
		header:       http.Header{},
		events:       map[string]any{},
		settleEvents: map[string]any{},
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger fires name on the client as soon as the response is received.
func (b *HTMXResponseBuilder) Trigger(name string, detail any) *HTMXResponseBuilder {
	b.events[name] = detail
	return b
}

// TriggerAfterSettle fires name once the swapped content has settled.
func (b *HTMXResponseBuilder) TriggerAfterSettle(name string, detail any) *HTMXResponseBuilder {
	b.settleEvents[name] = detail
	return b
}

// TriggerSummaryUpdated announces the selection now on screen. It fires
// after settle so listeners see the new fragment.
func (b *HTMXResponseBuilder) TriggerSummaryUpdated(year, month int, unit string) *HTMXResponseBuilder {
	return b.TriggerAfterSettle("summary:updated", map[string]any{"year": year, "month": month, "unit": unit})
}

// NotificationType selects the toast style.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
)

// TriggerNotification shows a toast for durationMs milliseconds.
func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger("show-notification", map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// PushURL sets HX-Push-Url so the browser location follows the selection.
func (b *HTMXResponseBuilder) PushURL(u string) *HTMXResponseBuilder {
	return b.Header("HX-Push-Url", u)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyHTML sets an HTML body and its content type.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(html)
	return b
}

// Write sends the response. Events that fail to encode are dropped.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	h := w.Header()
	for name, values := range b.header {
		h[name] = append([]string(nil), values...)
	}
	setEvents(h, "HX-Trigger", b.events)
	setEvents(h, "HX-Trigger-After-Settle", b.settleEvents)

	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

func setEvents(h http.Header, name string, events map[string]any) {
	if len(events) == 0 {
		return
	}
	if data, err := json.Marshal(events); err == nil {
		h.Set(name, string(data))
	}
}

// ErrorResponse renders message as an error banner fragment.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		BodyHTML(`<div class="banner banner--error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// MethodNotAllowedError is an empty 405 carrying the Allow header.
func MethodNotAllowedError(allowed string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowed)
}

// writeJSON writes v indented with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

type apiError struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}
