package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Recorder is an in-memory http.ResponseWriter. Handlers use it to run the
// bearer server on a synthetic request and inspect the result before
// relaying it.
type Recorder struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func NewRecorder() *Recorder {
	return &Recorder{header: http.Header{}}
}

func (rec *Recorder) Header() http.Header {
	return rec.header
}

func (rec *Recorder) Write(p []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec.body.Write(p)
}

func (rec *Recorder) WriteHeader(status int) {
	if rec.status == 0 {
		rec.status = status
	}
}

// Status returns the recorded status, 200 if the handler wrote nothing.
func (rec *Recorder) Status() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

func (rec *Recorder) Body() []byte {
	return rec.body.Bytes()
}

// DecodeJSON unmarshals the recorded body into v.
func (rec *Recorder) DecodeJSON(v any) error {
	return json.Unmarshal(rec.body.Bytes(), v)
}

// Flush copies the recorded response to w.
func (rec *Recorder) Flush(w http.ResponseWriter) error {
	header := w.Header()
	for key, value := range rec.header {
		header[key] = value
	}
	w.WriteHeader(rec.Status())
	_, err := w.Write(rec.body.Bytes())
	return err
}
