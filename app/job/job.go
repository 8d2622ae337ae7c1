package job

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var (
	// ErrDecode is returned for any payload that is not a well-formed email job.
	ErrDecode = errors.New("decode email job")
	// ErrInvalid is returned for a job that could never be dispatched.
	ErrInvalid = errors.New("invalid email job")
)

const (
	keyTo      = "to"
	keySubject = "subject"
	keyBody    = "body"
)

// EmailJob is the unit of work carried through the channel.
type EmailJob struct {
	To      string
	Subject string
	Body    string
}

// wireJob fixes the key order of the encoded payload.
type wireJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Encode serializes the job as a flat JSON object with keys to, subject and body.
func Encode(j EmailJob) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(wireJob{To: j.To, Subject: j.Subject, Body: j.Body}); err != nil {
		return nil, fmt.Errorf("encode email job: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Validate reports whether the job can be dispatched.
func (j EmailJob) Validate() error {
	if j.To == "" {
		return fmt.Errorf("%w: to is empty", ErrInvalid)
	}
	return nil
}

// Decode parses a payload produced by Encode. Anything else fails with ErrDecode.
//
// Keys are matched exactly and may appear once each.
func Decode(data []byte) (EmailJob, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return EmailJob{}, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	if !utf8.Valid(data) {
		return EmailJob{}, fmt.Errorf("%w: payload is not valid UTF-8", ErrDecode)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return EmailJob{}, fmt.Errorf("%w: payload is not a JSON object", ErrDecode)
	}

	fields := make(map[string]string, 3)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return EmailJob{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		key, _ := tok.(string)
		if key != keyTo && key != keySubject && key != keyBody {
			return EmailJob{}, fmt.Errorf("%w: unknown key %q", ErrDecode, key)
		}
		if _, seen := fields[key]; seen {
			return EmailJob{}, fmt.Errorf("%w: duplicate key %q", ErrDecode, key)
		}

		var value *string
		if err := dec.Decode(&value); err != nil {
			return EmailJob{}, fmt.Errorf("%w: %s: %v", ErrDecode, key, err)
		}
		if value == nil {
			return EmailJob{}, fmt.Errorf("%w: %s is null", ErrDecode, key)
		}
		fields[key] = *value
	}
	if _, err := dec.Token(); err != nil {
		return EmailJob{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return EmailJob{}, fmt.Errorf("%w: trailing data after job object", ErrDecode)
	}

	for _, key := range []string{keyTo, keySubject, keyBody} {
		if _, ok := fields[key]; !ok {
			return EmailJob{}, fmt.Errorf("%w: missing %s", ErrDecode, key)
		}
	}

	j := EmailJob{To: fields[keyTo], Subject: fields[keySubject], Body: fields[keyBody]}
	if err := j.Validate(); err != nil {
		return EmailJob{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return j, nil
}
