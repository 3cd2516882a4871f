package channel

import (
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/models"
)

var validate = validator.New()

// Encode marshals a payload into envelope data. A nil payload encodes as no data.
func Encode(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}
	return b, nil
}

// Decode unmarshals envelope data into out and validates struct tags.
func Decode(data json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(apperrors.ErrInvalidMessage, err.Error())
	}
	if !isStruct(out) {
		return nil
	}
	if err := validate.Struct(out); err != nil {
		return errors.Wrap(apperrors.ErrInvalidMessage, err.Error())
	}
	return nil
}

// DecodeEnvelope parses and validates a serialized envelope.
func DecodeEnvelope(b []byte) (models.Envelope, error) {
	var env models.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return models.Envelope{}, errors.Wrap(apperrors.ErrInvalidMessage, err.Error())
	}
	if err := validate.Struct(env); err != nil {
		return models.Envelope{}, errors.Wrap(apperrors.ErrInvalidMessage, err.Error())
	}
	return env, nil
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func errorPayload(err error) models.ErrorPayload {
	p := models.ErrorPayload{Code: string(apperrors.CodeOf(err)), Message: err.Error()}
	if reason, ok := apperrors.SkipReason(err); ok {
		p.Message = reason
	}
	return p
}

func payloadError(p models.ErrorPayload) error {
	return apperrors.FromCode(apperrors.Code(p.Code), p.Message)
}
