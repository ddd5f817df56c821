package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-forecast/internal/models"
)

// FromProtoForecastRequest maps the gRPC payload into a domain ForecastRequest.
func FromProtoForecastRequest(req *structpb.Struct) (models.ForecastRequest, error) {
	var out models.ForecastRequest
	if err := decodeStruct(req, &out); err != nil {
		return models.ForecastRequest{}, err
	}
	return out, nil
}

// FromProtoFitRequest maps the gRPC payload into a domain FitRequest.
func FromProtoFitRequest(req *structpb.Struct) (models.FitRequest, error) {
	var out models.FitRequest
	if err := decodeStruct(req, &out); err != nil {
		return models.FitRequest{}, err
	}
	return out, nil
}

// FromProtoLifetimeRequest maps the gRPC payload into a domain LifetimeRequest.
func FromProtoLifetimeRequest(req *structpb.Struct) (models.LifetimeRequest, error) {
	var out models.LifetimeRequest
	if err := decodeStruct(req, &out); err != nil {
		return models.LifetimeRequest{}, err
	}
	return out, nil
}

// ToProtoStruct converts any JSON-serialisable domain value into a Struct.
func ToProtoStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("convert response: %w", err)
	}
	return out, nil
}

// decodeStruct round-trips through JSON and rejects unknown fields. Struct
// numbers are doubles, so integral fields such as day must carry integral
// values.
func decodeStruct(req *structpb.Struct, dst any) error {
	if req == nil {
		return fmt.Errorf("request is nil")
	}
	data, err := protojson.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
