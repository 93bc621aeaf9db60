package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseScanPayload normalizes a scan body into a ScanResult. Rows are read
// from "buckets", else "results"; any other shape yields no rows. Only
// invalid JSON is an error.
func ParseScanPayload(scanID string, body []byte) (*ScanResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		if !json.Valid(body) {
			return nil, fmt.Errorf("decode scan payload: %w", err)
		}
		fields = nil
	}

	rows, ok := decodeRows(fields["buckets"])
	if !ok {
		rows, _ = decodeRows(fields["results"])
	}
	if rows == nil {
		rows = []BucketRecord{}
	}

	return &ScanResult{ScanID: scanID, Buckets: rows}, nil
}

// ParseBucketRows decodes a cached JSON array of bucket records.
func ParseBucketRows(data []byte) ([]BucketRecord, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("cached rows are not valid JSON")
	}
	rows, ok := decodeRows(data)
	if !ok {
		return nil, fmt.Errorf("cached rows are not a JSON array")
	}
	return rows, nil
}

// EncodeBucketRows is the inverse of ParseBucketRows.
func EncodeBucketRows(rows []BucketRecord) ([]byte, error) {
	if rows == nil {
		rows = []BucketRecord{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode bucket rows: %w", err)
	}
	return data, nil
}

// decodeRows reports ok only when raw is a JSON array.
func decodeRows(raw json.RawMessage) ([]BucketRecord, bool) {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil, false
	}
	rows := make([]BucketRecord, 0, len(items))
	for _, item := range items {
		rows = append(rows, decodeBucket(item))
	}
	return rows, true
}

func decodeBucket(data []byte) BucketRecord {
	rec := BucketRecord{Raw: compact(data)}

	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) != nil {
		return rec
	}

	rec.Bucket = fieldString(fields, "bucket")
	if rec.Bucket == "" {
		rec.Bucket = fieldString(fields, "bucket_name")
	}
	rec.ExposureState = fieldString(fields, "exposure_state")
	rec.Public = fieldTrue(fields, "public")
	rec.PublicExposure = fieldTrue(fields, "public_exposure")
	rec.IAMPublic = fieldTrue(fields, "iam_public")

	var bindings []json.RawMessage
	if raw, ok := fields["bindings"]; ok && json.Unmarshal(raw, &bindings) == nil {
		rec.Bindings = make([]IAMBinding, 0, len(bindings))
		for _, b := range bindings {
			rec.Bindings = append(rec.Bindings, decodeBinding(b))
		}
	}

	return rec
}

func decodeBinding(data []byte) IAMBinding {
	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) != nil {
		return IAMBinding{}
	}
	return IAMBinding{
		Role:    fieldString(fields, "role"),
		Member:  fieldString(fields, "member"),
		Members: stringList(fields["members"]),
	}
}

func fieldString(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func fieldTrue(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	var b bool
	if json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}

// stringList keeps the string elements of a JSON array and drops the rest.
func stringList(raw json.RawMessage) []string {
	out := []string{}
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

func compact(data []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil
	}
	return buf.Bytes()
}
