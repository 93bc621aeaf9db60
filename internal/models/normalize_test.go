package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseScanPayloadBucketsKey(t *testing.T) {
	body := []byte(`{"buckets":[{"bucket":"b1","exposure_state":"public"},{"bucket":"b2"}]}`)
	scan, err := ParseScanPayload("scan-1", body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scan.ScanID != "scan-1" {
		t.Errorf("ScanID = %q, want scan-1", scan.ScanID)
	}
	if len(scan.Buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(scan.Buckets))
	}
	if scan.Buckets[0].Bucket != "b1" || scan.Buckets[0].ExposureState != "public" {
		t.Errorf("unexpected first bucket: %+v", scan.Buckets[0])
	}
}

func TestParseScanPayloadResultsKey(t *testing.T) {
	scan, err := ParseScanPayload("x", []byte(`{"results":[{"bucket":"only"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scan.Buckets) != 1 || scan.Buckets[0].Bucket != "only" {
		t.Errorf("unexpected buckets: %+v", scan.Buckets)
	}
}

func TestParseScanPayloadBucketsWinsOverResults(t *testing.T) {
	scan, err := ParseScanPayload("x", []byte(`{"buckets":[{"bucket":"a"}],"results":[{"bucket":"b"},{"bucket":"c"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scan.Buckets) != 1 || scan.Buckets[0].Bucket != "a" {
		t.Errorf("expected buckets key to win, got %+v", scan.Buckets)
	}
}

func TestParseScanPayloadNonArrayBucketsFallsBackToResults(t *testing.T) {
	scan, err := ParseScanPayload("x", []byte(`{"buckets":"nope","results":[{"bucket":"r"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scan.Buckets) != 1 || scan.Buckets[0].Bucket != "r" {
		t.Errorf("expected results rows, got %+v", scan.Buckets)
	}
}

func TestParseScanPayloadOddShapes(t *testing.T) {
	for _, body := range []string{`{}`, `[]`, `null`, `"text"`, `{"buckets":null}`} {
		scan, err := ParseScanPayload("x", []byte(body))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", body, err)
			continue
		}
		if scan.Buckets == nil || len(scan.Buckets) != 0 {
			t.Errorf("%s: expected empty non-nil rows, got %#v", body, scan.Buckets)
		}
	}
}

func TestParseScanPayloadInvalidJSON(t *testing.T) {
	if _, err := ParseScanPayload("x", []byte(`{"buckets":[`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestDecodeBucketMalformedFields(t *testing.T) {
	rows, err := ParseBucketRows([]byte(`[
		{"bucket": 12, "bucket_name": "fallback", "public": "true", "public_exposure": 1,
		 "iam_public": null, "exposure_state": ["public"], "bindings": "allUsers"},
		42,
		"string-row"
	]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	r := rows[0]
	if r.Bucket != "fallback" {
		t.Errorf("Bucket = %q, want bucket_name fallback", r.Bucket)
	}
	if r.Public || r.PublicExposure || r.IAMPublic {
		t.Errorf("non-boolean flags must read as false: %+v", r)
	}
	if r.ExposureState != "" {
		t.Errorf("ExposureState = %q, want empty", r.ExposureState)
	}
	if len(r.Bindings) != 0 {
		t.Errorf("expected no bindings, got %+v", r.Bindings)
	}

	if rows[1].Name() != UnknownBucket || rows[2].Name() != UnknownBucket {
		t.Errorf("non-object rows should have unknown name")
	}
}

func TestDecodeBindingShapes(t *testing.T) {
	rows, err := ParseBucketRows([]byte(`[{"bucket":"b","bindings":[
		{"role":"roles/storage.objectViewer","member":"allUsers"},
		{"members":["user:a@example.com", 7, "group:allUsers"]},
		{"member": 5, "members": "allUsers"},
		"not-an-object"
	]}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := rows[0].Bindings
	if len(b) != 4 {
		t.Fatalf("expected 4 bindings, got %d", len(b))
	}
	if b[0].Member != "allUsers" || b[0].Role != "roles/storage.objectViewer" {
		t.Errorf("unexpected binding 0: %+v", b[0])
	}
	if got := b[1].Identities(); len(got) != 2 || got[1] != "group:allUsers" {
		t.Errorf("binding 1 identities = %v", got)
	}
	if got := b[2].Identities(); len(got) != 0 {
		t.Errorf("binding 2 identities = %v, want none", got)
	}
	if got := b[3].Identities(); len(got) != 0 {
		t.Errorf("binding 3 identities = %v, want none", got)
	}
}

func TestIdentitiesMemberFirst(t *testing.T) {
	b := IAMBinding{Member: "user:x", Members: []string{"user:y", "user:z"}}
	got := b.Identities()
	want := []string{"user:x", "user:y", "user:z"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Identities() = %v, want %v", got, want)
	}
}

func TestBucketRecordMarshalKeepsRaw(t *testing.T) {
	rows, err := ParseBucketRows([]byte(`[{"bucket":"b1","project":"p-1","extra":{"k":1}}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := json.Marshal(rows[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"bucket":"b1","project":"p-1","extra":{"k":1}}` {
		t.Errorf("unexpected encoding: %s", data)
	}
}

func TestBucketRecordMarshalWithoutRaw(t *testing.T) {
	rec := BucketRecord{Bucket: "b", Public: true}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"bucket":"b","public":true}` {
		t.Errorf("unexpected encoding: %s", data)
	}
}

func TestParseBucketRowsRejectsNonArray(t *testing.T) {
	if _, err := ParseBucketRows([]byte(`{"buckets":[]}`)); err == nil {
		t.Error("expected error for object")
	}
	if _, err := ParseBucketRows([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestEncodeBucketRowsNil(t *testing.T) {
	data, err := EncodeBucketRows(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("EncodeBucketRows(nil) = %s, want []", data)
	}
}

func TestParseRemediationPlan(t *testing.T) {
	plan, err := ParseRemediationPlan([]byte(`{
		"overall_risk": "HIGH",
		"reasons": ["world readable", 3],
		"recommended_fixes": "remove allUsers",
		"commands": ["gsutil iam ch -d allUsers gs://b", "gsutil pap set enforced gs://b"]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.RiskLevel() != RiskHigh {
		t.Errorf("RiskLevel() = %q, want high", plan.RiskLevel())
	}
	if len(plan.Reasons) != 1 {
		t.Errorf("expected non-strings dropped, got %v", plan.Reasons)
	}
	if len(plan.RecommendedFixes) != 0 {
		t.Errorf("expected mistyped list to be empty, got %v", plan.RecommendedFixes)
	}
	want := "gsutil iam ch -d allUsers gs://b\n\ngsutil pap set enforced gs://b"
	if plan.CommandBlock() != want {
		t.Errorf("CommandBlock() = %q, want %q", plan.CommandBlock(), want)
	}
}

func TestRemediationPlanRiskUnknown(t *testing.T) {
	plan, err := ParseRemediationPlan([]byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.RiskLevel() != RiskUnknown {
		t.Errorf("RiskLevel() = %q, want unknown", plan.RiskLevel())
	}
	var nilPlan *RemediationPlan
	if nilPlan.RiskLevel() != RiskUnknown || nilPlan.CommandBlock() != "" {
		t.Error("nil plan should degrade to unknown risk and no commands")
	}
}

func TestParseRemediationPlanInvalid(t *testing.T) {
	if _, err := ParseRemediationPlan([]byte(`<html>`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
