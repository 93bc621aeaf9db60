package models

import "encoding/json"

// UnknownBucket is displayed for records that carry no bucket name.
const UnknownBucket = "(unknown bucket)"

// ScanResult is one backend scan as the client sees it.
type ScanResult struct {
	ScanID  string         `json:"scan_id"`
	Buckets []BucketRecord `json:"buckets"`

	// FromCache is set when the scan was rebuilt from locally cached rows
	// because no backend endpoint knew the scan.
	FromCache bool `json:"from_cache,omitempty"`
}

// BucketRecord is one scanned bucket's access-control snapshot.
//
// Producers have emitted the "is public" fact under several field names
// across backend versions, so every flag is optional and false unless the
// payload carried the JSON boolean true.
type BucketRecord struct {
	Bucket         string
	ExposureState  string
	Public         bool
	PublicExposure bool
	IAMPublic      bool
	Bindings       []IAMBinding

	// Raw is the record exactly as received. It is what gets posted to the
	// reasoning endpoint, so fields the client does not model survive.
	Raw json.RawMessage
}

// Name returns the display name of the bucket.
func (r BucketRecord) Name() string {
	if r.Bucket == "" {
		return UnknownBucket
	}
	return r.Bucket
}

// IAMBinding is an access-control entry. Upstream producers use either a
// single member or a members list, sometimes both.
type IAMBinding struct {
	Role    string   `json:"role,omitempty"`
	Member  string   `json:"member,omitempty"`
	Members []string `json:"members,omitempty"`
}

// Identities returns member followed by all entries of members.
func (b IAMBinding) Identities() []string {
	ids := make([]string, 0, len(b.Members)+1)
	if b.Member != "" {
		ids = append(ids, b.Member)
	}
	return append(ids, b.Members...)
}

// bucketWire is the canonical encoding used when a record has no Raw form.
type bucketWire struct {
	Bucket         string       `json:"bucket,omitempty"`
	ExposureState  string       `json:"exposure_state,omitempty"`
	Public         bool         `json:"public,omitempty"`
	PublicExposure bool         `json:"public_exposure,omitempty"`
	IAMPublic      bool         `json:"iam_public,omitempty"`
	Bindings       []IAMBinding `json:"bindings,omitempty"`
}

// MarshalJSON re-emits the original payload when there is one.
func (r BucketRecord) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(bucketWire{
		Bucket:         r.Bucket,
		ExposureState:  r.ExposureState,
		Public:         r.Public,
		PublicExposure: r.PublicExposure,
		IAMPublic:      r.IAMPublic,
		Bindings:       r.Bindings,
	})
}

// UnmarshalJSON never fails on a syntactically valid value: unknown shapes
// degrade to zero values.
func (r *BucketRecord) UnmarshalJSON(data []byte) error {
	*r = decodeBucket(data)
	return nil
}

// UnmarshalJSON accepts member/members of any type and keeps only strings.
func (b *IAMBinding) UnmarshalJSON(data []byte) error {
	*b = decodeBinding(data)
	return nil
}
