package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with old ledger entries.
const (
	DomainRecord  = "harmonizer/record/v1"
	DomainDataset = "harmonizer/dataset/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordHash hashes the content of rec, ignoring the named properties.
// Generated identifiers are usually excluded so that two records with the
// same observations but different ids hash equal.
func RecordHash(rec *OutputRecord, exclude ...string) (string, error) {
	obj := rec.Map()
	for _, p := range exclude {
		delete(obj, p)
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RecordHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// DatasetHash hashes a whole harmonized dataset.
func DatasetHash(ds *HarmonizedDataset) (string, error) {
	canonical, err := MarshalCanonical(ds)
	if err != nil {
		return "", fmt.Errorf("DatasetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDataset, canonical), nil
}
