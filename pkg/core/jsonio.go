package core

import (
	"encoding/json"
	"io"
)

// MarshalResult pretty-prints a scan result as JSON for humans or pipelines.
// Excerpts are already redacted; the raw matched text never serializes.
func MarshalResult(w io.Writer, res *ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// UnmarshalResult decodes a result produced by MarshalResult, useful for
// ingestion tests.
func UnmarshalResult(r io.Reader) (*ScanResult, error) {
	var res ScanResult
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
