/*
Package models defines the JSON report structures shared by the command-line
JSON output and the HTTP API.

Every big integer is encoded as a lowercase hexadecimal string with a "0x"
prefix, matching the command-line input format.
*/
package models

import "encoding/json"

// FactorEntry is one prime factor and its multiplicity.
type FactorEntry struct {
	Prime        string `json:"prime"`        // Prime factor, hexadecimal.
	Multiplicity uint   `json:"multiplicity"` // Exponent of the prime in n.
}

// FactorizationReport describes the factorization of one input.
type FactorizationReport struct {
	Input      string        `json:"input"`               // Input as given by the caller.
	N          string        `json:"n,omitempty"`         // Number actually factored, hexadecimal.
	MinusOne   bool          `json:"minus_one,omitempty"` // True when N is the input minus one.
	Status     string        `json:"status"`              // complete, stopped_at_max_factor, partial, not_found, invalid.
	Factors    []FactorEntry `json:"factors"`             // Factors found, in discovery order.
	Attempts   int           `json:"attempts"`            // Single-factor attempts issued.
	Error      string        `json:"error,omitempty"`     // Failure description, if any.
	DurationMS int64         `json:"duration_ms"`         // Wall-clock time spent on this input.
	Timestamp  string        `json:"timestamp"`           // Start time, RFC3339.
	Backend    string        `json:"backend,omitempty"`   // Backend that ran the attempts.
	Residual   string        `json:"residual,omitempty"`  // Unfactored cofactor, hexadecimal, when not 1.
}

// BatchReport is the document printed by a JSON batch run.
type BatchReport struct {
	Results   []FactorizationReport `json:"results"`
	Factored  int                   `json:"factored"`  // Inputs with at least one factor found.
	Attempted int                   `json:"attempted"` // Inputs processed, including invalid ones.
}

// BackendInfo describes a registered compute backend.
type BackendInfo struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Device string `json:"device,omitempty"`
}

// ErrorResponse is the body of an HTTP error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MarshalIndented renders v as indented JSON followed by a newline.
func MarshalIndented(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
