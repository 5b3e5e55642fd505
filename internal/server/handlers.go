package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/agbru/pm1factor/internal/config"
	apperrors "github.com/agbru/pm1factor/internal/errors"
	"github.com/agbru/pm1factor/internal/orchestration"
	"github.com/agbru/pm1factor/internal/service"
	"github.com/agbru/pm1factor/pkg/models"
)

// handleHealth responds to health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]any{
		"status":    "healthy",
		"backend":   s.service.BackendName(),
		"timestamp": time.Now().Unix(),
	}
	s.writeJSONResponse(w, http.StatusOK, response)
}

// handleBackends lists the registered backends and marks the one serving
// requests.
func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	active := s.service.BackendName()
	backends := make([]models.BackendInfo, len(s.backends))
	for i, info := range s.backends {
		info.Active = info.Name == active
		backends[i] = info
	}
	s.writeJSONResponse(w, http.StatusOK, backends)
}

// factorParams are the decoded parameters of a /factor request.
type factorParams struct {
	input     orchestration.Input
	maxFactor *big.Int
}

// handleFactor factors the hexadecimal parameter 'n'. Optional parameters
// are 'minus_one' and 'max_factor_bits', which overrides the server default;
// 0 disables the early stop. Search failures are reported in the body of a
// 200 reply together with the partial factorization.
func (s *Server) handleFactor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	params, err := s.parseFactorParams(r)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	started := time.Now()
	res, err := s.service.Factorize(ctx, params.input.N, params.maxFactor)
	switch {
	case errors.Is(err, service.ErrInputTooLarge):
		s.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Value of 'n' exceeds the maximum allowed size (%d bits).", s.securityConfig.MaxInputBits))
		return
	case apperrors.IsContextError(err):
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "Factorization did not finish in time")
		return
	}

	s.writeJSONResponse(w, http.StatusOK,
		orchestration.Report(params.input, res, err, s.service.BackendName(), started))
}

func (s *Server) parseFactorParams(r *http.Request) (factorParams, error) {
	raw := r.FormValue("n")
	if raw == "" {
		return factorParams{}, errors.New("Missing 'n' parameter")
	}
	if limit := s.securityConfig.MaxInputBits; limit > 0 && len(raw) > limit/4+2 {
		return factorParams{}, fmt.Errorf("Value of 'n' exceeds the maximum allowed size (%d bits).", limit)
	}

	params := factorParams{input: orchestration.Input{Raw: raw}}
	if v := r.FormValue("minus_one"); v != "" {
		minusOne, err := strconv.ParseBool(v)
		if err != nil {
			return factorParams{}, errors.New("Invalid 'minus_one' parameter: must be a boolean")
		}
		params.input.MinusOne = minusOne
	}

	n, err := orchestration.ParseInput(raw, params.input.MinusOne)
	if err != nil {
		return factorParams{}, fmt.Errorf("Invalid 'n' parameter: %w", err)
	}
	params.input.N = n

	bits := s.cfg.MaxFactorBits
	if v := r.FormValue("max_factor_bits"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil || parsed > uint64(config.MaxFactorBitsLimit) {
			return factorParams{}, fmt.Errorf("Invalid 'max_factor_bits' parameter: must be between 0 and %d", config.MaxFactorBitsLimit)
		}
		bits = uint(parsed)
	}
	if bits > 0 {
		params.maxFactor = new(big.Int).Lsh(big.NewInt(1), bits)
	}
	return params, nil
}

// writeJSONResponse writes data as JSON with the given status code.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding JSON response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
