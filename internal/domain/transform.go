package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrMissingConditions is returned when a request reaches the engine without
// current weather conditions.
var ErrMissingConditions = errors.New("current weather conditions are required")

// ParseDecisionRequest deserializes a RawEvent's value into a DecisionRequest.
// The message timestamp stands in for a missing observation time.
func ParseDecisionRequest(raw RawEvent) (DecisionRequest, error) {
	var req DecisionRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return DecisionRequest{}, fmt.Errorf("parse decision request: %w", err)
	}
	if req.ObservedAt.IsZero() {
		req.ObservedAt = raw.Timestamp.UTC()
	}
	req = NormalizeRequest(req)
	if err := ValidateRequest(req); err != nil {
		return DecisionRequest{}, err
	}
	return req, nil
}

// NormalizeRequest fills defaults: individual mode, and a crop coefficient
// from the crop table (or 1.0) when none was given.
func NormalizeRequest(req DecisionRequest) DecisionRequest {
	if req.Mode == "" {
		req.Mode = ModeIndividual
	}
	req.Crop = strings.ToLower(strings.TrimSpace(req.Crop))
	if req.CropCoefficient == 0 {
		req.CropCoefficient = 1.0
		if kc, ok := CropCoefficients[req.Crop]; ok {
			req.CropCoefficient = kc
		}
	}
	return req
}

// ValidateRequest checks field ranges and that the request can be located.
func ValidateRequest(req DecisionRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid decision request: %w", err)
	}
	if !req.Location.HasCoordinates() && req.Location.Region == "" {
		return errors.New("invalid decision request: location needs coordinates or a region name")
	}
	return nil
}

// SerializeDecision marshals a Decision into an OutputEvent keyed by its ID.
func SerializeDecision(d Decision) (OutputEvent, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize decision: %w", err)
	}
	return OutputEvent{
		Key:   []byte(d.ID),
		Value: data,
		Headers: map[string]string{
			"strategy":     string(d.Strategy.Strategy),
			"generated_at": d.GeneratedAt.Format(time.RFC3339),
		},
	}, nil
}

// DecisionID returns the caller's ID when present, else a deterministic
// SHA-256 over the canonical JSON of the whole request. Replaying the same
// observation yields the same ID so downstream writes stay idempotent, and
// any input that can change the outcome changes the ID. Geocoding enrichment
// is excluded so a flaky geocoder cannot split one observation into two IDs.
func DecisionID(req DecisionRequest) string {
	if req.ID != "" {
		return req.ID
	}
	canon := req
	canon.Location.FormattedAddress = ""
	canon.Location.PlaceName = ""
	canon.Location.GeoConfidence = 0
	canon.Location.GeoSource = ""
	canon.ObservedAt = req.ObservedAt.UTC()

	data, err := json.Marshal(canon)
	if err != nil {
		// Only non-finite numbers fail to encode; hash their text form.
		var cur Conditions
		if canon.Current != nil {
			cur = *canon.Current
		}
		score := math.NaN()
		if canon.DroughtRiskScore != nil {
			score = *canon.DroughtRiskScore
		}
		data = fmt.Appendf(nil, "%+v|%+v|%+v|%s|%s|%v|%s|%v|%v|%s",
			canon.Location, cur, canon.Forecast, canon.Mode, canon.Profile, canon.Area,
			canon.Crop, canon.CropCoefficient, score, canon.ObservedAt.Format(time.RFC3339Nano))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
