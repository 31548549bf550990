// Package config resolves the tunable parameters of the Doppler speed
// engine from layered sources: built-in defaults, an optional JSON file,
// and command-line overrides, in that precedence order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Recognized parameter identifiers, matching the `-param id=value` CLI
// flag and the JSON config file keys one-for-one.
const (
	IDPeakDetectionTime            = "peak-detection-time"
	IDPeakDetectionHeightThreshold = "peak-detection-height-threshold"
	IDPeakTracingHeightThreshold   = "peak-tracing-height-threshold"
	IDUpperThresholdFrequency      = "upper-threshold-frequency"
	IDMaxBinJump                   = "max-bin-jump"
	IDBroadestInterruption         = "broadest-interruption"
	IDMovingFFTAverageWidth        = "moving-fft-average-width"
	IDWriteDebugCSV                = "write-debug-csv"
	IDRescueApproachBeforeSeconds  = "rescue-approach-before-seconds"
	IDRescueLeaveAfterSeconds      = "rescue-leave-after-seconds"
	IDStableBeginRunLength         = "stable-begin-run-length"
	IDStableEndRunLength           = "stable-end-run-length"
)

// TuningConfig holds optional overrides for every recognized parameter.
// Fields left nil keep their built-in default. This mirrors the JSON
// config file schema, so the same struct loads a file on disk or a set
// of CLI `-param` flags applied on top of it.
type TuningConfig struct {
	PeakDetectionTime            *float64 `json:"peak_detection_time,omitempty"`
	PeakDetectionHeightThreshold *float64 `json:"peak_detection_height_threshold,omitempty"`
	PeakTracingHeightThreshold   *float64 `json:"peak_tracing_height_threshold,omitempty"`
	UpperThresholdFrequency      *float64 `json:"upper_threshold_frequency,omitempty"`
	MaxBinJump                   *int     `json:"max_bin_jump,omitempty"`
	BroadestInterruption         *int     `json:"broadest_interruption,omitempty"`
	MovingFFTAverageWidth        *int     `json:"moving_fft_average_width,omitempty"`
	WriteDebugCSV                *bool    `json:"write_debug_csv,omitempty"`
	RescueApproachBeforeSeconds  *float64 `json:"rescue_approach_before_seconds,omitempty"`
	RescueLeaveAfterSeconds      *float64 `json:"rescue_leave_after_seconds,omitempty"`
	StableBeginRunLength         *int     `json:"stable_begin_run_length,omitempty"`
	StableEndRunLength           *int     `json:"stable_end_run_length,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with every field unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a partial TuningConfig from a JSON file. Fields
// omitted from the file keep their default when resolved via
// EngineConfigFromTuning. A nil or empty path is not an error — it
// resolves to EmptyTuningConfig.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	if path == "" {
		return EmptyTuningConfig(), nil
	}
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that any set fields hold structurally sane values.
// It does not attempt to catch every bad combination; EngineConfigFromTuning
// additionally checks the sample geometry, and the engine's constructor
// performs no further validation.
func (c *TuningConfig) Validate() error {
	if c.PeakDetectionTime != nil && *c.PeakDetectionTime < 0 {
		return fmt.Errorf("peak_detection_time must be non-negative, got %f", *c.PeakDetectionTime)
	}
	if c.PeakDetectionHeightThreshold != nil && *c.PeakDetectionHeightThreshold < 0 {
		return fmt.Errorf("peak_detection_height_threshold must be non-negative, got %f", *c.PeakDetectionHeightThreshold)
	}
	if c.PeakTracingHeightThreshold != nil && *c.PeakTracingHeightThreshold < 0 {
		return fmt.Errorf("peak_tracing_height_threshold must be non-negative, got %f", *c.PeakTracingHeightThreshold)
	}
	if c.UpperThresholdFrequency != nil && *c.UpperThresholdFrequency <= 0 {
		return fmt.Errorf("upper_threshold_frequency must be positive, got %f", *c.UpperThresholdFrequency)
	}
	if c.MaxBinJump != nil && *c.MaxBinJump < 0 {
		return fmt.Errorf("max_bin_jump must be non-negative, got %d", *c.MaxBinJump)
	}
	if c.BroadestInterruption != nil && *c.BroadestInterruption < 0 {
		return fmt.Errorf("broadest_interruption must be non-negative, got %d", *c.BroadestInterruption)
	}
	if c.MovingFFTAverageWidth != nil && *c.MovingFFTAverageWidth < 1 {
		return fmt.Errorf("moving_fft_average_width must be at least 1, got %d", *c.MovingFFTAverageWidth)
	}
	if c.RescueApproachBeforeSeconds != nil && *c.RescueApproachBeforeSeconds < 0 {
		return fmt.Errorf("rescue_approach_before_seconds must be non-negative, got %f", *c.RescueApproachBeforeSeconds)
	}
	if c.RescueLeaveAfterSeconds != nil && *c.RescueLeaveAfterSeconds < 0 {
		return fmt.Errorf("rescue_leave_after_seconds must be non-negative, got %f", *c.RescueLeaveAfterSeconds)
	}
	if c.StableBeginRunLength != nil && *c.StableBeginRunLength < 1 {
		return fmt.Errorf("stable_begin_run_length must be at least 1, got %d", *c.StableBeginRunLength)
	}
	if c.StableEndRunLength != nil && *c.StableEndRunLength < 1 {
		return fmt.Errorf("stable_end_run_length must be at least 1, got %d", *c.StableEndRunLength)
	}
	return nil
}

// Set applies a single `id=value`-style override by parameter identifier,
// as used by the CLI's repeated `-param` flag. Unknown ids are a lookup
// error, matching spec.md §7's "parameter reads for unknown ids fail with
// a lookup error" rule extended to writes.
func (c *TuningConfig) Set(id, value string) error {
	switch id {
	case IDPeakDetectionTime:
		return setFloat(&c.PeakDetectionTime, value)
	case IDPeakDetectionHeightThreshold:
		return setFloat(&c.PeakDetectionHeightThreshold, value)
	case IDPeakTracingHeightThreshold:
		return setFloat(&c.PeakTracingHeightThreshold, value)
	case IDUpperThresholdFrequency:
		return setFloat(&c.UpperThresholdFrequency, value)
	case IDMaxBinJump:
		return setInt(&c.MaxBinJump, value)
	case IDBroadestInterruption:
		return setInt(&c.BroadestInterruption, value)
	case IDMovingFFTAverageWidth:
		return setInt(&c.MovingFFTAverageWidth, value)
	case IDWriteDebugCSV:
		return setBool(&c.WriteDebugCSV, value)
	case IDRescueApproachBeforeSeconds:
		return setFloat(&c.RescueApproachBeforeSeconds, value)
	case IDRescueLeaveAfterSeconds:
		return setFloat(&c.RescueLeaveAfterSeconds, value)
	case IDStableBeginRunLength:
		return setInt(&c.StableBeginRunLength, value)
	case IDStableEndRunLength:
		return setInt(&c.StableEndRunLength, value)
	default:
		return fmt.Errorf("unknown parameter id %q", id)
	}
}

func setFloat(dst **float64, value string) error {
	var v float64
	if _, err := fmt.Sscanf(value, "%g", &v); err != nil {
		return fmt.Errorf("invalid float value %q: %w", value, err)
	}
	*dst = &v
	return nil
}

func setInt(dst **int, value string) error {
	var v int
	if _, err := fmt.Sscanf(value, "%d", &v); err != nil {
		return fmt.Errorf("invalid int value %q: %w", value, err)
	}
	*dst = &v
	return nil
}

func setBool(dst **bool, value string) error {
	switch value {
	case "1", "true", "on":
		v := true
		*dst = &v
	case "0", "false", "off":
		v := false
		*dst = &v
	default:
		return fmt.Errorf("invalid bool value %q", value)
	}
	return nil
}

// Getters — each returns the override if set, else the spec-authoritative
// default from spec.md §6.

func (c *TuningConfig) GetPeakDetectionTime() float64 {
	if c.PeakDetectionTime == nil {
		return 1.5
	}
	return *c.PeakDetectionTime
}

func (c *TuningConfig) GetPeakDetectionHeightThreshold() float64 {
	if c.PeakDetectionHeightThreshold == nil {
		return 15.0
	}
	return *c.PeakDetectionHeightThreshold
}

func (c *TuningConfig) GetPeakTracingHeightThreshold() float64 {
	if c.PeakTracingHeightThreshold == nil {
		return 5.0
	}
	return *c.PeakTracingHeightThreshold
}

func (c *TuningConfig) GetUpperThresholdFrequency() float64 {
	if c.UpperThresholdFrequency == nil {
		return 1500.0
	}
	return *c.UpperThresholdFrequency
}

func (c *TuningConfig) GetMaxBinJump() int {
	if c.MaxBinJump == nil {
		return 5
	}
	return *c.MaxBinJump
}

func (c *TuningConfig) GetBroadestInterruption() int {
	if c.BroadestInterruption == nil {
		return 10
	}
	return *c.BroadestInterruption
}

func (c *TuningConfig) GetMovingFFTAverageWidth() int {
	if c.MovingFFTAverageWidth == nil {
		return 4
	}
	return *c.MovingFFTAverageWidth
}

func (c *TuningConfig) GetWriteDebugCSV() bool {
	if c.WriteDebugCSV == nil {
		return false
	}
	return *c.WriteDebugCSV
}

// GetRescueApproachBeforeSeconds returns the rescue clause's "approaching"
// bound: a candidate stable_begin must be timestamped before this many
// seconds into the recording. See spec.md §4.4's rescue clause.
func (c *TuningConfig) GetRescueApproachBeforeSeconds() float64 {
	if c.RescueApproachBeforeSeconds == nil {
		return 2.0
	}
	return *c.RescueApproachBeforeSeconds
}

// GetRescueLeaveAfterSeconds returns the rescue clause's "leaving" bound:
// a candidate stable_end must be timestamped at or after this many
// seconds into the recording.
func (c *TuningConfig) GetRescueLeaveAfterSeconds() float64 {
	if c.RescueLeaveAfterSeconds == nil {
		return 4.0
	}
	return *c.RescueLeaveAfterSeconds
}

// GetStableBeginRunLength returns the minimum run length (in consecutive
// peaks at an identical interpolated position) required for stable_begin.
func (c *TuningConfig) GetStableBeginRunLength() int {
	if c.StableBeginRunLength == nil {
		return 3
	}
	return *c.StableBeginRunLength
}

// GetStableEndRunLength returns the run length that must be exceeded
// (strictly) for stable_end, scanning from the most recent peak backwards
// within a tolerance of one bin.
func (c *TuningConfig) GetStableEndRunLength() int {
	if c.StableEndRunLength == nil {
		return 3
	}
	return *c.StableEndRunLength
}
