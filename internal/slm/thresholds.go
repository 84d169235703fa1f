package slm

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultRedThreshold is three months (7,889,400,000 ms).
	DefaultRedThreshold = 7_889_400_000 * time.Millisecond

	// DefaultYellowThreshold is forty minutes (2,400,000 ms).
	DefaultYellowThreshold = 40 * time.Minute
)

// ErrInvalidThresholds is returned by Thresholds.Validate.
var ErrInvalidThresholds = errors.New("invalid slm thresholds")

// Thresholds bound how long a policy's last failure may trail its last success.
// In YAML, integers are milliseconds and strings are Go durations.
type Thresholds struct {
	Red    time.Duration `yaml:"red_threshold"`
	Yellow time.Duration `yaml:"yellow_threshold"`
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Red:    DefaultRedThreshold,
		Yellow: DefaultYellowThreshold,
	}
}

// WithDefaults fills zero fields from DefaultThresholds.
func (t Thresholds) WithDefaults() Thresholds {
	if t.Red == 0 {
		t.Red = DefaultRedThreshold
	}
	if t.Yellow == 0 {
		t.Yellow = DefaultYellowThreshold
	}
	return t
}

// Validate checks that both thresholds are positive and yellow is below red.
func (t Thresholds) Validate() error {
	if t.Red <= 0 || t.Yellow <= 0 {
		return fmt.Errorf("%w: thresholds must be positive (red=%s, yellow=%s)", ErrInvalidThresholds, t.Red, t.Yellow)
	}
	if t.Yellow >= t.Red {
		return fmt.Errorf("%w: yellow %s must be below red %s", ErrInvalidThresholds, t.Yellow, t.Red)
	}
	return nil
}

// UnmarshalYAML accepts duration strings ("40m", "2191h30m") or bare integers,
// which are read as milliseconds.
func (t *Thresholds) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		Red    any `yaml:"red_threshold"`
		Yellow any `yaml:"yellow_threshold"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	red, err := parseThreshold("red_threshold", raw.Red)
	if err != nil {
		return err
	}
	yellow, err := parseThreshold("yellow_threshold", raw.Yellow)
	if err != nil {
		return err
	}
	t.Red, t.Yellow = red, yellow
	return nil
}

func parseThreshold(field string, v any) (time.Duration, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case string:
		d, err := time.ParseDuration(x)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidThresholds, field, err)
		}
		return d, nil
	case int:
		return time.Duration(x) * time.Millisecond, nil
	case int64:
		return time.Duration(x) * time.Millisecond, nil
	case uint64:
		return time.Duration(x) * time.Millisecond, nil
	case float64:
		return time.Duration(x * float64(time.Millisecond)), nil
	default:
		return 0, fmt.Errorf("%w: %s: unsupported value %v", ErrInvalidThresholds, field, v)
	}
}
