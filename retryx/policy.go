package retryx

import (
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/mathx"
)

// Type names a backoff strategy for re-submitting a failed bulk request.
type Type string

const (
	TypeNone        Type = "NONE"
	TypeConstant    Type = "CONSTANT"
	TypeExponential Type = "EXPONENTIAL"
)

// MaxExponentialDelay caps the wait computed by an exponential policy.
const MaxExponentialDelay = 5 * time.Minute

// ParseType is case insensitive. An empty string parses as TypeNone.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case "", TypeNone:
		return TypeNone, nil
	case TypeConstant, TypeExponential:
		return t, nil
	default:
		return "", errorx.InvalidArgumentErrorf("unknown backoff type '%s'", s)
	}
}

type Config struct {
	Type       Type
	Delay      time.Duration
	MaxRetries int
}

// Policy decides whether, and after how long, a failed request is attempted again.
// It is immutable and safe to share.
type Policy struct {
	typ        Type
	delay      time.Duration
	maxRetries int
}

func NoBackoff() Policy {
	return Policy{typ: TypeNone}
}

func ConstantBackoff(delay time.Duration, maxRetries int) Policy {
	return Policy{typ: TypeConstant, delay: delay, maxRetries: maxRetries}
}

// ExponentialBackoff waits delay*2^attempt, capped at MaxExponentialDelay.
func ExponentialBackoff(delay time.Duration, maxRetries int) Policy {
	return Policy{typ: TypeExponential, delay: delay, maxRetries: maxRetries}
}

func NewPolicy(cfg Config) (Policy, error) {
	typ, err := ParseType(string(cfg.Type))
	if err != nil {
		return Policy{}, err
	}
	if typ != TypeNone {
		if cfg.Delay < 0 {
			return Policy{}, errorx.InvalidArgumentErrorf("backoff delay must not be negative, got %s", cfg.Delay)
		}
		if cfg.MaxRetries < 0 {
			return Policy{}, errorx.InvalidArgumentErrorf("backoff max retries must not be negative, got %d", cfg.MaxRetries)
		}
	}

	switch typ {
	case TypeConstant:
		return ConstantBackoff(cfg.Delay, cfg.MaxRetries), nil
	case TypeExponential:
		return ExponentialBackoff(cfg.Delay, cfg.MaxRetries), nil
	default:
		return NoBackoff(), nil
	}
}

func (p Policy) Type() Type {
	if p.typ == "" {
		return TypeNone
	}
	return p.typ
}

func (p Policy) MaxRetries() int {
	if p.Type() == TypeNone {
		return 0
	}
	return p.maxRetries
}

// Next returns the wait before retry number attempt (zero based), or false once
// the policy gives up.
func (p Policy) Next(attempt int) (time.Duration, bool) {
	if attempt < 0 || attempt >= p.MaxRetries() {
		return 0, false
	}

	switch p.typ {
	case TypeConstant:
		return p.delay, true
	case TypeExponential:
		if attempt >= 62 {
			return MaxExponentialDelay, true
		}
		d := float64(p.delay) * math.Pow(2, float64(attempt))
		return time.Duration(mathx.Clamp(d, 0, float64(MaxExponentialDelay))), true
	default:
		return 0, false
	}
}

// NewBackOff adapts p to backoff.BackOff so it can drive backoff.Retry.
// The returned value is stateful and must not be shared between retry loops.
func NewBackOff(p Policy) backoff.BackOff {
	return &policyBackOff{policy: p}
}

type policyBackOff struct {
	policy  Policy
	attempt int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	d, ok := b.policy.Next(b.attempt)
	if !ok {
		return backoff.Stop
	}
	b.attempt++
	return d
}

func (b *policyBackOff) Reset() {
	b.attempt = 0
}
