package model

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Sentinel is how an unavailable Value is written to reports.
const Sentinel = -1

// Value is one stat reading for one player in one fight (or a total built
// from such readings). The zero Value is unavailable, which is distinct from
// a valid zero.
type Value struct {
	Valid  bool
	Amount float64 // scalar value, or generation for squad buffs
	Uptime float64 // squad buffs only
	Buff   bool
}

// Unavailable returns the "not applicable" reading.
func Unavailable() Value { return Value{} }

// Scalar returns a valid plain reading.
func Scalar(v float64) Value { return Value{Valid: true, Amount: v} }

// BuffValue returns a valid squad buff reading.
func BuffValue(gen, uptime float64) Value {
	return Value{Valid: true, Amount: gen, Uptime: uptime, Buff: true}
}

// MarshalJSON writes -1 for unavailable, {gen, uptime} for buffs and a bare
// number otherwise.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case !v.Valid:
		return []byte(strconv.Itoa(Sentinel)), nil
	case v.Buff:
		return json.Marshal(struct {
			Gen    float64 `json:"gen"`
			Uptime float64 `json:"uptime"`
		}{v.Amount, v.Uptime})
	default:
		return json.Marshal(v.Amount)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var b struct {
			Gen    float64 `json:"gen"`
			Uptime float64 `json:"uptime"`
		}
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("buff value: %w", err)
		}
		*v = BuffValue(b.Gen, b.Uptime)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("stat value: %w", err)
	}
	if f == Sentinel {
		*v = Unavailable()
		return nil
	}
	*v = Scalar(f)
	return nil
}
