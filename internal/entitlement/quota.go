package entitlement

import (
	"encoding/json"
	"strconv"
)

// Quota is either Limited(n) or Unlimited. The zero value is Limited(0).
type Quota struct {
	n         int
	unlimited bool
}

func Limited(n int) Quota { return Quota{n: n} }

func Unlimited() Quota { return Quota{unlimited: true} }

func (q Quota) IsUnlimited() bool { return q.unlimited }

// Limit returns the bound and true for a limited quota, or 0 and false.
func (q Quota) Limit() (int, bool) {
	if q.unlimited {
		return 0, false
	}
	return q.n, true
}

// Allows reports whether one more unit fits after used units were consumed.
func (q Quota) Allows(used int) bool {
	return q.unlimited || used < q.n
}

func (q Quota) String() string {
	if q.unlimited {
		return "unlimited"
	}
	return strconv.Itoa(q.n)
}

// MarshalJSON keeps the wire format clients already understand, where -1
// stands for unlimited.
func (q Quota) MarshalJSON() ([]byte, error) {
	if q.unlimited {
		return []byte("-1"), nil
	}
	return json.Marshal(q.n)
}

func (q *Quota) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n < 0 {
		*q = Unlimited()
		return nil
	}
	*q = Limited(n)
	return nil
}
