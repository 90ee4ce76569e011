// Package matching scores applicant profiles against lending partner eligibility rules.
package matching

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Profile is a sparse applicant profile. A nil numeric field or an empty label means the
// value was never provided.
type Profile struct {
	BusinessName    string   `json:"businessName,omitempty" mapstructure:"businessName"`
	BusinessType    string   `json:"businessType,omitempty" mapstructure:"businessType"`
	LoanPurpose     string   `json:"loanPurpose,omitempty" mapstructure:"loanPurpose"`
	Email           string   `json:"email,omitempty" mapstructure:"email"`
	Phone           string   `json:"phone,omitempty" mapstructure:"phone"`
	CreditScore     *int     `json:"creditScore,omitempty" mapstructure:"creditScore"`
	AnnualRevenue   *float64 `json:"annualRevenue,omitempty" mapstructure:"annualRevenue"`
	YearsInBusiness *float64 `json:"yearsInBusiness,omitempty" mapstructure:"yearsInBusiness"`
	RequestedAmount *float64 `json:"requestedAmount,omitempty" mapstructure:"requestedAmount"`
}

// ProfileFromMap decodes a loosely typed map, as produced by a language model or a form,
// into a Profile. Numeric fields accept numbers or numeric text; text that does not parse
// becomes zero.
func ProfileFromMap(data map[string]any) (Profile, error) {
	var p Profile
	if len(data) == 0 {
		return p, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       numericTextHook,
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return p, fmt.Errorf("create profile decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return p, fmt.Errorf("decode profile: %w", err)
	}

	p.trim()
	return p, nil
}

// UnmarshalJSON accepts numeric fields as JSON numbers or strings.
func (p *Profile) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	decoded, err := ProfileFromMap(raw)
	if err != nil {
		return err
	}

	*p = decoded
	return nil
}

// Merge returns a copy of p with every present field of other written over it.
func (p Profile) Merge(other Profile) Profile {
	merged := p
	if other.BusinessName != "" {
		merged.BusinessName = other.BusinessName
	}
	if other.BusinessType != "" {
		merged.BusinessType = other.BusinessType
	}
	if other.LoanPurpose != "" {
		merged.LoanPurpose = other.LoanPurpose
	}
	if other.Email != "" {
		merged.Email = other.Email
	}
	if other.Phone != "" {
		merged.Phone = other.Phone
	}
	if other.CreditScore != nil {
		merged.CreditScore = Int(*other.CreditScore)
	}
	if other.AnnualRevenue != nil {
		merged.AnnualRevenue = Float(*other.AnnualRevenue)
	}
	if other.YearsInBusiness != nil {
		merged.YearsInBusiness = Float(*other.YearsInBusiness)
	}
	if other.RequestedAmount != nil {
		merged.RequestedAmount = Float(*other.RequestedAmount)
	}
	return merged
}

// Empty reports whether no field of the profile is present.
func (p Profile) Empty() bool {
	return p == Profile{}
}

// Complete reports whether all qualification questions have been answered.
func (p Profile) Complete() bool {
	return p.BusinessType != "" &&
		p.YearsInBusiness != nil &&
		p.AnnualRevenue != nil &&
		p.RequestedAmount != nil &&
		p.LoanPurpose != "" &&
		p.CreditScore != nil
}

func (p *Profile) trim() {
	p.BusinessName = strings.TrimSpace(p.BusinessName)
	p.BusinessType = strings.TrimSpace(p.BusinessType)
	p.LoanPurpose = strings.TrimSpace(p.LoanPurpose)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// ParseNumber converts numeric text such as "$250,000" into a float. Anything that does not
// parse, including NaN and infinities, is zero.
func ParseNumber(s string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// numericTextHook normalizes numeric inputs: text is parsed, non-finite values become zero
// and integers are clamped to the int32 range so threshold arithmetic cannot overflow.
func numericTextHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	var f float64
	switch v := data.(type) {
	case string:
		f = ParseNumber(v)
	case float64:
		f = finite(v)
	case float32:
		f = finite(float64(v))
	default:
		return data, nil
	}

	switch to.Kind() {
	case reflect.Float32, reflect.Float64:
		return f, nil
	case reflect.Int, reflect.Int32, reflect.Int64:
		return int(math.Max(math.MinInt32, math.Min(math.MaxInt32, math.Trunc(f)))), nil
	default:
		return data, nil
	}
}
