package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/lendmatch/internal/matching"
)

const columns = 16

var validate = validator.New(validator.WithRequiredStructEnabled())

// RowError describes a row that could not be imported. Row is 1-based within the fetched range.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e RowError) Unwrap() error { return e.Err }

// ParseRows converts sheet rows into partners. A leading header row is ignored. Blank rows
// are skipped silently; invalid rows are reported and skipped.
func ParseRows(rows [][]any) ([]matching.Partner, []RowError) {
	var (
		partners []matching.Partner
		problems []RowError
	)

	for i, row := range rows {
		cells := normalize(row)
		if blank(cells) {
			continue
		}
		if i == 0 && isHeader(cells) {
			continue
		}

		p, err := parseRow(cells)
		if err != nil {
			problems = append(problems, RowError{Row: i + 1, Err: err})
			continue
		}
		partners = append(partners, p)
	}

	return partners, problems
}

func parseRow(c []string) (matching.Partner, error) {
	var (
		p    matching.Partner
		errs []error
	)

	number := func(col int, name string) float64 {
		v, err := parseNumber(c[col])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return v
	}

	p.Name = c[0]
	p.LoanType = c[1]
	p.MinLoanAmount = number(2, "min loan amount")
	p.MaxLoanAmount = number(3, "max loan amount")
	p.MinCreditScore = int(number(4, "min credit score"))
	p.MinAnnualRevenue = number(5, "min annual revenue")
	p.MinYearsInBusiness = number(6, "min years in business")

	var err error
	if p.InterestRateMin, err = optionalFloat(c[7]); err != nil {
		errs = append(errs, fmt.Errorf("interest rate min: %w", err))
	}
	if p.InterestRateMax, err = optionalFloat(c[8]); err != nil {
		errs = append(errs, fmt.Errorf("interest rate max: %w", err))
	}
	if p.TermLengthMin, err = optionalInt(c[9]); err != nil {
		errs = append(errs, fmt.Errorf("term length min: %w", err))
	}
	if p.TermLengthMax, err = optionalInt(c[10]); err != nil {
		errs = append(errs, fmt.Errorf("term length max: %w", err))
	}
	p.TermUnit = c[11]
	if p.FundingTimeMin, err = optionalInt(c[12]); err != nil {
		errs = append(errs, fmt.Errorf("funding time min: %w", err))
	}
	if p.FundingTimeMax, err = optionalInt(c[13]); err != nil {
		errs = append(errs, fmt.Errorf("funding time max: %w", err))
	}
	p.FundingTimeUnit = c[14]
	p.Active = parseActive(c[15])

	if len(errs) > 0 {
		return matching.Partner{}, errors.Join(errs...)
	}

	if err := p.Check(); err != nil {
		return matching.Partner{}, err
	}
	if err := validate.Struct(p); err != nil {
		return matching.Partner{}, err
	}

	return p, nil
}

func normalize(row []any) []string {
	cells := make([]string, columns)
	for i := 0; i < len(row) && i < columns; i++ {
		if row[i] == nil {
			continue
		}
		cells[i] = strings.TrimSpace(fmt.Sprint(row[i]))
	}
	return cells
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func isHeader(cells []string) bool {
	return strings.EqualFold(cells[0], "name") && strings.EqualFold(strings.ReplaceAll(cells[1], " ", ""), "loantype")
}

func parseNumber(s string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "").Replace(s)
	if cleaned == "" {
		return 0, errors.New("value is required")
	}
	return strconv.ParseFloat(cleaned, 64)
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseActive(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1", "active":
		return true
	default:
		return false
	}
}
