package domain

import "fmt"

// ContestPeriod is the phase gate controlling which contest mutations are legal.
type ContestPeriod int

const (
	PeriodPreSignup ContestPeriod = iota
	PeriodSignup
	PeriodCompetition
	PeriodPostCompetition
)

var periodNames = map[ContestPeriod]string{
	PeriodPreSignup:       "pre-signup",
	PeriodSignup:          "signup",
	PeriodCompetition:     "competition",
	PeriodPostCompetition: "post-competition",
}

func (p ContestPeriod) String() string {
	if name, ok := periodNames[p]; ok {
		return name
	}
	return fmt.Sprintf("period(%d)", int(p))
}

// ParsePeriod converts a serialized period name back into its enum value.
func ParsePeriod(name string) (ContestPeriod, error) {
	for period, periodName := range periodNames {
		if periodName == name {
			return period, nil
		}
	}
	return 0, fmt.Errorf("unknown contest period %q", name)
}

func (p ContestPeriod) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ContestPeriod) UnmarshalText(text []byte) error {
	period, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = period
	return nil
}
