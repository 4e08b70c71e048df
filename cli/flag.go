package cli

import (
	"github.com/ka2n/fhirval/api/validation"
	"github.com/spf13/pflag"
)

// profileFlag records an explicit profile selection. Selecting the
// placeholder counts as no selection.
type profileFlag struct {
	IsSet bool
	Value string
}

// String implements pflag.Value.
func (p *profileFlag) String() string {
	return p.Value
}

func (p *profileFlag) Set(value string) error {
	p.Value = value
	p.IsSet = validation.IsSelected(value)
	return nil
}

func (p *profileFlag) Type() string {
	return "url"
}

var _ pflag.Value = &profileFlag{}
