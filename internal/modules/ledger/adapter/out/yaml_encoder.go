package out

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"tally/internal/modules/ledger/dto"
	ledgerout "tally/internal/modules/ledger/port/out"
)

type YAMLEncoder struct{}

func NewYAMLEncoder() ledgerout.Encoder {
	return YAMLEncoder{}
}

func (YAMLEncoder) Format() string { return "yaml" }

func (YAMLEncoder) Encode(w io.Writer, report dto.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}
