package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	retagerrors "github.com/alexisbeaulieu97/retag/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseRuleSet loads a rule-set file from disk and validates it. Files ending
// in .toml are read as TOML, everything else as YAML.
func ParseRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, retagerrors.NewParseError(path, 0, err)
	}
	return DecodeRuleSet(path, data)
}

// DecodeRuleSet decodes and validates rule-set data. name selects the format
// by extension and labels errors.
func DecodeRuleSet(name string, data []byte) (*RuleSet, error) {
	var rs RuleSet
	if isTOML(name) {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rs); err != nil {
			return nil, retagerrors.NewParseError(name, tomlLine(err), err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&rs); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, retagerrors.NewParseError(name, 0, fmt.Errorf("rule set is empty"))
			}
			return nil, retagerrors.NewParseError(name, extractLine(err), err)
		}
	}

	if err := ValidateRuleSet(&rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

func isTOML(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".toml")
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}

func tomlLine(err error) int {
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, _ := decodeErr.Position()
		return row
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) && len(strictErr.Errors) > 0 {
		row, _ := strictErr.Errors[0].Position()
		return row
	}
	return 0
}
