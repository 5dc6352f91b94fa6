package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	retagerrors "github.com/alexisbeaulieu97/retag/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	ruleIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("rule_id", func(fl validator.FieldLevel) bool {
			return ruleIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateRuleSet performs schema and cross-rule validation.
func ValidateRuleSet(rs *RuleSet) error {
	if rs == nil {
		return retagerrors.NewValidationError("rule_set", "rule set is nil", nil)
	}

	if err := validatorInstance().Struct(rs); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]int, len(rs.Rules))
	for i, r := range rs.Rules {
		if first, dup := seen[r.ID]; dup {
			return retagerrors.NewValidationError(fieldForRule(i, "id"), fmt.Sprintf("duplicate rule id %q (first declared at rules[%d])", r.ID, first), nil)
		}
		seen[r.ID] = i
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return retagerrors.NewValidationError(field, msg, err)
	}

	return retagerrors.NewValidationError("rule_set", err.Error(), err)
}

// yamlishFieldName turns "RuleSet.Rules[0].ID" into "rules[0].id".
func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	lowered := make([]string, 0, len(parts))
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}

func fieldForRule(index int, field string) string {
	return fmt.Sprintf("rules[%d].%s", index, field)
}
