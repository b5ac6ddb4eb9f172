package transformation

import (
	"fmt"

	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

// ColumnRoles declares which input columns are numeric, which are
// categorical, and which column is the prediction target.
type ColumnRoles struct {
	Numerical   []string
	Categorical []string
	Target      string
}

// DefaultColumnRoles returns the roles of the student performance data.
func DefaultColumnRoles() ColumnRoles {
	return ColumnRoles{
		Numerical: []string{"reading_score", "writing_score"},
		Categorical: []string{
			"gender",
			"race_ethnicity",
			"parental_level_of_education",
			"lunch",
			"test_preparation_course",
		},
		Target: "math_score",
	}
}

// Features returns the numeric columns followed by the categorical ones.
func (r ColumnRoles) Features() []string {
	out := make([]string, 0, len(r.Numerical)+len(r.Categorical))
	out = append(out, r.Numerical...)
	return append(out, r.Categorical...)
}

// Required returns every column a dataset must carry: the features and the target.
func (r ColumnRoles) Required() []string {
	return append(r.Features(), r.Target)
}

// Validate rejects empty names, duplicates, a column with two roles and a
// target that is also a feature.
func (r ColumnRoles) Validate() error {
	if len(r.Numerical) == 0 && len(r.Categorical) == 0 {
		return errors.NewValidationError("roles", "at least one feature column is required", r)
	}
	if r.Target == "" {
		return errors.NewValidationError("target", "target column must be named", r.Target)
	}

	seen := make(map[string]string)
	check := func(role string, cols []string) error {
		for _, c := range cols {
			if c == "" {
				return errors.NewValidationError(role, "column name must not be empty", cols)
			}
			if prev, ok := seen[c]; ok {
				return errors.NewValidationError(role, fmt.Sprintf("column already declared as %s", prev), c)
			}
			seen[c] = role
		}
		return nil
	}
	if err := check("numerical", r.Numerical); err != nil {
		return err
	}
	if err := check("categorical", r.Categorical); err != nil {
		return err
	}
	if role, ok := seen[r.Target]; ok {
		return errors.NewValidationError("target", fmt.Sprintf("target is also declared as %s", role), r.Target)
	}
	return nil
}
