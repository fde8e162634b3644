package jobdef

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New()

// Validate checks a Spec for the structural requirements every builder path
// assumes: a non-empty job id, well-known object types, and a target that
// resolves against the object registry. Tag-driven checks cover field-level
// shape; the job-type-specific rules below cover what struct tags can't
// express on their own.
func Validate(spec Spec) error {
	if err := structValidator.Struct(spec); err != nil {
		return fmt.Errorf("jobdef: invalid spec: %w", err)
	}

	switch spec.Type {
	case JobRunModel, JobImportModel:
		if spec.Target.ObjectID == "" {
			return fmt.Errorf("jobdef: %s job requires a target object id", spec.Type)
		}
		if _, ok := spec.Objects[spec.Target.ObjectID]; !ok {
			return fmt.Errorf("jobdef: target object %q not found in object registry", spec.Target.ObjectID)
		}
	case JobRunFlow:
		if spec.Target.ObjectID == "" {
			return fmt.Errorf("jobdef: RUN_FLOW job requires a target object id")
		}
		obj, ok := spec.Objects[spec.Target.ObjectID]
		if !ok || obj.FlowDef == nil {
			return fmt.Errorf("jobdef: target object %q is not a flow definition", spec.Target.ObjectID)
		}
	}

	for name, in := range spec.Inputs {
		if !in.DynamicAlloc && in.Selector.ObjectID == "" {
			return fmt.Errorf("jobdef: input %q has neither a selector nor dynamic allocation", name)
		}
	}
	for name, out := range spec.Outputs {
		if !out.DynamicAlloc && out.Selector.ObjectID == "" {
			return fmt.Errorf("jobdef: output %q has neither a selector nor dynamic allocation", name)
		}
	}

	return nil
}
