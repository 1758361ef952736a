package skills

import "errors"

var (
	// ErrSkillNotFound is returned when a skill cannot be found by name.
	ErrSkillNotFound = errors.New("skills: skill not found")

	// ErrMappingInvalid is returned when an agent-skills mapping file is malformed.
	ErrMappingInvalid = errors.New("skills: invalid agent mapping")
)
