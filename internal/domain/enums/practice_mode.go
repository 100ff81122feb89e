package enums

import (
	"fmt"
	"strings"
)

type PracticeMode string

const (
	PracticeModeGeneral PracticeMode = "general"
	PracticeModeTopic   PracticeMode = "topic"
	PracticeModeExam    PracticeMode = "exam"
)

// ParsePracticeMode rejects anything outside the closed mode set so an
// unrecognized mode never reaches the attempt ledger.
func ParsePracticeMode(value string) (PracticeMode, error) {
	switch PracticeMode(strings.ToLower(strings.TrimSpace(value))) {
	case PracticeModeGeneral:
		return PracticeModeGeneral, nil
	case PracticeModeTopic:
		return PracticeModeTopic, nil
	case PracticeModeExam:
		return PracticeModeExam, nil
	default:
		return "", fmt.Errorf("unknown practice mode %q", value)
	}
}

func (m PracticeMode) Valid() bool {
	switch m {
	case PracticeModeGeneral, PracticeModeTopic, PracticeModeExam:
		return true
	default:
		return false
	}
}
