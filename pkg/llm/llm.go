package llm

import (
	"context"
	"fmt"
	"sort"

	apperrors "MediaScribe/pkg/errors"
)

// Skill ids understood by every runner.
const (
	SkillFillerRemoval = "filler-removal"
	SkillSummary       = "summary"
	SkillChapters      = "chapters"
	SkillTranslation   = "translation"
)

// SkillInput is the text a skill operates on.
type SkillInput struct {
	Transcript     string `json:"transcript"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
}

// SkillRunner runs one text skill over a transcript.
type SkillRunner interface {
	RunSkill(ctx context.Context, skillID string, in SkillInput) (string, error)
}

var prompts = map[string]string{
	SkillFillerRemoval: "Rewrite the transcript without filler words (um, uh, like, you know) and false starts. Keep wording otherwise unchanged. Reply with the cleaned transcript only.",
	SkillSummary:       "Summarize the transcript in a short paragraph followed by up to five bullet points of key takeaways.",
	SkillChapters:      "Split the transcript into chapters. Reply with one line per chapter formatted as 'HH:MM:SS Title'. Timestamps appear in the transcript as [HH:MM:SS].",
	SkillTranslation:   "Translate the transcript into %s. Keep the [HH:MM:SS] markers untouched. Reply with the translation only.",
}

// Skills lists the supported skill ids.
func Skills() []string {
	ids := make([]string, 0, len(prompts))
	for id := range prompts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SystemPrompt validates in for skillID and returns the instruction text.
func SystemPrompt(skillID string, in SkillInput) (string, error) {
	p, ok := prompts[skillID]
	if !ok {
		return "", apperrors.WithCodef(apperrors.CodeNotFound, "unknown skill %q", skillID)
	}
	if in.Transcript == "" {
		return "", apperrors.WithCode(apperrors.CodeValidation, "transcript is empty")
	}
	if skillID == SkillTranslation {
		if in.TargetLanguage == "" {
			return "", apperrors.WithCode(apperrors.CodeValidation, "translation needs a target language")
		}
		p = fmt.Sprintf(p, in.TargetLanguage)
	}
	return p, nil
}
