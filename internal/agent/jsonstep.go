package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON strips a markdown code fence around a JSON payload, if the
// model wrapped its answer in one, and trims surrounding whitespace. Models
// asked for "only JSON" still occasionally fence it; this keeps the caller
// from having to special-case that.
func ExtractJSON(text string) string {
	if m := jsonFence.FindStringSubmatch(text); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// GenerateValidated sends prompt through a's chat client, decodes the
// response as JSON into T, and runs validate against it. On decode or
// validation failure it retries exactly once with a repair prompt that
// includes the validator's complaint and the model's previous answer, per
// spec §9's "declared schema, validate, single repair retry" policy. A
// second failure is returned to the caller, who decides whether to fall
// back deterministically (Feedback Generator) or propagate (Roadmap
// Planner).
func GenerateValidated[T any](ctx context.Context, a *BaseAgent, prompt string, validate func(*T) error) (*T, error) {
	a.State = StateRunning

	raw, err := a.Generate(ctx, prompt)
	if err != nil {
		a.State = StateError
		return nil, fmt.Errorf("agent: generate: %w", err)
	}

	if result, verr := decodeAndValidate[T](raw, validate); verr == nil {
		a.State = StateFinished
		return result, nil
	} else {
		repaired, rerr := a.Generate(ctx, repairPrompt(prompt, raw, verr))
		if rerr != nil {
			a.State = StateError
			return nil, fmt.Errorf("agent: repair generate: %w", rerr)
		}
		result, verr2 := decodeAndValidate[T](repaired, validate)
		if verr2 != nil {
			a.State = StateError
			return nil, fmt.Errorf("agent: repair attempt still invalid: %w", verr2)
		}
		a.State = StateFinished
		return result, nil
	}
}

func decodeAndValidate[T any](raw string, validate func(*T) error) (*T, error) {
	var out T
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("decoding json response: %w", err)
	}
	if validate != nil {
		if err := validate(&out); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func repairPrompt(original, previous string, cause error) string {
	return fmt.Sprintf(
		"%s\n\nYour previous response did not satisfy the required shape: %s\n\nPrevious response:\n%s\n\nReturn ONLY the corrected JSON object. No prose, no markdown code fences.",
		original, cause.Error(), previous,
	)
}
