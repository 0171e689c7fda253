package courseguide

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	types "github.com/yungbote/courseguide-backend/internal/domain/courseguide"
)

var (
	// ErrParse means the sanitized text is not JSON.
	ErrParse = errors.New("model output is not valid JSON")
	// ErrSchema means the JSON lacks the roadmap/suggestedCourses shape.
	ErrSchema = errors.New("model output has malformed roadmap/suggestedCourses")
)

const httpsPrefix = "https://"

// Guide is the validated model reply.
type Guide struct {
	Summary          string
	Roadmap          []types.RoadmapStep
	SuggestedCourses []types.SuggestedCourse
}

// Validate parses sanitized model text and enforces the guide shape.
//
// roadmap must be present and truthy; suggestedCourses must be an array.
// Course entries need string title/description/url with an https:// url and
// are dropped otherwise. A bare string roadmap entry becomes a step with no
// description; other entries without a string step are dropped. A roadmap
// left with no steps is a schema error, so a stored guide always has one.
func Validate(text string) (*Guide, error) {
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %s, want object", ErrSchema, jsonKind(parsed))
	}

	rawRoadmap, ok := obj["roadmap"]
	if !ok || !truthy(rawRoadmap) {
		return nil, fmt.Errorf("%w: roadmap missing", ErrSchema)
	}
	roadmapItems, ok := rawRoadmap.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: roadmap is %s, want array", ErrSchema, jsonKind(rawRoadmap))
	}
	courseItems, ok := obj["suggestedCourses"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: suggestedCourses is %s, want array", ErrSchema, jsonKind(obj["suggestedCourses"]))
	}

	steps := roadmapSteps(roadmapItems)
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: roadmap has no usable steps (%d entries)", ErrSchema, len(roadmapItems))
	}

	summary, _ := obj["summary"].(string)
	return &Guide{
		Summary:          summary,
		Roadmap:          steps,
		SuggestedCourses: validCourses(courseItems),
	}, nil
}

func roadmapSteps(items []any) []types.RoadmapStep {
	out := make([]types.RoadmapStep, 0, len(items))
	for _, item := range items {
		if name, ok := item.(string); ok {
			if strings.TrimSpace(name) != "" {
				out = append(out, types.RoadmapStep{Step: name})
			}
			continue
		}
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		step, ok := m["step"].(string)
		if !ok || strings.TrimSpace(step) == "" {
			continue
		}
		desc, _ := m["description"].(string)
		out = append(out, types.RoadmapStep{Step: step, Description: desc})
	}
	return out
}

func validCourses(items []any) []types.SuggestedCourse {
	out := make([]types.SuggestedCourse, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title, okT := m["title"].(string)
		desc, okD := m["description"].(string)
		url, okU := m["url"].(string)
		if !okT || !okD || !okU || !strings.HasPrefix(url, httpsPrefix) {
			continue
		}
		if strings.TrimSpace(title) == "" || strings.TrimSpace(desc) == "" || strings.TrimSpace(url) == "" {
			continue
		}
		out = append(out, types.SuggestedCourse{Title: title, Description: desc, URL: url})
	}
	return out
}

// truthy follows JavaScript truthiness for decoded JSON values.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
