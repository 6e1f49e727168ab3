package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"content-rag/internal/models"
)

var (
	thinkRe = regexp.MustCompile(models.ThinkTag)
	fenceRe = regexp.MustCompile(models.CodeFence)
)

// ParseResponse decodes a generated reply into a fully populated value.
// metadata, tags and summary are required; normalized_version is required
// when withBody is set. Unknown keys are ignored.
func ParseResponse(reply string, withBody bool) (models.NormalizedContent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleanReply(reply)), &fields); err != nil {
		return models.NormalizedContent{}, fmt.Errorf("%w: %w", models.ErrMalformedResponse, err)
	}

	required := []string{"metadata", "tags", "summary"}
	if withBody {
		required = append(required, "normalized_version")
	}

	values := make(map[string]string, len(required))
	for _, key := range required {
		raw, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return models.NormalizedContent{}, &models.MissingFieldError{Field: key}
		}
		value, err := fieldString(raw)
		if err != nil {
			return models.NormalizedContent{}, fmt.Errorf("%w: field %q: %w", models.ErrMalformedResponse, key, err)
		}
		values[key] = value
	}

	return models.NormalizedContent{
		Metadata: models.Metadata{
			Metadata: values["metadata"],
			Tags:     values["tags"],
			Summary:  values["summary"],
		},
		NormalizedContent: values["normalized_version"],
	}, nil
}

// fieldString accepts a JSON string, an array of strings (joined with ", ")
// or an object (kept as compact JSON).
func fieldString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, models.TagSeparator), nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	return "", fmt.Errorf("unsupported value %s", string(raw))
}

// cleanReply drops reasoning blocks and a surrounding markdown code fence.
func cleanReply(reply string) string {
	reply = strings.TrimSpace(thinkRe.ReplaceAllString(reply, ""))
	if m := fenceRe.FindStringSubmatch(reply); m != nil {
		return m[1]
	}
	return reply
}
