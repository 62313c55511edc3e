package submissions

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/curricula/backend/internal/models"
)

// fieldMessages holds the message for a failed rule, keyed by json field then tag.
var fieldMessages = map[string]map[string]string{
	"title":             {"required": "Title is required"},
	"url":               {"required": "Invalid URL", "url": "Invalid URL"},
	"imageUrl":          {"url": "Invalid image URL"},
	"creatorName":       {"required": "Creator name is required"},
	"creatorUrl":        {"url": "Invalid creator URL"},
	"suggestedCategory": {"required": "Suggested category is required"},
}

func typeMessage() string {
	names := make([]string, len(models.ResourceTypes))
	for i, t := range models.ResourceTypes {
		names[i] = string(t)
	}
	return "Type must be one of: " + strings.Join(names, ", ")
}

func fieldErrors(verrs validator.ValidationErrors) map[string][]string {
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := jsonName(fe.Field())
		msg := ""
		if field == "type" {
			msg = typeMessage()
		} else if m, ok := fieldMessages[field][fe.Tag()]; ok {
			msg = m
		} else {
			msg = field + " failed " + fe.Tag()
		}
		out[field] = append(out[field], msg)
	}
	return out
}

// missingText reports required text fields that stripping HTML left empty.
func (r *CreateRequest) missingText() map[string][]string {
	out := map[string][]string{}
	for field, v := range map[string]string{
		"title":             r.Title,
		"creatorName":       r.CreatorName,
		"suggestedCategory": r.SuggestedCategory,
	} {
		if v == "" {
			out[field] = []string{fieldMessages[field]["required"]}
		}
	}
	return out
}

// decodeErrors reports JSON that parsed but did not fit the request shape.
func decodeErrors(err error) map[string][]string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return map[string][]string{typeErr.Field: {"Expected " + typeErr.Type.String()}}
	}
	if strings.Contains(err.Error(), "metadata") {
		return map[string][]string{"metadata": {err.Error()}}
	}
	return map[string][]string{"body": {err.Error()}}
}

func isEmptyBody(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// jsonName lowercases the first letter of a Go field name: CreatorURL -> creatorUrl.
func jsonName(goName string) string {
	switch goName {
	case "URL":
		return "url"
	case "ImageURL":
		return "imageUrl"
	case "CreatorURL":
		return "creatorUrl"
	}
	if goName == "" {
		return goName
	}
	return strings.ToLower(goName[:1]) + goName[1:]
}
