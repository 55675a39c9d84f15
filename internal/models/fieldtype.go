package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const TextValueMaxLen = 1024

// FieldType is the tagged variant behind a field's validation and storage
// rule. Every variant validates raw user input into a canonical value and
// round-trips it through its stored string form.
type FieldType interface {
	Tag() string
	Validate(raw string) (string, error)
	Serialize(value string) string
	Deserialize(stored string) (string, error)
}

const (
	TypeText   = "text"
	TypeNumber = "number"
	TypeImage  = "image"
)

// ParseFieldType maps a stored tag to its variant.
func ParseFieldType(tag string) (FieldType, error) {
	switch strings.ToLower(tag) {
	case TypeText:
		return TextType{}, nil
	case TypeNumber:
		return NumberType{}, nil
	case TypeImage:
		return ImageType{}, nil
	default:
		return nil, fmt.Errorf("unknown field type %q", tag)
	}
}

type TextType struct{}

func (TextType) Tag() string { return TypeText }

func (TextType) Validate(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("value must not be empty")
	}
	if len(value) > TextValueMaxLen {
		return "", fmt.Errorf("value must be at most %d characters", TextValueMaxLen)
	}
	return value, nil
}

func (TextType) Serialize(value string) string { return value }

func (TextType) Deserialize(stored string) (string, error) { return stored, nil }

func (t TextType) MarshalJSON() ([]byte, error) { return tagJSON(t), nil }

type NumberType struct{}

func (NumberType) Tag() string { return TypeNumber }

func (NumberType) Validate(raw string) (string, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", fmt.Errorf("value must be a number")
	}
	return strconv.FormatFloat(n, 'f', -1, 64), nil
}

func (NumberType) Serialize(value string) string { return value }

func (NumberType) Deserialize(stored string) (string, error) {
	if _, err := strconv.ParseFloat(stored, 64); err != nil {
		return "", fmt.Errorf("stored value %q is not a number", stored)
	}
	return stored, nil
}

func (t NumberType) MarshalJSON() ([]byte, error) { return tagJSON(t), nil }

type ImageType struct{}

func (ImageType) Tag() string { return TypeImage }

func (ImageType) Validate(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("value must be an http(s) image URL")
	}
	lower := strings.ToLower(u.Path)
	ok := false
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			ok = true
			break
		}
	}
	if !ok {
		return "", fmt.Errorf("image URL must end in .png, .jpg, .jpeg, .gif or .webp")
	}
	return value, nil
}

func (ImageType) Serialize(value string) string { return value }

func (ImageType) Deserialize(stored string) (string, error) { return stored, nil }

func (t ImageType) MarshalJSON() ([]byte, error) { return tagJSON(t), nil }

func tagJSON(t FieldType) []byte {
	return []byte(strconv.Quote(t.Tag()))
}
