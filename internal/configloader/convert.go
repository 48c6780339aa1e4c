package configloader

import (
	"encoding/json"

	"github.com/fusion-gw/fusion/internal/domain"
)

// parseAuth converts the `auth:` sub-mapping of a source entry into a
// domain.Auth. An absent mapping is domain.NoAuth; an unrecognized
// `type` discriminator is a configuration error, never a silent None —
// per SPEC_FULL.md §9 ("unknown discriminator values are a
// configuration error").
func parseAuth(raw any) (domain.Auth, error) {
	if raw == nil {
		return domain.NoAuth, nil
	}
	data, ok := asMap(raw)
	if !ok {
		return domain.Auth{}, errf("`auth` could not be converted to a mapping")
	}

	kind, _, err := optionalString(data, "type")
	if err != nil {
		return domain.Auth{}, err
	}

	switch kind {
	case "", "none":
		return domain.NoAuth, nil
	case "basic":
		username, err := requiredString(data, "username")
		if err != nil {
			return domain.Auth{}, err
		}
		password, err := requiredString(data, "password")
		if err != nil {
			return domain.Auth{}, err
		}
		return domain.BasicAuth(username, password), nil
	case "bearer":
		token, err := requiredString(data, "token")
		if err != nil {
			return domain.Auth{}, err
		}
		return domain.BearerAuth(token), nil
	case "param":
		key, err := requiredString(data, "key")
		if err != nil {
			return domain.Auth{}, err
		}
		value, err := requiredString(data, "value")
		if err != nil {
			return domain.Auth{}, err
		}
		return domain.ParamAuth(key, value), nil
	default:
		return domain.Auth{}, errf("source auth type `%s` invalid", kind)
	}
}

// parseBody converts the `body:` sub-mapping of a source entry into a
// domain.Body, mirroring parseAuth's discriminator discipline.
func parseBody(raw any) (domain.Body, error) {
	if raw == nil {
		return domain.NoBody, nil
	}
	data, ok := asMap(raw)
	if !ok {
		return domain.Body{}, errf("`body` could not be converted to a mapping")
	}

	kind, _, err := optionalString(data, "type")
	if err != nil {
		return domain.Body{}, err
	}

	switch kind {
	case "", "none":
		return domain.NoBody, nil
	case "text":
		text, err := requiredString(data, "text")
		if err != nil {
			return domain.Body{}, err
		}
		return domain.TextBody(text), nil
	case "json":
		text, err := requiredString(data, "json")
		if err != nil {
			return domain.Body{}, err
		}
		if !json.Valid([]byte(text)) {
			return domain.Body{}, errf("source body json is not valid JSON")
		}
		return domain.JSONBody(json.RawMessage(text)), nil
	case "form":
		return domain.FormBody(optionalStringMap(data, "form")), nil
	case "multi":
		return domain.MultiBody(optionalStringMap(data, "form")), nil
	default:
		return domain.Body{}, errf("source body type `%s` invalid", kind)
	}
}

// parseFallback accepts either an inline `fallback` JSON literal string
// or a `fallback_file` path (mutually exclusive, per SPEC_FULL.md §4.5)
// and returns the parsed JSON value as raw bytes.
func parseFallback(data yamlMap) (json.RawMessage, error) {
	inline, hasInline, err := optionalString(data, "fallback")
	if err != nil {
		return nil, err
	}
	filePath, hasFile, err := optionalString(data, "fallback_file")
	if err != nil {
		return nil, err
	}

	if hasInline && hasFile {
		return nil, errf("`fallback` and `fallback_file` are mutually exclusive")
	}

	var text string
	switch {
	case hasInline:
		text = inline
	case hasFile:
		text, err = ReadFile(filePath, FileTypeFallback)
		if err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}

	if !json.Valid([]byte(text)) {
		return nil, errf("fallback value is not valid JSON")
	}
	return json.RawMessage(text), nil
}

// parseFilter accepts either an inline multi-line `filter` string or a
// `filter_file` path to a `.jq` file, collapsing the inline form the
// way the original implementation does (newlines stripped, internal
// whitespace normalized).
func parseFilter(data yamlMap) (*string, error) {
	inline, hasInline, err := optionalString(data, "filter")
	if err != nil {
		return nil, err
	}
	filePath, hasFile, err := optionalString(data, "filter_file")
	if err != nil {
		return nil, err
	}

	if hasInline && hasFile {
		return nil, errf("`filter` and `filter_file` are mutually exclusive")
	}

	switch {
	case hasInline:
		collapsed := multilineFilter(inline)
		return &collapsed, nil
	case hasFile:
		text, err := ReadFile(filePath, FileTypeFilter)
		if err != nil {
			return nil, err
		}
		collapsed := multilineFilter(text)
		return &collapsed, nil
	default:
		return nil, nil
	}
}
