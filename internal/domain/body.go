package domain

import "encoding/json"

// BodyKind discriminates the Body tagged variant stored in the
// `sources.body_type` column.
type BodyKind string

const (
	BodyNone  BodyKind = "none"
	BodyText  BodyKind = "text"
	BodyJSON  BodyKind = "json"
	BodyForm  BodyKind = "form"
	BodyMulti BodyKind = "multi"
)

// Body is the closed sum type describing the outbound request body the
// Request Composer attaches to a Source's call. The upstream method is
// always GET regardless of which variant is set; see Non-goals / Open
// Questions in SPEC_FULL.md for why this is intentional here.
type Body struct {
	Kind BodyKind
	Text string
	JSON json.RawMessage
	Form map[string]string
	// Multi carries the same shape as Form; each entry becomes a
	// multipart/form-data text part.
	Multi map[string]string
}

var NoBody = Body{Kind: BodyNone}

func TextBody(text string) Body {
	return Body{Kind: BodyText, Text: text}
}

func JSONBody(value json.RawMessage) Body {
	return Body{Kind: BodyJSON, JSON: value}
}

func FormBody(values map[string]string) Body {
	return Body{Kind: BodyForm, Form: values}
}

func MultiBody(values map[string]string) Body {
	return Body{Kind: BodyMulti, Multi: values}
}
