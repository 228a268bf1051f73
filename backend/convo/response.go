package convo

import "maps"

// Response is the terminal value of a single provider invocation. The
// executor annotates Metadata and transforms may rewrite Content before
// the response joins the pipeline result.
type Response struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

func NewResponse(content string) *Response {
	return &Response{
		Content:  content,
		Metadata: make(map[string]string),
	}
}

func (r *Response) WithMetadata(key, value string) *Response {
	if r.Metadata == nil {
		r.Metadata = make(map[string]string)
	}
	r.Metadata[key] = value
	return r
}

func (r *Response) Clone() *Response {
	return &Response{
		Content:  r.Content,
		Metadata: maps.Clone(r.Metadata),
	}
}
