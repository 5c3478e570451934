// Package tools maps the MCP tool catalogue onto the draft store, the
// publisher and the media uploader.
package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/debemdeboas/x-mcp/internal/errs"
)

type Operation int

const (
	OpUnknown Operation = iota
	OpCreateDraftTweet
	OpCreateDraftThread
	OpListDrafts
	OpPublishDraft
	OpDeleteDraft
	OpUploadMediaAndTweet
)

var operationNames = map[Operation]string{
	OpCreateDraftTweet:    "create_draft_tweet",
	OpCreateDraftThread:   "create_draft_thread",
	OpListDrafts:          "list_drafts",
	OpPublishDraft:        "publish_draft",
	OpDeleteDraft:         "delete_draft",
	OpUploadMediaAndTweet: "upload_media_and_tweet",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "unknown"
}

// Operations lists every tool in catalogue order.
var Operations = []Operation{
	OpCreateDraftTweet,
	OpCreateDraftThread,
	OpListDrafts,
	OpPublishDraft,
	OpDeleteDraft,
	OpUploadMediaAndTweet,
}

func ParseOperation(name string) (Operation, error) {
	for op, n := range operationNames {
		if n == name {
			return op, nil
		}
	}
	return OpUnknown, errs.InvalidArgument("parse operation", "unknown tool: %s", name)
}

type fieldType int

const (
	fieldString fieldType = iota
	fieldStringArray
)

func (t fieldType) String() string {
	if t == fieldStringArray {
		return "an array of strings"
	}
	return "a string"
}

type field struct {
	name        string
	typ         fieldType
	required    bool
	description string
}

// definition is one catalogue entry: the schema advertised to clients and
// the handler that runs once arguments match it.
type definition struct {
	description string
	fields      []field
	// doing completes the "Error <doing>: ..." message of a failed call.
	doing  func(a args) string
	handle func(h *Handlers, ctx context.Context, a args) (string, error)
}

var definitions = map[Operation]definition{
	OpCreateDraftTweet: {
		description: "Create a draft tweet",
		fields: []field{
			{name: "content", typ: fieldString, required: true, description: "The content of the tweet"},
		},
		doing:  func(args) string { return "creating draft tweet" },
		handle: (*Handlers).createDraftTweet,
	},
	OpCreateDraftThread: {
		description: "Create a draft tweet thread",
		fields: []field{
			{name: "contents", typ: fieldStringArray, required: true, description: "An array of tweet contents for the thread"},
		},
		doing:  func(args) string { return "creating draft thread" },
		handle: (*Handlers).createDraftThread,
	},
	OpListDrafts: {
		description: "List all draft tweets and threads",
		doing:       func(args) string { return "listing drafts" },
		handle:      (*Handlers).listDrafts,
	},
	OpPublishDraft: {
		description: "Publish a draft tweet or thread",
		fields: []field{
			{name: "draft_id", typ: fieldString, required: true, description: "ID of the draft to publish"},
		},
		doing:  func(a args) string { return "publishing draft " + a.str("draft_id") },
		handle: (*Handlers).publishDraft,
	},
	OpDeleteDraft: {
		description: "Delete a draft tweet or thread",
		fields: []field{
			{name: "draft_id", typ: fieldString, required: true, description: "ID of the draft to delete"},
		},
		doing:  func(a args) string { return "deleting draft " + a.str("draft_id") },
		handle: (*Handlers).deleteDraft,
	},
	OpUploadMediaAndTweet: {
		description: "Upload a local media file and create a draft tweet that attaches it",
		fields: []field{
			{name: "media_path", typ: fieldString, required: true, description: "Local path of the image or video to upload"},
			{name: "tweet_text", typ: fieldString, required: true, description: "The content of the tweet"},
		},
		doing:  func(args) string { return "uploading media and creating draft tweet" },
		handle: (*Handlers).uploadMediaAndTweet,
	},
}

// Tool returns the MCP definition advertised for op.
func (o Operation) Tool() mcp.Tool {
	def := definitions[o]

	opts := []mcp.ToolOption{mcp.WithDescription(def.description)}
	for _, f := range def.fields {
		propOpts := []mcp.PropertyOption{mcp.Description(f.description)}
		if f.required {
			propOpts = append(propOpts, mcp.Required())
		}

		switch f.typ {
		case fieldStringArray:
			propOpts = append(propOpts, mcp.Items(map[string]any{"type": "string"}))
			opts = append(opts, mcp.WithArray(f.name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(f.name, propOpts...))
		}
	}
	return mcp.NewTool(o.String(), opts...)
}
