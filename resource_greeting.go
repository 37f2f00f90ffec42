package mcpdemo

import (
	"context"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const greetingScheme = "greeting://"

var GreetingResource = &mcp.ResourceTemplate{
	Name:        "greeting",
	URITemplate: greetingScheme + "{name}",
	Description: "A personalized greeting",
	MIMEType:    "text/plain",
}

func readGreeting(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	name, ok := strings.CutPrefix(uri, greetingScheme)
	if !ok || name == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     Greeting(name),
		}},
	}, nil
}
