package terminal

import (
	"fmt"
	"io"

	"github.com/relayproj/relay/backend/convo"
)

// RenderResponses prints one pipeline response per step, marking
// synthesized error placeholders.
func RenderResponses(w io.Writer, responses []*convo.Response) {
	for i, resp := range responses {
		symbol := SuccessSymbol
		if resp.Metadata["error"] == "true" {
			symbol = ErrorSymbol
		}
		fmt.Fprintf(w, "%s %s %s\n", symbol, stepIndexStyle.Render(fmt.Sprintf("[%d]", i+1)), resp.Content)
	}
}

// RenderResponse prints a single response without step decoration.
func RenderResponse(w io.Writer, resp *convo.Response) {
	fmt.Fprintln(w, resp.Content)
}
