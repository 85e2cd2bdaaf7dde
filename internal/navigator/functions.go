package navigator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"xai-chat/internal/llm"
)

const (
	FuncOpenWebsite = "open_website"
	FuncClick       = "click"
)

// Functions lists the definitions sent with every navigator request.
func Functions() []llm.FunctionDefinition {
	return []llm.FunctionDefinition{
		{
			Name:        FuncOpenWebsite,
			Description: "Open a website and return the HTML as a string",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":          "string",
						"description":   "A URL to open",
						"example_value": "https://x.ai/",
					},
				},
				"required": []any{"url"},
			},
		},
		{
			Name:        FuncClick,
			Description: "Click any button on a website and return the updated HTML",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"html": map[string]any{
						"type":        "string",
						"description": "The HTML content of the current page",
					},
					"button": map[string]any{
						"type":        "string",
						"description": "A text description of the button to click on the HTML page",
					},
				},
				"required": []any{"html", "button"},
			},
		},
	}
}

func lookup(name string) (llm.FunctionDefinition, bool) {
	for _, fn := range Functions() {
		if fn.Name == name {
			return fn, true
		}
	}
	return llm.FunctionDefinition{}, false
}

// decodeArguments checks the model-supplied JSON against the function's
// parameter schema before decoding it.
func decodeArguments(fn llm.FunctionDefinition, arguments string) (map[string]any, error) {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(fn.Parameters),
		gojsonschema.NewStringLoader(arguments),
	)
	if err != nil {
		return nil, fmt.Errorf("validate %s arguments: %w", fn.Name, err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, schemaErr := range result.Errors() {
			errs = append(errs, schemaErr.String())
		}
		sort.Strings(errs)
		return nil, fmt.Errorf("%s arguments invalid: %s", fn.Name, strings.Join(errs, "; "))
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, fmt.Errorf("decode %s arguments: %w", fn.Name, err)
	}
	return args, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
