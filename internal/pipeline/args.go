package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

// argValues are the substitutions available to runtime.args.
type argValues struct {
	request   string
	output    string
	outputDir string
	json      map[string]any
}

// renderArgs substitutes {request}, {output}, {output_dir} and {json}. Any
// other placeholder is rejected so typos do not reach the program verbatim.
func renderArgs(argsT []string, v argValues) ([]string, error) {
	var payload string
	if v.json != nil {
		b, err := json.Marshal(v.json)
		if err != nil {
			return nil, fmt.Errorf("encode {json}: %w", err)
		}
		payload = string(b)
	}
	repl := strings.NewReplacer(
		"{request}", v.request,
		"{output}", v.output,
		"{output_dir}", v.outputDir,
		"{json}", payload,
	)
	rendered := make([]string, len(argsT))
	for i, a := range argsT {
		for _, m := range placeholderPattern.FindAllString(a, -1) {
			switch m {
			case "{request}", "{output}", "{output_dir}", "{json}":
			default:
				return nil, fmt.Errorf("invalid placeholder %s in runtime.args[%d]", m, i)
			}
		}
		rendered[i] = repl.Replace(a)
	}
	return rendered, nil
}
