package summarize

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/ranking"
)

// SystemPrompt frames the summary request.
const SystemPrompt = `You are a senior software architect. Given structured information about a code repository (its directory tree, dependencies, API routes, data models, and infrastructure), produce a concise architectural summary.

Your summary should cover:
1. **Overall Architecture Pattern**: Is this a monolith, microservices, serverless, etc.?
2. **Tech Stack**: Key frameworks, databases, and infrastructure choices.
3. **API Surface**: How many endpoints, what patterns (REST, GraphQL, RPC)?
4. **Data Layer**: What databases/ORMs are used, key models and their relationships.
5. **Infrastructure Maturity**: CI/CD, containerization, deployment approach.
6. **Strengths**: What is well-structured about this codebase?
7. **Weaknesses / Gaps**: What's missing or could be improved?

Keep the summary to 200-400 words. Be specific and reference actual file paths and technology names from the provided data.`

//go:embed prompt.tmpl
var promptSource string

var promptTemplate = template.Must(template.New("prompt").Funcs(sprig.TxtFuncMap()).Parse(promptSource))

type promptData struct {
	Tree           string
	Digest         ranking.Digest
	Infra          model.InfraConfig
	KeyDirectories map[string]string
}

// BuildPrompt renders the user prompt from the facts already assembled in ir.
func BuildPrompt(ir *model.RepoIR, budget ranking.Budget) (string, error) {
	data := promptData{
		Tree:           ir.DirectoryTree,
		Digest:         ranking.Select(ir, budget),
		Infra:          ir.Infrastructure,
		KeyDirectories: ir.KeyDirectories,
	}
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
