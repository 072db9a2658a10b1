// Package model defines the Repo IR and the implementation plan documents.
package model

// Containerization modes detected by the infra profiler. The empty string
// means no container tooling was found and serializes as null.
const (
	ContainerNone         = ""
	ContainerSingle       = "docker"
	ContainerCompose      = "docker-compose"
	ContainerOrchestrated = "kubernetes"
)

// Dependency kinds.
const (
	DepRuntime  = "runtime"
	DepDev      = "dev"
	DepOptional = "optional"
)

// MethodAny marks a route whose declaration does not name an HTTP verb.
const MethodAny = "ANY"

// UnknownLanguage is the primary language of a repo with no recognized sources.
const UnknownLanguage = "unknown"

// RepoMetadata is computed once per extraction.
type RepoMetadata struct {
	Name              string             `json:"name"`
	URL               string             `json:"url"`
	PrimaryLanguage   string             `json:"primary_language"`
	LanguageBreakdown map[string]float64 `json:"language_breakdown"`
	TotalLOC          int                `json:"total_loc"`
	NumContributors   int                `json:"num_contributors"`
	StarCount         int                `json:"star_count"`
	ScaleTier         ScaleTier          `json:"scale_tier,omitempty"`
}

// Dependency is an external package. Name is unique within a Repo IR.
type Dependency struct {
	Name    string  `json:"name"`
	Version *string `json:"version"`
	DepType string  `json:"dep_type" jsonschema:"enum=runtime,enum=dev,enum=optional"`
}

// InternalImport is an approximate file-to-module edge. ToFile is the dotted
// module path with dots replaced by slashes and may not name an existing file.
type InternalImport struct {
	FromFile      string   `json:"from_file"`
	ToFile        string   `json:"to_file"`
	ImportedNames []string `json:"imported_names"`
}

// APIRoute is a detected HTTP endpoint. (Path, Method, HandlerFile) is unique.
type APIRoute struct {
	Path            string  `json:"path"`
	Method          string  `json:"method"`
	HandlerFile     string  `json:"handler_file"`
	HandlerFunction *string `json:"handler_function"`
	AuthRequired    *bool   `json:"auth_required"`
	Framework       string  `json:"framework"`
}

// Field is one declared attribute of a DataModel.
type Field struct {
	Name        string   `json:"name"`
	FieldType   string   `json:"field_type"`
	Constraints []string `json:"constraints"`
}

// DataModel is a persisted entity declaration. (Name, FilePath) is unique.
type DataModel struct {
	Name          string   `json:"name"`
	FilePath      string   `json:"file_path"`
	Fields        []Field  `json:"fields"`
	ORM           string   `json:"orm"`
	Relationships []string `json:"relationships"`
}

// InfraConfig is the union of every infrastructure signal found in a repo.
type InfraConfig struct {
	Containerization *string  `json:"containerization"`
	Databases        []string `json:"databases"`
	Caching          []string `json:"caching"`
	MessageQueues    []string `json:"message_queues"`
	CICD             *string  `json:"ci_cd"`
	CloudProvider    *string  `json:"cloud_provider"`
	DeploymentFiles  []string `json:"deployment_files"`
	BaseImages       []string `json:"base_images,omitempty"`
	ExposedPorts     []string `json:"exposed_ports,omitempty"`
}

// ContainerMode returns the containerization mode, ContainerNone when unset.
func (c InfraConfig) ContainerMode() string {
	if c.Containerization == nil {
		return ContainerNone
	}
	return *c.Containerization
}

// HasCI reports whether a CI system was detected.
func (c InfraConfig) HasCI() bool {
	return c.CICD != nil && *c.CICD != ""
}

// RepoIR is the canonical structured description of one repository.
type RepoIR struct {
	RepoMetadata         RepoMetadata      `json:"repo_metadata"`
	Dependencies         []Dependency      `json:"dependencies"`
	InternalImports      []InternalImport  `json:"internal_imports"`
	APIRoutes            []APIRoute        `json:"api_routes"`
	DataModels           []DataModel       `json:"data_models"`
	Infrastructure       InfraConfig       `json:"infrastructure"`
	DirectoryTree        string            `json:"directory_tree"`
	KeyDirectories       map[string]string `json:"key_directories"`
	ArchitecturalSummary string            `json:"architectural_summary"`
	ExtractionTimestamp  string            `json:"extraction_timestamp"`
	ExtractionWarnings   []string          `json:"extraction_warnings"`
}

// NewRepoIR returns an IR with every collection initialized so that a
// degraded extraction still serializes as empty lists rather than null.
func NewRepoIR(name string) *RepoIR {
	return &RepoIR{
		RepoMetadata: RepoMetadata{
			Name:              name,
			PrimaryLanguage:   UnknownLanguage,
			LanguageBreakdown: map[string]float64{},
		},
		Dependencies:       []Dependency{},
		InternalImports:    []InternalImport{},
		APIRoutes:          []APIRoute{},
		DataModels:         []DataModel{},
		Infrastructure:     EmptyInfra(),
		KeyDirectories:     map[string]string{},
		ExtractionWarnings: []string{},
	}
}

// EmptyInfra is the infra result of a repo with no detected signals.
func EmptyInfra() InfraConfig {
	return InfraConfig{
		Databases:       []string{},
		Caching:         []string{},
		MessageQueues:   []string{},
		DeploymentFiles: []string{},
	}
}

// StrPtr returns a pointer to s, or nil when s is empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
