package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/repoir/internal/grounding"
	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/ranking"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/main.py", "src/main.py"},
		{"dotted name", "Foo.__init__", "Foo.__init__"},
		{"relationship", "ForeignKey -> Team", "ForeignKey -> Team"},
		{"url", "https://github.com/acme/shop", `"https://github.com/acme/shop"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func sampleIR() *model.RepoIR {
	ir := model.NewRepoIR("shop")
	ir.RepoMetadata.URL = "https://github.com/acme/shop"
	ir.RepoMetadata.PrimaryLanguage = "python"
	ir.RepoMetadata.TotalLOC = 120
	ir.RepoMetadata.StarCount = 600
	ir.RepoMetadata.NumContributors = 12
	ir.RepoMetadata.ScaleTier = model.TierGrowth
	ir.RepoMetadata.LanguageBreakdown = map[string]float64{"javascript": 0.25, "python": 0.75}
	ir.Dependencies = []model.Dependency{
		{Name: "flask", Version: model.StrPtr("2.3"), DepType: model.DepRuntime},
		{Name: "pytest", DepType: model.DepDev},
	}
	ir.InternalImports = []model.InternalImport{
		{FromFile: "app/views.py", ToFile: "app/models", ImportedNames: []string{"User"}},
	}
	ir.APIRoutes = []model.APIRoute{
		{Path: "/users", Method: "GET", HandlerFile: "app/views.py", HandlerFunction: model.StrPtr("users"), Framework: "flask"},
	}
	ir.DataModels = []model.DataModel{{
		Name:          "User",
		FilePath:      "app/models.py",
		Fields:        []model.Field{{Name: "name", FieldType: "CharField"}, {Name: "team", FieldType: "ForeignKey"}},
		ORM:           "django",
		Relationships: []string{"ForeignKey -> Team"},
	}}
	ir.Infrastructure.Containerization = model.StrPtr(model.ContainerCompose)
	ir.Infrastructure.Databases = []string{"postgresql"}
	ir.Infrastructure.CICD = model.StrPtr("github_actions")
	ir.KeyDirectories = map[string]string{"app": "source"}
	ir.ExtractionWarnings = []string{"skipped setup.py: bad"}
	return ir
}

func TestEncode(t *testing.T) {
	t.Parallel()

	got := Encode(sampleIR(), ranking.Budget{})

	lines := strings.Split(got, "\n")
	wantHead := []string{
		"repo: shop",
		`url: "https://github.com/acme/shop"`,
		"primary_language: python",
		"total_loc: 120",
		"stars: 600",
		"contributors: 12",
		"scale_tier: growth",
		"languages[2]{language,fraction}:",
		"  python,0.7500",
		"  javascript,0.2500",
		"dependencies[2]{name,version,type}:",
		"  flask,2.3,runtime",
		`  pytest,"",dev`,
		"modules[2]{module,rank}:",
	}
	for i, want := range wantHead {
		if lines[i] != want {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want)
		}
	}

	for _, want := range []string{
		"routes[1]{method,path,file,handler,framework}:\n  GET,/users,app/views.py,users,flask",
		"models[1]{name,orm,file,fields,relationships}:\n  User,django,app/models.py,2,ForeignKey -> Team",
		"containerization: docker-compose",
		"ci_cd: github_actions",
		"cloud_provider: null",
		"databases[1]: postgresql",
		"caching[0]:",
		"key_directories[1]{path,role}:\n  app,source",
		`warnings[1]: "skipped setup.py: bad"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "summary:") {
		t.Errorf("empty summary should be omitted:\n%s", got)
	}
	if strings.Contains(got, "base_images") {
		t.Errorf("empty base images should be omitted:\n%s", got)
	}
}

func TestEncodeBudget(t *testing.T) {
	t.Parallel()

	ir := sampleIR()
	ir.APIRoutes = append(ir.APIRoutes,
		model.APIRoute{Path: "/teams", Method: "GET", HandlerFile: "app/views.py", Framework: "flask"},
		model.APIRoute{Path: "/teams", Method: "POST", HandlerFile: "app/views.py", Framework: "flask"},
	)
	ir.ArchitecturalSummary = "Layered monolith."

	got := Encode(ir, ranking.Budget{Routes: 2})
	if !strings.Contains(got, "routes[2]{") {
		t.Errorf("expected two routes:\n%s", got)
	}
	if strings.Contains(got, "POST") {
		t.Errorf("route beyond budget rendered:\n%s", got)
	}
	if !strings.HasSuffix(got, "summary: Layered monolith.") {
		t.Errorf("expected trailing summary:\n%s", got)
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(model.NewRepoIR("empty"), ranking.Budget{})
	for _, want := range []string{
		"repo: empty",
		"primary_language: unknown",
		`scale_tier: ""`,
		"languages[0]{language,fraction}:",
		"dependencies[0]{name,version,type}:",
		"modules[0]{module,rank}:",
		"routes[0]{method,path,file,handler,framework}:",
		"containerization: null",
		"deployment_files[0]:",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "warnings") {
		t.Errorf("no warnings expected:\n%s", got)
	}
}

func TestEncodeReport(t *testing.T) {
	t.Parallel()

	got := EncodeReport(grounding.Report{
		Score:         2.0 / 3.0,
		TotalPaths:    3,
		ValidPaths:    2,
		InvalidPaths:  []string{"ghost/file.py"},
		ValidPathList: []string{"pyproject.toml", "src/app/__init__.py"},
	})
	want := strings.Join([]string{
		"score: 0.6667",
		"total_paths: 3",
		"valid_paths: 2",
		"valid[2]: pyproject.toml,src/app/__init__.py",
		"invalid[1]: ghost/file.py",
	}, "\n")
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestEncodeBatch(t *testing.T) {
	t.Parallel()

	got := EncodeBatch(grounding.BatchReport{
		MeanRGS:           0.75,
		MinRGS:            0.5,
		MaxRGS:            1,
		NumPlans:          2,
		TotalPathsChecked: 4,
		TotalValidPaths:   3,
		Results: []grounding.Report{
			{Score: 1, TotalPaths: 2, ValidPaths: 2, InvalidPaths: []string{}},
			{Score: 0.5, TotalPaths: 2, ValidPaths: 1, InvalidPaths: []string{"ghost.py"}},
		},
	})
	lines := strings.Split(got, "\n")
	want := []string{
		"mean_rgs: 0.7500",
		"min_rgs: 0.5000",
		"max_rgs: 1.0000",
		"num_plans: 2",
		"total_paths_checked: 4",
		"total_valid_paths: 3",
		"results[2]{index,score,total,valid,invalid}:",
		`  0,1.0000,2,2,""`,
		"  1,0.5000,2,1,ghost.py",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines:\n%s", len(lines), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}
