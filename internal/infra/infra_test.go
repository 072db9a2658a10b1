package infra

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/repoir/internal/model"
)

func TestExtractCompose(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "docker-compose.yml", `services:
  db:
    image: postgres:16
  cache:
    image: redis:7-alpine
  broker:
    image: rabbitmq:3-management
  worker:
    build: .
  search:
    image: docker.elastic.co/elasticsearch/elasticsearch:8.0
`)
	writeFile(t, dir, "requirements.txt", "celery\npymongo\n")
	writeFile(t, dir, "Dockerfile", "FROM python:3.12-slim AS base\nEXPOSE 8000 9000\nfrom base\nEXPOSE 8000\n")
	writeFile(t, dir, ".github/workflows/ci.yml", "on: push")

	res, err := Extract(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	cfg := res.Infra
	assert.Equal(t, model.ContainerCompose, cfg.ContainerMode())
	assert.Equal(t, []string{"elasticsearch", "mongodb", "postgresql", "redis"}, cfg.Databases)
	assert.Equal(t, []string{"redis"}, cfg.Caching)
	assert.Equal(t, []string{"celery", "rabbitmq"}, cfg.MessageQueues)
	require.NotNil(t, cfg.CICD)
	assert.Equal(t, "github-actions", *cfg.CICD)
	assert.Nil(t, cfg.CloudProvider)
	assert.Equal(t, []string{".github/workflows/ci.yml", "Dockerfile", "docker-compose.yml"}, cfg.DeploymentFiles)
	assert.Equal(t, []string{"python:3.12-slim", "base"}, cfg.BaseImages)
	assert.Equal(t, []string{"8000", "9000"}, cfg.ExposedPorts)
}

func TestExtractMalformedCompose(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "docker-compose.yml", "services: [\n  - broken")
	writeFile(t, dir, "package.json", `{"dependencies": {"pg": "^8", "ioredis": "^5", "bullmq": "^4"}}`)

	res, err := Extract(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.True(t, strings.HasPrefix(res.Warnings[0], "skipped docker-compose.yml: "))
	assert.Equal(t, []string{"postgresql"}, res.Infra.Databases)
	assert.Equal(t, []string{"redis"}, res.Infra.Caching)
	assert.Equal(t, []string{"bull"}, res.Infra.MessageQueues)
}

func TestExtractEmpty(t *testing.T) {
	t.Parallel()

	res, err := Extract(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, res.Infra.Containerization)
	assert.Nil(t, res.Infra.CICD)
	assert.NotNil(t, res.Infra.Databases)
	assert.Empty(t, res.Infra.Databases)
	assert.NotNil(t, res.Infra.DeploymentFiles)
	assert.Empty(t, res.Infra.BaseImages)
}

func TestContainerization(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		files []string
		want  string
	}{
		{"none", []string{"main.py"}, model.ContainerNone},
		{"docker", []string{"Dockerfile"}, model.ContainerSingle},
		{"compose", []string{"Dockerfile", "docker-compose.prod.yaml"}, model.ContainerCompose},
		{"k8s dir", []string{"docker-compose.yml", "k8s/deploy.yaml"}, model.ContainerOrchestrated},
		{"k8s manifest", []string{"deploy/k8s-app.yml"}, model.ContainerOrchestrated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			for _, f := range tc.files {
				writeFile(t, dir, f, "x")
			}
			got, err := Containerization(context.Background(), dir)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDetectCIOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	assert.Equal(t, "", DetectCI(dir))

	writeFile(t, dir, ".travis.yml", "x")
	assert.Equal(t, "travis", DetectCI(dir))

	writeFile(t, dir, "Jenkinsfile", "x")
	assert.Equal(t, "jenkins", DetectCI(dir))
}

func TestDetectCloud(t *testing.T) {
	t.Parallel()

	cloud := func(root string) string {
		t.Helper()
		got, err := DetectCloud(context.Background(), root)
		require.NoError(t, err)
		return got
	}

	sentinel := t.TempDir()
	writeFile(t, sentinel, "cloudbuild.yaml", "steps: []")
	assert.Equal(t, "gcp", cloud(sentinel))

	tf := t.TempDir()
	writeFile(t, tf, "infra/main.tf", `provider "azurerm" {}
resource "azure_thing" "x" {}`)
	assert.Equal(t, "azure", cloud(tf))

	both := t.TempDir()
	writeFile(t, both, "terraform/main.tf", `provider "google" { project = "gcp-proj" }`)
	writeFile(t, both, "infra/main.tf", `provider "aws" {}`)
	assert.Equal(t, "gcp", cloud(both))
}

func TestDeploymentFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, f := range []string{
		"Procfile", "main.tf", "prod.tfvars", "k8s/api.yaml", "k8s/notes.txt",
		"helm/app/templates/svc.yaml", "nginx.conf", "src/app.py",
	} {
		writeFile(t, dir, f, "x")
	}

	got, err := DeploymentFiles(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Procfile", "helm/app/templates/svc.yaml", "k8s/api.yaml", "main.tf", "nginx.conf", "prod.tfvars",
	}, got)
}

func TestExtractCanceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "deploy/k8s-app.yml", "kind: Pod")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Extract(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res.Infra.Containerization)
	assert.Empty(t, res.Infra.DeploymentFiles)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
