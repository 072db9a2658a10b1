package infra

// keyword maps a lowercase substring to a canonical engine or provider name.
type keyword struct {
	pattern string
	name    string
}

// Compose service keywords, matched against "<image> <service name>".
var (
	databaseKeywords = []keyword{
		{"postgres", "postgresql"},
		{"postgresql", "postgresql"},
		{"mysql", "mysql"},
		{"mariadb", "mariadb"},
		{"mongo", "mongodb"},
		{"mongodb", "mongodb"},
		{"redis", "redis"},
		{"sqlite", "sqlite"},
		{"cassandra", "cassandra"},
		{"dynamodb", "dynamodb"},
		{"elasticsearch", "elasticsearch"},
		{"opensearch", "opensearch"},
		{"cockroach", "cockroachdb"},
		{"neo4j", "neo4j"},
		{"influxdb", "influxdb"},
		{"timescaledb", "timescaledb"},
	}
	cacheKeywords = []keyword{
		{"redis", "redis"},
		{"memcached", "memcached"},
		{"varnish", "varnish"},
	}
	queueKeywords = []keyword{
		{"rabbitmq", "rabbitmq"},
		{"kafka", "kafka"},
		{"celery", "celery"},
		{"bull", "bull"},
		{"sqs", "sqs"},
		{"nats", "nats"},
		{"pulsar", "pulsar"},
	}
)

// Cloud provider keywords for infrastructure-as-code files. Order matters:
// the first pattern found wins.
var cloudKeywords = []keyword{
	{"aws", "aws"},
	{"amazon", "aws"},
	{"gcp", "gcp"},
	{"google-cloud", "gcp"},
	{"azure", "azure"},
	{"digitalocean", "digitalocean"},
	{"heroku", "heroku"},
	{"vercel", "vercel"},
	{"netlify", "netlify"},
	{"fly.io", "fly"},
}

// category selects which set a code-level signal feeds.
type category int

const (
	database category = iota
	cache
	queue
)

// codeSignal is a library-name signal found in manifest text.
type codeSignal struct {
	patterns []string
	category category
	name     string
}

var pythonSignals = []codeSignal{
	{[]string{"psycopg", "django"}, database, "postgresql"},
	{[]string{"pymysql", "mysqlclient"}, database, "mysql"},
	{[]string{"pymongo", "motor"}, database, "mongodb"},
	{[]string{"redis"}, cache, "redis"},
	{[]string{"celery"}, queue, "celery"},
	{[]string{"pika", "amqp"}, queue, "rabbitmq"},
	{[]string{"kafka"}, queue, "kafka"},
	{[]string{"sqlite"}, database, "sqlite"},
}

var nodeSignals = []codeSignal{
	{[]string{`"pg"`, "postgres"}, database, "postgresql"},
	{[]string{"mysql"}, database, "mysql"},
	{[]string{"mongoose", "mongodb"}, database, "mongodb"},
	{[]string{"redis", "ioredis"}, cache, "redis"},
	{[]string{"bull", "bullmq"}, queue, "bull"},
	{[]string{"amqplib"}, queue, "rabbitmq"},
	{[]string{"kafkajs"}, queue, "kafka"},
}

var pythonManifests = []string{"requirements.txt", "pyproject.toml", "setup.py", "Pipfile"}

// ciSentinels are checked in order; the first existing path names the system.
var ciSentinels = []keyword{
	{".github/workflows", "github-actions"},
	{".gitlab-ci.yml", "gitlab-ci"},
	{"Jenkinsfile", "jenkins"},
	{".circleci", "circleci"},
	{".travis.yml", "travis"},
	{"bitbucket-pipelines.yml", "bitbucket-pipelines"},
	{"azure-pipelines.yml", "azure-devops"},
}

// cloudSentinels are checked before the infrastructure-as-code scan.
var cloudSentinels = []keyword{
	{"serverless.yml", "aws"},
	{"template.yaml", "aws"},
	{"cdk.json", "aws"},
	{"samconfig.toml", "aws"},
	{"app.yaml", "gcp"},
	{"cloudbuild.yaml", "gcp"},
}

var deploymentPatterns = []string{
	"Dockerfile",
	"docker-compose*.yml",
	"docker-compose*.yaml",
	".dockerignore",
	"*.tf",
	"*.tfvars",
	"k8s/*.yml",
	"k8s/*.yaml",
	"kubernetes/*.yml",
	"kubernetes/*.yaml",
	"helm/**/*.yaml",
	".github/workflows/*.yml",
	".gitlab-ci.yml",
	"Jenkinsfile",
	"Procfile",
	"serverless.yml",
	"app.yaml",
	"fly.toml",
	"render.yaml",
	"railway.json",
	"vercel.json",
	"netlify.toml",
	"nginx.conf",
	"Caddyfile",
}

var composePatterns = []string{"docker-compose*.yml", "docker-compose*.yaml"}
