package config

// Template is the commented default config written by `repoir init`.
const Template = `log:
  level: info          # debug | info | warn | error
  format: text         # text | json

walk:
  max_depth: 4         # directory tree depth
  max_entries: 200     # directory tree entries before truncation
  max_files: 50000     # files visited per extractor walk
  max_file_size: 1048576
  respect_gitignore: true

pipeline:
  timeout: 5m          # per-repository deadline; partial results are kept
  skip_summary: false

summary:
  provider: anthropic  # anthropic | openai | gemini | none
  model: ""            # empty selects the provider default
  max_tokens: 1024
  timeout: 60s
  max_tries: 3

store:
  backend: file        # file | s3 | postgres | memory
  dir: data/repo_irs
  compress: false      # write .json.zst
  s3:
    endpoint: ""
    region: us-east-1
    bucket: ""
    prefix: repo_irs
    access_key: ""
    secret_key: ""
    use_ssl: true
  postgres:
    dsn: ""

batch:
  workers: 4
  repos_dir: data/repos
`
